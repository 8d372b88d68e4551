// Package service ties extraction, validation and template generation
// together behind one façade used by the MCP server, the inbox watcher and
// the CLI.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/packlist/internal/config"
	"github.com/a3tai/packlist/internal/descriptions"
	"github.com/a3tai/packlist/internal/packinglist"
	"github.com/a3tai/packlist/internal/payload"
	"github.com/a3tai/packlist/internal/pdf"
	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
	"github.com/a3tai/packlist/internal/templates/dgdec"
	"github.com/a3tai/packlist/internal/templates/preadvise"
)

// Service runs packlist operations for one configuration
type Service struct {
	cfg       *config.Config
	logger    *zap.Logger
	extractor *packinglist.Extractor
	validator *pdf.Validator
	search    *pdf.Search
	results   *lru[*packinglist.Result]
	now       func() time.Time
	// restrict confines every path to cfg.Directory
	restrict bool
}

// Option customizes a Service
type Option func(*Service)

// WithClock replaces the clock used for template dates
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithExtractor replaces the extractor built from the configuration
func WithExtractor(e *packinglist.Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

// Restricted confines every path to the configured directory; relative
// paths are resolved against it.
func Restricted() Option {
	return func(s *Service) { s.restrict = true }
}

// New creates a service from cfg
func New(cfg *config.Config, logger *zap.Logger, options ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := ExtractOptions(cfg)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:       cfg,
		logger:    logger,
		extractor: packinglist.NewExtractor(opts, logger),
		validator: pdf.NewValidator(cfg.MaxFileSize),
		search:    pdf.NewSearch(cfg.MaxFileSize),
		now:       time.Now,
	}
	if cfg.CacheSize > 0 {
		s.results = newLRU[*packinglist.Result](cfg.CacheSize)
	}
	for _, o := range options {
		o(s)
	}
	if s.restrict && cfg.Directory == "" {
		return nil, fmt.Errorf("a directory is required to restrict paths")
	}
	return s, nil
}

// ExtractOptions converts the configuration into extractor options
func ExtractOptions(cfg *config.Config) (packinglist.Options, error) {
	mode, err := packinglist.ParseMode(cfg.Mode)
	if err != nil {
		return packinglist.Options{}, err
	}
	engine, err := pdf.ParseEngine(cfg.Engine)
	if err != nil {
		return packinglist.Options{}, err
	}
	return packinglist.Options{
		Mode:              mode,
		Engine:            engine,
		MaxFileSize:       cfg.MaxFileSize,
		DescriptionColumn: cfg.DescriptionColumn,
		WeightsColumn:     cfg.WeightsColumn,
		KeepIncomplete:    cfg.KeepIncomplete,
	}, nil
}

// Config returns the service configuration
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Extractor returns the extractor built from the configuration
func (s *Service) Extractor() *packinglist.Extractor {
	return s.extractor
}

// ResolvePath makes path absolute. In restricted mode relative paths are
// taken from the configured directory and paths outside it are rejected.
func (s *Service) ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", pdferrors.Input(path, "path cannot be empty")
	}
	if !s.restrict {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", pdferrors.Wrap(pdferrors.ErrorTypeInput, "failed to resolve path", err).WithFile(path)
		}
		return abs, nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.Directory, path)
	}
	ok, err := pdf.Within(path, s.cfg.Directory)
	if err != nil {
		return "", pdferrors.Wrap(pdferrors.ErrorTypeInput, "path validation failed", err).WithFile(path)
	}
	if !ok {
		return "", pdferrors.Input(path, fmt.Sprintf("path is outside the served directory: %s", path))
	}
	return filepath.Clean(path), nil
}

// ExtractRequest asks for the items of one packing list
type ExtractRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Extract runs the extraction pipeline. Extraction failures are reported
// inside the result; the error is only set for a rejected path or mode.
// Successful results are cached until the file changes.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (*packinglist.Result, error) {
	path, err := s.ResolvePath(req.Path)
	if err != nil {
		return nil, err
	}
	e := s.extractor
	if req.Mode != "" {
		mode, err := packinglist.ParseMode(req.Mode)
		if err != nil {
			return nil, pdferrors.Wrap(pdferrors.ErrorTypeInput, "invalid mode", err)
		}
		e = e.WithMode(mode)
	}

	key, cacheable := s.cacheKey(path, e.Options().Mode)
	if cacheable {
		if res, ok := s.results.get(key); ok {
			s.logger.Debug("extraction served from cache", zap.String("path", path))
			return res, nil
		}
	}

	res := e.Extract(ctx, path)
	if cacheable && res.OK {
		s.results.put(key, res)
	}
	return res, nil
}

// cacheKey identifies one version of a file for one mode
func (s *Service) cacheKey(path string, mode packinglist.Mode) (string, bool) {
	if s.results == nil {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s|%s|%d|%d", path, mode, info.Size(), info.ModTime().UnixNano()), true
}

// CacheStats reports result cache usage, or nil when caching is off
func (s *Service) CacheStats() *CacheStats {
	if s.results == nil {
		return nil
	}
	stats := s.results.stats()
	return &stats
}

// ValidateFile checks that a PDF can be read
func (s *Service) ValidateFile(req pdf.ValidateFileRequest) (*pdf.ValidateFileResult, error) {
	path, err := s.ResolvePath(req.Path)
	if err != nil {
		return nil, err
	}
	return s.validator.ValidateFile(pdf.ValidateFileRequest{Path: path})
}

// SearchDirectory lists PDFs in the configured directory
func (s *Service) SearchDirectory(query string) (*pdf.SearchDirectoryResult, error) {
	return s.search.SearchDirectory(pdf.SearchDirectoryRequest{
		Directory: s.cfg.Directory,
		Query:     query,
	})
}

// TemplateRequest names a template, its output and the payload. Payload is
// either inline JSON or the path of a JSON file.
type TemplateRequest struct {
	Template string `json:"template"`
	Output   string `json:"output"`
	Payload  string `json:"payload"`
}

// TemplateResult describes a generated document
type TemplateResult struct {
	Output    string   `json:"output"`
	Item      string   `json:"item,omitempty"`
	Unmatched []string `json:"unmatched,omitempty"`
}

func (s *Service) templatePaths(req TemplateRequest) (string, string, *payload.Payload, error) {
	template, err := s.ResolvePath(req.Template)
	if err != nil {
		return "", "", nil, err
	}
	out, err := s.ResolvePath(req.Output)
	if err != nil {
		return "", "", nil, err
	}
	if template == out {
		return "", "", nil, pdferrors.Input(out, "output must not overwrite the template")
	}
	p, err := s.loadPayload(req.Payload)
	if err != nil {
		return "", "", nil, err
	}
	return template, out, p, nil
}

func (s *Service) loadPayload(src string) (*payload.Payload, error) {
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, "{") {
		return payload.Parse([]byte(trimmed))
	}
	path, err := s.ResolvePath(trimmed)
	if err != nil {
		return nil, err
	}
	return payload.Load(path)
}

// GenerateDGDeclaration fills the DG declaration spreadsheet
func (s *Service) GenerateDGDeclaration(req TemplateRequest) (*TemplateResult, error) {
	template, out, p, err := s.templatePaths(req)
	if err != nil {
		return nil, err
	}
	if err := dgdec.Generate(template, out, p, s.now(), dgdec.WithSheet(s.cfg.Sheet)); err != nil {
		return nil, err
	}

	item := payload.PickItem(p.Items)
	s.logger.Info("dg declaration written",
		zap.String("template", template),
		zap.String("output", out),
		zap.String("item", item.Description.String()),
	)
	return &TemplateResult{Output: out, Item: item.Description.String()}, nil
}

// GeneratePreadvise fills the pre-advice word template
func (s *Service) GeneratePreadvise(req TemplateRequest) (*TemplateResult, error) {
	template, out, p, err := s.templatePaths(req)
	if err != nil {
		return nil, err
	}
	report, err := preadvise.Generate(template, out, p, s.now())
	if err != nil {
		return nil, err
	}

	if len(report.Unmatched) > 0 {
		s.logger.Warn("placeholders not found in document body",
			zap.String("template", template),
			zap.Strings("placeholders", report.Unmatched),
		)
	}
	s.logger.Info("pre-advice written", zap.String("output", out))
	return &TemplateResult{Output: report.Output, Unmatched: report.Unmatched}, nil
}

// ServerInfo describes the running server
type ServerInfo struct {
	ServerName  string                  `json:"serverName"`
	Version     string                  `json:"version"`
	Directory   string                  `json:"directory"`
	MaxFileSize int64                   `json:"maxFileSize"`
	Mode        string                  `json:"mode"`
	Engine      string                  `json:"engine"`
	Tools       []descriptions.ToolInfo `json:"tools"`
	Files       []pdf.FileInfo          `json:"files"`
	Cache       *CacheStats             `json:"cache,omitempty"`
}

// ServerInfo reports the configuration, tools and the PDFs in the directory.
// An unreadable directory yields an empty file list.
func (s *Service) ServerInfo() *ServerInfo {
	info := &ServerInfo{
		ServerName:  s.cfg.ServerName,
		Version:     s.cfg.Version,
		Directory:   s.cfg.Directory,
		MaxFileSize: s.cfg.MaxFileSize,
		Mode:        s.cfg.Mode,
		Engine:      s.cfg.Engine,
		Tools:       descriptions.Catalog(),
		Files:       []pdf.FileInfo{},
		Cache:       s.CacheStats(),
	}
	if found, err := s.SearchDirectory(""); err == nil {
		info.Files = found.Files
	} else {
		s.logger.Debug("directory listing failed", zap.Error(err))
	}
	return info
}
