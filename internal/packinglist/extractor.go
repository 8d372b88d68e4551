package packinglist

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/packlist/internal/pdf"
	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
)

// Mode selects the extraction strategy.
type Mode string

const (
	// ModeAuto runs table mode and falls back to full text when the
	// document has no tables or the tables yield no items.
	ModeAuto  Mode = "auto"
	ModeTable Mode = "table"
	ModeText  Mode = "text"
)

// Modes lists the accepted mode names.
var Modes = []Mode{ModeAuto, ModeTable, ModeText}

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(name, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q (expected one of %v)", name, Modes)
}

// EmptyTextMessage is reported for documents without a text layer.
const EmptyTextMessage = "No text extracted from PDF (the file may be a scanned image without a text layer)"

// Options configures an Extractor.
type Options struct {
	Mode              Mode
	Engine            pdf.Engine
	MaxFileSize       int64
	DescriptionColumn int
	WeightsColumn     int
	// KeepIncomplete emits items still waiting for weights at the end of
	// the document, with null weights, instead of dropping them.
	KeepIncomplete bool
}

// DefaultOptions returns the options matching the usual packing-list layout.
func DefaultOptions() Options {
	return Options{
		Mode:              ModeAuto,
		Engine:            pdf.EngineLedongthuc,
		MaxFileSize:       100 * 1024 * 1024,
		DescriptionColumn: 0,
		WeightsColumn:     2,
	}
}

// Opener opens a document for reading.
type Opener func(path string, engine pdf.Engine) (pdf.Source, error)

// Inspector reads structural information about a document.
type Inspector func(path string) (*pdf.Info, error)

// Extractor runs the packing-list pipeline over one document at a time.
// It keeps no state between calls and is safe for concurrent use.
type Extractor struct {
	opts      Options
	logger    *zap.Logger
	validator *pdf.Validator
	open      Opener
	inspect   Inspector
	table     *Parser
	text      *Parser
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithOpener replaces the document opener.
func WithOpener(open Opener) Option {
	return func(e *Extractor) { e.open = open }
}

// WithInspector replaces the structural inspector.
func WithInspector(inspect Inspector) Option {
	return func(e *Extractor) { e.inspect = inspect }
}

// NewExtractor creates an extractor.
func NewExtractor(opts Options, logger *zap.Logger, options ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.Engine == "" {
		opts.Engine = pdf.EngineLedongthuc
	}
	e := &Extractor{
		opts:      opts,
		logger:    logger,
		validator: pdf.NewValidator(opts.MaxFileSize),
		open:      pdf.Open,
		inspect:   pdf.Inspect,
		table:     NewParser(TableProfile()),
		text:      NewParser(FullTextProfile()),
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Options returns the extractor's configuration.
func (e *Extractor) Options() Options {
	return e.opts
}

// WithMode returns a copy of the extractor using mode m.
func (e *Extractor) WithMode(m Mode) *Extractor {
	c := *e
	c.opts.Mode = m
	return &c
}

// document is the fully loaded text of every page.
type document struct {
	lines  [][]string
	tables [][]pdf.Table
}

func (d *document) hasTables() bool {
	for _, t := range d.tables {
		if len(t) > 0 {
			return true
		}
	}
	return false
}

func (d *document) hasText() bool {
	for _, page := range d.lines {
		for _, l := range page {
			if strings.TrimSpace(l) != "" {
				return true
			}
		}
	}
	for _, page := range d.tables {
		for _, t := range page {
			for _, row := range t {
				for _, cell := range row {
					if strings.TrimSpace(cell) != "" {
						return true
					}
				}
			}
		}
	}
	return false
}

// Extract runs the pipeline on path. It never panics and never returns an
// error: every failure is reported in the Result.
func (e *Extractor) Extract(ctx context.Context, path string) (res *Result) {
	diag := &Diagnostics{
		RunID:  uuid.NewString(),
		Mode:   string(e.opts.Mode),
		Engine: string(e.opts.Engine),
	}
	logger := e.logger.With(zap.String("run_id", diag.RunID), zap.String("path", path))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("extraction panicked", zap.Any("panic", r))
			res = failure(pdferrors.Newf(pdferrors.ErrorTypeUnexpected, "%v", r), diag)
		}
	}()

	fileName := filepath.Base(path)
	items, err := e.run(ctx, path, fileName, diag, logger)
	if err != nil {
		logger.Warn("extraction failed", zap.Error(err))
		return failure(err, diag)
	}

	logger.Info("extraction finished",
		zap.Int("items", len(items)),
		zap.Int("pages", diag.Pages),
		zap.Int("tables", diag.TablesFound),
		zap.Bool("fallback", diag.Fallback))
	return success(fileName, items, diag)
}

func (e *Extractor) run(ctx context.Context, path, fileName string, diag *Diagnostics, logger *zap.Logger) ([]Item, error) {
	if err := e.validator.CheckFile(path); err != nil {
		return nil, err
	}

	if info, err := e.inspect(path); err != nil {
		logger.Debug("structural inspection failed", zap.Error(err))
		diag.Warnings = append(diag.Warnings, fmt.Sprintf("inspect: %v", err))
	} else {
		diag.PDFVersion = info.Version
		if info.Encrypted {
			return nil, pdferrors.Input(path, "encrypted PDF files are not supported")
		}
	}

	src, err := e.open(path, e.opts.Engine)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeUnexpected, "failed to open PDF", err).WithFile(path)
	}
	defer src.Close()

	doc, err := e.load(ctx, src, diag, logger)
	if err != nil {
		return nil, err
	}
	if !doc.hasText() {
		return nil, pdferrors.New(pdferrors.ErrorTypeEmpty, EmptyTextMessage).WithFile(path)
	}

	var items []Item
	switch e.opts.Mode {
	case ModeTable:
		items = e.fromTables(doc, fileName, diag)
	case ModeText:
		items = e.fromLines(doc, fileName, diag)
	default:
		if doc.hasTables() {
			items = e.fromTables(doc, fileName, diag)
		}
		if len(items) == 0 {
			logger.Debug("falling back to full-text parsing", zap.Bool("had_tables", doc.hasTables()))
			diag.Fallback = true
			items = e.fromLines(doc, fileName, diag)
		}
	}

	return Dedupe(items), nil
}

// load reads every page before any parsing starts. A page that cannot be
// read is skipped with a warning.
func (e *Extractor) load(ctx context.Context, src pdf.Source, diag *Diagnostics, logger *zap.Logger) (*document, error) {
	pages := src.Pages()
	diag.Pages = pages
	doc := &document{
		lines:  make([][]string, pages),
		tables: make([][]pdf.Table, pages),
	}

	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, pdferrors.Wrap(pdferrors.ErrorTypeUnexpected, "extraction cancelled", err)
		}
		n := i + 1

		lines, err := src.Lines(n)
		if err != nil {
			skipPage(diag, logger, n, "text", err)
		}
		doc.lines[i] = lines

		if e.opts.Mode == ModeText {
			continue
		}
		tables, err := src.Tables(n)
		if err != nil {
			skipPage(diag, logger, n, "tables", err)
		}
		doc.tables[i] = tables
		diag.TablesFound += len(tables)
	}
	return doc, nil
}

// skipPage records a page part that could not be read
func skipPage(diag *Diagnostics, logger *zap.Logger, page int, part string, err error) {
	perr := pdferrors.Wrap(pdferrors.ErrorTypeUnexpected, "failed to read page "+part, err).WithPage(page)
	logger.Warn(perr.Message, zap.Int("page", perr.Page), zap.Error(perr.Err))
	diag.Warnings = append(diag.Warnings, fmt.Sprintf("page %d %s: %v", perr.Page, part, perr.Err))
}

// fromTables parses the largest table of each page. Pending items carry
// over between rows and pages until a weights cell completes them.
func (e *Extractor) fromTables(doc *document, fileName string, diag *Diagnostics) []Item {
	var (
		items []Item
		queue PendingQueue
	)
	descCol, weightsCol := e.opts.DescriptionColumn, e.opts.WeightsColumn

	for _, tables := range doc.tables {
		table := largest(tables)
		for r := range table {
			desc := table.Cell(r, descCol)
			if desc != "" && isHeaderCell(desc) {
				continue
			}

			if desc != "" {
				parsed := e.parseCell(desc, fileName, &items, &queue)
				if parsed == 0 && len(table[r]) > 1 {
					e.parseCell(strings.Join(rowLines(table[r], weightsCol), "\n"), fileName, &items, &queue)
				}
			}

			if w := table.Cell(r, weightsCol); w != "" {
				resolved, discarded := queue.Resolve(w)
				items = append(items, resolved...)
				diag.DiscardedPairs += discarded
			}
		}
	}

	left := queue.Drain()
	diag.UnresolvedItems = len(left)
	if e.opts.KeepIncomplete {
		items = append(items, left...)
	}
	return items
}

// parseCell parses each line of a cell and returns how many were items.
func (e *Extractor) parseCell(cell, fileName string, items *[]Item, queue *PendingQueue) int {
	n := 0
	for _, line := range strings.Split(cell, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		it, status := e.table.Parse(line)
		it.FileName = fileName
		switch status {
		case Complete:
			*items = append(*items, it)
		case NeedsWeights:
			queue.Push(it)
		default:
			continue
		}
		n++
	}
	return n
}

func (e *Extractor) fromLines(doc *document, fileName string, diag *Diagnostics) []Item {
	var items []Item
	for _, lines := range doc.lines {
		for _, line := range lines {
			diag.LinesScanned++
			if it, status := e.text.Parse(line); status == Complete {
				it.FileName = fileName
				items = append(items, it)
			}
		}
	}
	return items
}

func largest(tables []pdf.Table) pdf.Table {
	var best pdf.Table
	for _, t := range tables {
		if len(t) > len(best) {
			best = t
		}
	}
	return best
}

func isHeaderCell(cell string) bool {
	low := strings.ToLower(cell)
	return strings.HasPrefix(low, "qty") ||
		strings.Contains(low, "description/size") ||
		strings.HasPrefix(low, "box box")
}

// rowLines re-assembles a row whose description spans several cells: the
// k-th lines of every cell except skip are joined into one text line.
func rowLines(row []string, skip int) []string {
	split := make([][]string, len(row))
	depth := 0
	for c, cell := range row {
		if c == skip {
			continue
		}
		split[c] = strings.Split(strings.TrimSpace(cell), "\n")
		if len(split[c]) > depth {
			depth = len(split[c])
		}
	}

	lines := make([]string, 0, depth)
	for k := 0; k < depth; k++ {
		var parts []string
		for _, cellLines := range split {
			if k < len(cellLines) {
				if p := strings.TrimSpace(cellLines[k]); p != "" {
					parts = append(parts, p)
				}
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return lines
}
