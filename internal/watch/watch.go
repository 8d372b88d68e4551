// Package watch extracts packing lists dropped into an inbox directory.
//
// Every PDF created in or moved into the directory is extracted once it has
// been quiet for the debounce period, and the result JSON is written to the
// output directory as <name>.<run id prefix>.json.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/a3tai/packlist/internal/packinglist"
	"github.com/a3tai/packlist/internal/pdf"
)

// Extractor runs the packing-list pipeline on one file
type Extractor interface {
	Extract(ctx context.Context, path string) *packinglist.Result
}

// Config controls a Watcher
type Config struct {
	Directory string
	OutputDir string
	Debounce  time.Duration
	// InitialScan also processes the PDFs already in Directory at start.
	InitialScan bool
}

// Processed reports one handled file
type Processed struct {
	Source string
	Output string
	Result *packinglist.Result
	Err    error
}

// Watcher processes new PDFs in a directory
type Watcher struct {
	cfg       Config
	extractor Extractor
	logger    *zap.Logger
	onResult  func(Processed)
}

// Option customizes a Watcher
type Option func(*Watcher)

// OnResult registers a callback invoked after every processed file
func OnResult(fn func(Processed)) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// New creates a watcher
func New(cfg Config, extractor Extractor, logger *zap.Logger, options ...Option) (*Watcher, error) {
	if cfg.Directory == "" {
		return nil, fmt.Errorf("watch directory cannot be empty")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{cfg: cfg, extractor: extractor, logger: logger}
	for _, o := range options {
		o(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled. Files are extracted one at a time.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.Directory); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.cfg.Directory, err)
	}
	if err := os.MkdirAll(w.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	queue := make(chan string, 64)
	debouncer := NewDebouncer(w.cfg.Debounce, func(path string) {
		select {
		case queue <- path:
		case <-ctx.Done():
		}
	})
	defer debouncer.Stop()

	if w.cfg.InitialScan {
		if err := w.scan(debouncer); err != nil {
			w.logger.Warn("initial scan failed", zap.Error(err))
		}
	}

	w.logger.Info("watching for packing lists",
		zap.String("directory", w.cfg.Directory),
		zap.String("output", w.cfg.OutputDir),
		zap.Duration("debounce", w.cfg.Debounce))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped", zap.Int("pending", debouncer.Pending()))
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, debouncer)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		case path := <-queue:
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, debouncer *Debouncer) {
	if !pdf.IsPDFName(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		debouncer.Cancel(event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.logger.Debug("file event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
		debouncer.Trigger(event.Name)
	}
}

func (w *Watcher) scan(debouncer *Debouncer) error {
	entries, err := os.ReadDir(w.cfg.Directory)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && pdf.IsPDFName(entry.Name()) {
			debouncer.Trigger(filepath.Join(w.cfg.Directory, entry.Name()))
		}
	}
	return nil
}

func (w *Watcher) process(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		w.logger.Debug("file vanished before processing", zap.String("path", path))
		return
	}

	res := w.extractor.Extract(ctx, path)
	out, err := w.write(path, res)
	if err != nil {
		w.logger.Error("failed to write result", zap.String("path", path), zap.Error(err))
	} else {
		w.logger.Info("packing list processed",
			zap.String("path", path),
			zap.String("output", out),
			zap.Bool("ok", res.OK),
			zap.Int("items", len(res.Items)))
	}

	if w.onResult != nil {
		w.onResult(Processed{Source: path, Output: out, Result: res, Err: err})
	}
}

// OutputName is the result file name for source and run id
func OutputName(source, runID string) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	prefix := runID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	if prefix == "" {
		return name + ".json"
	}
	return name + "." + prefix + ".json"
}

func (w *Watcher) write(source string, res *packinglist.Result) (string, error) {
	runID := ""
	if res.Debug != nil {
		runID = res.Debug.RunID
	}
	out := filepath.Join(w.cfg.OutputDir, OutputName(source, runID))

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, out); err != nil {
		return "", err
	}
	return out, nil
}
