package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/a3tai/packlist/internal/config"
	"github.com/a3tai/packlist/internal/logging"
	"github.com/a3tai/packlist/internal/mcp"
	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
	"github.com/a3tai/packlist/internal/service"
	"github.com/a3tai/packlist/internal/watch"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit statuses besides the ones derived from error types
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const missingPathJSON = `{"ok":false,"error":"Missing PDF path argument"}`

type command func(ctx context.Context, args []string, stdout, stderr io.Writer) int

var commands = map[string]command{
	"extract":   runExtract,
	"dgdec":     runDGDeclaration,
	"preadvise": runPreadvise,
	"serve":     runServe,
	"watch":     runWatch,
	"version":   runVersion,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches to a sub-command. Without a known command name the
// arguments are handed to extract.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		if cmd, ok := commands[args[0]]; ok {
			return cmd(ctx, args[1:], stdout, stderr)
		}
	}
	return runExtract(ctx, args, stdout, stderr)
}

// setup loads the configuration and logger of a command. A non-negative
// code means the command is finished.
func setup(name string, args []string, stdout, stderr io.Writer) (*config.Config, []string, *zap.Logger, int) {
	cfg, rest, err := config.Load(name, args, stderr)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(stdout)
		return nil, nil, nil, exitOK
	case errors.Is(err, pflag.ErrHelp):
		return nil, nil, nil, exitOK
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, nil, nil, exitUsage
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, nil, nil, exitError
	}
	if cfg.IsDebug() {
		logger.Debug("configuration loaded", zap.String("command", name), zap.Stringer("config", cfg))
	}
	return cfg, rest, logger, -1
}

func runExtract(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, logger, code := setup("extract", args, stdout, stderr)
	if code >= 0 {
		return code
	}
	defer logging.Sync(logger)

	if len(rest) == 0 {
		fmt.Fprintln(stdout, missingPathJSON)
		return exitError
	}

	svc, err := service.New(cfg, logger)
	if err != nil {
		return failJSON(stdout, err)
	}
	res, err := svc.Extract(ctx, service.ExtractRequest{Path: rest[0]})
	if err != nil {
		return failJSON(stdout, err)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return failJSON(stdout, err)
	}
	fmt.Fprintln(stdout, string(data))
	return res.ExitCode()
}

// failJSON prints err in the shape of a failed extraction result
func failJSON(stdout io.Writer, err error) int {
	data, _ := json.Marshal(map[string]any{"ok": false, "error": pdferrors.Message(err)})
	fmt.Fprintln(stdout, string(data))
	return pdferrors.TypeOf(err).ExitCode()
}

func templateArgs(name, ext string, rest []string, stderr io.Writer) (service.TemplateRequest, bool) {
	if len(rest) != 3 {
		fmt.Fprintf(stderr, "Usage: packlist %s <template%s> <out%s> <payload.json>\n", name, ext, ext)
		return service.TemplateRequest{}, false
	}
	return service.TemplateRequest{Template: rest[0], Output: rest[1], Payload: rest[2]}, true
}

func runDGDeclaration(_ context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, logger, code := setup("dgdec", args, stdout, stderr)
	if code >= 0 {
		return code
	}
	defer logging.Sync(logger)

	req, ok := templateArgs("dgdec", ".xlsx", rest, stderr)
	if !ok {
		return exitUsage
	}
	svc, err := service.New(cfg, logger)
	if err != nil {
		return fail(stderr, err)
	}
	if _, err := svc.GenerateDGDeclaration(req); err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, "OK")
	return exitOK
}

func runPreadvise(_ context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, logger, code := setup("preadvise", args, stdout, stderr)
	if code >= 0 {
		return code
	}
	defer logging.Sync(logger)

	req, ok := templateArgs("preadvise", ".docx", rest, stderr)
	if !ok {
		return exitUsage
	}
	svc, err := service.New(cfg, logger)
	if err != nil {
		return fail(stderr, err)
	}
	result, err := svc.GeneratePreadvise(req)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, result.Output)
	return exitOK
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %s\n", pdferrors.Message(err))
	return exitError
}

func runServe(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, _, logger, code := setup("serve", args, stdout, stderr)
	if code >= 0 {
		return code
	}
	defer logging.Sync(logger)

	if info, err := os.Stat(cfg.Directory); err != nil || !info.IsDir() {
		fmt.Fprintf(stderr, "Error: directory %s is not accessible\n", cfg.Directory)
		return exitError
	}

	svc, err := service.New(cfg, logger, service.Restricted())
	if err != nil {
		return fail(stderr, err)
	}
	srv, err := mcp.NewServer(cfg, svc, logger)
	if err != nil {
		return fail(stderr, err)
	}
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return exitError
	}
	return exitOK
}

func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, _, logger, code := setup("watch", args, stdout, stderr)
	if code >= 0 {
		return code
	}
	defer logging.Sync(logger)

	if err := cfg.EnsureDirectories(); err != nil {
		return fail(stderr, err)
	}
	svc, err := service.New(cfg, logger)
	if err != nil {
		return fail(stderr, err)
	}

	w, err := watch.New(watch.Config{
		Directory:   cfg.Directory,
		OutputDir:   cfg.OutputDir,
		Debounce:    cfg.Debounce,
		InitialScan: cfg.InitialScan,
	}, svc.Extractor(), logger)
	if err != nil {
		return fail(stderr, err)
	}
	if err := w.Run(ctx); err != nil {
		logger.Error("watcher stopped with error", zap.Error(err))
		return exitError
	}
	return exitOK
}

func runVersion(_ context.Context, _ []string, stdout, _ io.Writer) int {
	printVersion(stdout)
	return exitOK
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "packlist\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
