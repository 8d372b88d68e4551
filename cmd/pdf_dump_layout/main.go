package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/a3tai/packlist/internal/pdf"
)

// LayoutResult is everything the engine saw in one document
type LayoutResult struct {
	FilePath   string       `json:"file_path"`
	Engine     string       `json:"engine"`
	PDFVersion string       `json:"pdf_version,omitempty"`
	PageCount  int          `json:"page_count"`
	Pages      []PageLayout `json:"pages"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// PageLayout holds the text lines and ruled tables of one page
type PageLayout struct {
	Page   int         `json:"page"`
	Lines  []string    `json:"lines"`
	Tables []pdf.Table `json:"tables"`
}

type options struct {
	engine string
	format string
	page   int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := pflag.NewFlagSet("pdf_dump_layout", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.engine, "engine", string(pdf.EngineLedongthuc), "PDF engine: ledongthuc or fitz")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.IntVar(&opts.page, "page", 0, "Only dump this page (1-based)")
	help := fs.BoolP("help", "h", false, "Show help message")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		printHelp(stdout)
		return 0
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: PDF file path required\n\n")
		printUsage(stderr)
		return 2
	}

	result, err := dumpLayout(fs.Arg(0), opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := outputResult(stdout, result, opts.format); err != nil {
		fmt.Fprintf(stderr, "Error outputting results: %v\n", err)
		return 1
	}
	return 0
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "PDF Dump Layout - Show the text lines and tables the packing list parser sees")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use it to check how a new supplier layout is read before tuning --desc-col")
	fmt.Fprintln(w, "and --weights-col or switching the extraction mode.")
	fmt.Fprintln(w)
	printUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  --engine       PDF engine: ledongthuc (default, tables and lines) or fitz (lines only)")
	fmt.Fprintln(w, "  --format       Output format: text (default), json")
	fmt.Fprintln(w, "  --page         Only dump one page")
	fmt.Fprintln(w, "  --help         Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  pdf_dump_layout inbox/PL-0042.pdf")
	fmt.Fprintln(w, "  pdf_dump_layout --format json --page 2 inbox/PL-0042.pdf")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf_dump_layout [OPTIONS] <pdf_file>")
}

func dumpLayout(path string, opts options) (*LayoutResult, error) {
	engine, err := pdf.ParseEngine(opts.engine)
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	result := &LayoutResult{
		FilePath: absPath,
		Engine:   string(engine),
		Pages:    []PageLayout{},
	}
	if info, err := pdf.Inspect(absPath); err == nil {
		result.PDFVersion = info.Version
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("inspect: %v", err))
	}

	src, err := pdf.Open(absPath, engine)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer src.Close()

	result.PageCount = src.Pages()
	if opts.page < 0 || opts.page > result.PageCount {
		return nil, fmt.Errorf("page %d out of range (1-%d)", opts.page, result.PageCount)
	}

	for n := 1; n <= result.PageCount; n++ {
		if opts.page != 0 && n != opts.page {
			continue
		}
		page := PageLayout{Page: n, Lines: []string{}, Tables: []pdf.Table{}}
		if lines, err := src.Lines(n); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("page %d lines: %v", n, err))
		} else if lines != nil {
			page.Lines = lines
		}
		if tables, err := src.Tables(n); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("page %d tables: %v", n, err))
		} else if tables != nil {
			page.Tables = tables
		}
		result.Pages = append(result.Pages, page)
	}
	return result, nil
}

func outputResult(w io.Writer, result *LayoutResult, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "text":
		outputText(w, result)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputText(w io.Writer, result *LayoutResult) {
	fmt.Fprintf(w, "File: %s\n", result.FilePath)
	fmt.Fprintf(w, "Engine: %s", result.Engine)
	if result.PDFVersion != "" {
		fmt.Fprintf(w, ", PDF %s", result.PDFVersion)
	}
	fmt.Fprintf(w, ", %d page(s)\n", result.PageCount)

	for _, page := range result.Pages {
		fmt.Fprintf(w, "\n=== Page %d ===\n", page.Page)
		fmt.Fprintf(w, "Lines (%d):\n", len(page.Lines))
		for i, line := range page.Lines {
			fmt.Fprintf(w, "  %3d | %s\n", i+1, line)
		}

		fmt.Fprintf(w, "Tables (%d):\n", len(page.Tables))
		for t, table := range page.Tables {
			fmt.Fprintf(w, "  Table %d: %d row(s)\n", t+1, len(table))
			for r, row := range table {
				cells := make([]string, len(row))
				for c, cell := range row {
					cells[c] = strings.ReplaceAll(cell, "\n", " / ")
				}
				fmt.Fprintf(w, "    [%d] %s\n", r, strings.Join(cells, " | "))
			}
		}
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "\nWarning: %s\n", warning)
	}
}
