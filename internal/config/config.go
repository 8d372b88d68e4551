package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment variable, e.g. PACKLIST_MODE.
	EnvPrefix = "PACKLIST"

	// Default values
	DefaultMode              = "auto"
	DefaultEngine            = "ledongthuc"
	DefaultLogLevel          = "info"
	DefaultMaxFileSize       = 100 * 1024 * 1024 // 100MB
	DefaultDescriptionColumn = 0
	DefaultWeightsColumn     = 2
	DefaultSheet             = "DG Form"
	DefaultDebounce          = 500 * time.Millisecond
	DefaultCacheSize         = 32

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ErrVersionRequested is returned by Load when --version was given.
var ErrVersionRequested = errors.New("version requested")

var (
	validModes     = []string{"auto", "table", "text"}
	validEngines   = []string{"ledongthuc", "fitz"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Config holds the settings shared by every packlist command
type Config struct {
	// Extraction
	Mode              string
	Engine            string
	MaxFileSize       int64 // Maximum PDF file size in bytes
	DescriptionColumn int
	WeightsColumn     int
	KeepIncomplete    bool
	CacheSize         int // Extraction results kept in memory, 0 disables

	// Templates
	Sheet string

	// serve and watch
	Directory string
	OutputDir string
	Debounce  time.Duration

	// InitialScan makes 'watch' process PDFs already present at start
	InitialScan bool

	// Application
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              DefaultMode,
		Engine:            DefaultEngine,
		MaxFileSize:       DefaultMaxFileSize,
		DescriptionColumn: DefaultDescriptionColumn,
		WeightsColumn:     DefaultWeightsColumn,
		Sheet:             DefaultSheet,
		Directory:         currentDir,
		OutputDir:         filepath.Join(currentDir, "out"),
		Debounce:          DefaultDebounce,
		CacheSize:         DefaultCacheSize,
		Version:           "1.0.0",
		ServerName:        "packlist",
		LogLevel:          DefaultLogLevel,
	}
}

// Load parses args for the named command. Values come from, in increasing
// precedence: defaults, a .env file in the working directory, PACKLIST_*
// environment variables and flags. It returns the remaining positional
// arguments.
func Load(command string, args []string, usage io.Writer) (*Config, []string, error) {
	cfg := DefaultConfig()

	if err := loadDotEnv(".env"); err != nil {
		return nil, nil, err
	}

	v := viper.New()
	setupViperEnvironment(v, cfg)

	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	fs.SetOutput(usage)
	defineCommandLineFlags(fs, cfg)
	setupUsageMessage(fs, command, usage)

	if checkVersionFlag(args) {
		return nil, nil, ErrVersionRequested
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	for _, dir := range []*string{&cfg.Directory, &cfg.OutputDir} {
		if *dir == "" {
			continue
		}
		if expanded, err := filepath.Abs(*dir); err == nil {
			*dir = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, fs.Args(), nil
}

// loadDotEnv exports the variables of path into the process environment
// without overriding variables that are already set. A missing file is fine.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("engine", cfg.Engine)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("desc-col", cfg.DescriptionColumn)
	v.SetDefault("weights-col", cfg.WeightsColumn)
	v.SetDefault("keep-incomplete", cfg.KeepIncomplete)
	v.SetDefault("cache-size", cfg.CacheSize)
	v.SetDefault("sheet", cfg.Sheet)
	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("out", cfg.OutputDir)
	v.SetDefault("debounce", cfg.Debounce)
	v.SetDefault("scan", cfg.InitialScan)
	v.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Extraction mode: 'auto', 'table' or 'text'")
	fs.String("engine", cfg.Engine, "PDF engine: 'ledongthuc' (tables and text) or 'fitz' (text only)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Int("desc-col", cfg.DescriptionColumn, "Table column holding item descriptions")
	fs.Int("weights-col", cfg.WeightsColumn, "Table column holding net/gross weight pairs")
	fs.Bool("keep-incomplete", cfg.KeepIncomplete, "Emit items whose weights were never found, with null weights")
	fs.Int("cache-size", cfg.CacheSize, "Extraction results cached by 'serve' (0 disables)")
	fs.String("sheet", cfg.Sheet, "Worksheet of the DG declaration template")
	fs.String("dir", cfg.Directory, "Directory served by 'serve' and watched by 'watch'")
	fs.String("out", cfg.OutputDir, "Directory receiving results written by 'watch'")
	fs.Duration("debounce", cfg.Debounce, "Quiet period before a new file is processed by 'watch'")
	fs.Bool("scan", cfg.InitialScan, "Also process the PDFs already in the directory when 'watch' starts")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet, command string, w io.Writer) {
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage of packlist %s:\n\n", command)
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nEnvironment Variables:\n")
		fmt.Fprintf(w, "  %s_MODE             Extraction mode\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_ENGINE           PDF engine\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_MAXFILESIZE      Maximum file size\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_DESC_COL         Description column\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_WEIGHTS_COL      Weights column\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_KEEP_INCOMPLETE  Keep items without weights\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_CACHE_SIZE       Cached extraction results\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_SHEET            DG declaration worksheet\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_DIR              Served or watched directory\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_OUT              Watch output directory\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_DEBOUNCE         Watch quiet period\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_SCAN             Process existing files on watch start\n", EnvPrefix)
		fmt.Fprintf(w, "  %s_LOGLEVEL         Log level\n", EnvPrefix)
		fmt.Fprintf(w, "\nA .env file in the working directory is read first.\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = strings.ToLower(v.GetString("mode"))
	cfg.Engine = strings.ToLower(v.GetString("engine"))
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.DescriptionColumn = v.GetInt("desc-col")
	cfg.WeightsColumn = v.GetInt("weights-col")
	cfg.KeepIncomplete = v.GetBool("keep-incomplete")
	cfg.CacheSize = v.GetInt("cache-size")
	cfg.Sheet = v.GetString("sheet")
	cfg.Directory = v.GetString("dir")
	cfg.OutputDir = v.GetString("out")
	cfg.Debounce = v.GetDuration("debounce")
	cfg.InitialScan = v.GetBool("scan")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !oneOf(c.Mode, validModes) {
		return fmt.Errorf("invalid mode: %s (must be one of: %s)", c.Mode, strings.Join(validModes, ", "))
	}

	if !oneOf(c.Engine, validEngines) {
		return fmt.Errorf("invalid engine: %s (must be one of: %s)", c.Engine, strings.Join(validEngines, ", "))
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.DescriptionColumn < 0 || c.WeightsColumn < 0 {
		return errors.New("table columns cannot be negative")
	}
	if c.DescriptionColumn == c.WeightsColumn {
		return errors.New("description and weights columns must differ")
	}

	if c.CacheSize < 0 {
		return errors.New("cache size cannot be negative")
	}

	if c.Debounce < 0 {
		return errors.New("debounce cannot be negative")
	}

	if !oneOf(c.LogLevel, validLogLevels) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// EnsureDirectories checks the served directory and creates the watch output
// directory if it does not exist yet.
func (c *Config) EnsureDirectories() error {
	if c.Directory == "" {
		return errors.New("directory cannot be empty")
	}

	if _, err := os.Stat(c.Directory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", c.Directory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", c.Directory, err)
	}

	if c.OutputDir != "" {
		if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
		}
	}
	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Engine: %s, Directory: %s, OutputDir: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Engine, c.Directory, c.OutputDir, c.LogLevel, c.MaxFileSize)
}
