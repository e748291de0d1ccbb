package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/skypro1111/poxymeter/internal/config"
)

const (
	serviceName    = "poxymeter"
	serviceVersion = "1.0.0"
)

// Exit codes
const (
	exitOK       = 0
	exitError    = 1
	exitMismatch = 2
)

const usage = `Usage: poxymeter <command> [flags] CAPTURE

Commands:
  frames    split the capture into command frames and print one per line
  decode    decode 20-byte waveform frames and print the samples
  compare   decode and compare the samples against a reference CSV export

CAPTURE is a hex dump (one HID report per line) or a raw report file; "-" reads stdin.
Run "poxymeter <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return exitError
	}

	var cmd command
	switch args[0] {
	case "frames":
		cmd = &framesCommand{}
	case "decode":
		cmd = &decodeCommand{}
	case "compare":
		cmd = &compareCommand{}
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command %q\n\n%s", args[0], usage)
		return exitError
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	common.register(fs)
	cmd.register(fs)

	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitError
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "%s: expected exactly one capture file\n", args[0])
		return exitError
	}

	cfg, err := common.loadConfig(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}

	logger, closeLog := initLogger(cfg.Logging, stderr)
	defer closeLog()

	a := newApp(cfg, logger, uuid.NewString(), stdin, stdout)
	a.logger.Info("Run starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("command", args[0]),
		slog.String("capture", fs.Arg(0)),
	)

	code, err := cmd.run(ctx, a, fs.Arg(0))
	if err != nil {
		a.logger.Error("Command failed", slog.String("error", err.Error()))
		code = exitError
	}

	if cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			a.logger.Error("Failed to write metrics", slog.String("error", err.Error()))
			if code == exitOK {
				code = exitError
			}
		} else {
			a.logger.Debug("Metrics written", slog.String("path", cfg.Metrics.Textfile))
		}
	}

	return code
}

// commonFlags are accepted by every command and override the configuration file
type commonFlags struct {
	configPath  string
	format      string
	trimPadding bool
	workers     int
	metricsFile string
	logLevel    string
	logFormat   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	defaults := config.Default()
	fs.StringVar(&c.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&c.format, "format", defaults.Input.Format, "Capture format: hex or raw")
	fs.BoolVar(&c.trimPadding, "trim-padding", defaults.Input.TrimPadding, "Strip trailing 0x00 padding from each HID report")
	fs.IntVar(&c.workers, "workers", defaults.Decode.Workers, "Number of decode workers")
	fs.StringVar(&c.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	fs.StringVar(&c.logLevel, "log-level", defaults.Logging.Level, "Log level: debug, info, warn or error")
	fs.StringVar(&c.logFormat, "log-format", defaults.Logging.Format, "Log format: text or json")
}

// loadConfig loads the configuration file, if any, and applies explicitly set flags on top
func (c *commonFlags) loadConfig(fs *flag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Input.Format = c.format
		case "trim-padding":
			cfg.Input.TrimPadding = c.trimPadding
		case "workers":
			cfg.Decode.Workers = c.workers
		case "metrics-file":
			cfg.Metrics.Textfile = c.metricsFile
		case "log-level":
			cfg.Logging.Level = c.logLevel
		case "log-format":
			cfg.Logging.Format = c.logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	return cfg, nil
}

// initLogger creates the structured logger described by the configuration.
// The returned function closes the log file, if one was opened.
func initLogger(cfg config.LoggingConfig, stderr io.Writer) (*slog.Logger, func()) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	closeFn := func() {}
	var output io.Writer
	switch cfg.Output {
	case "stderr", "":
		output = stderr
	case "stdout":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open log file %s: %v, falling back to stderr\n", cfg.Output, err)
			output = stderr
		} else {
			output = file
			closeFn = func() { file.Close() }
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler), closeFn
}
