package cmd

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Flags struct {
	EnvFile    string
	ConfigFile string
}

// ParseFlags parses the flags shared by every command plus any extra flags
// registered on flag.CommandLine beforehand.
func ParseFlags() Flags {
	var flags Flags

	flag.StringVar(&flags.EnvFile, "env", "", "path to load env from")
	flag.StringVar(&flags.ConfigFile, "config", "", "path to a YAML config file")
	flag.Parse()

	return flags
}

func LoadEnvFile(path string) {
	if path == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", path)
	err := godotenv.Load(path)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", path, err)
	}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// SetupLogging installs the default slog logger, writing to stderr and, when
// logFile is set, to a size rotated log file. The returned closer flushes the
// log file.
func SetupLogging(level, logFile string) (io.Closer, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)
	if logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
		}
		out = io.MultiWriter(rotating, os.Stderr)
		closer = rotating
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(out)
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})))

	return closer, nil
}
