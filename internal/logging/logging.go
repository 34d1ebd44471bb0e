package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File enables a rotating log file next to stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
	level            = logrus.InfoLevel
	closer io.Closer
)

func formatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

// Setup configures the standard logger and every logger later created by New.
func Setup(opts Options) error {
	lvl := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		lvl = parsed
	}

	var out io.Writer = os.Stdout
	var c io.Closer
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotating)
		c = rotating
	}

	mu.Lock()
	output, level, closer = out, lvl, c
	mu.Unlock()

	std := logrus.StandardLogger()
	std.SetFormatter(formatter())
	std.SetOutput(out)
	std.SetLevel(lvl)
	return nil
}

// New returns a logger sharing the configured output, level and format.
func New() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()

	logger := logrus.New()
	logger.SetFormatter(formatter())
	logger.SetOutput(output)
	logger.SetLevel(level)
	return logger
}

// Close flushes the rotating file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
