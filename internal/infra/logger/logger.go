package logger

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Root  string
	Dir   string // relative to Root; defaults to .tether/logs
	Debug bool
	// Output overrides the log file. Setup then creates no files.
	Output io.Writer
}

var (
	mu       sync.RWMutex
	global   = zerolog.Nop()
	logFile  *os.File
	logPath  string
	initedAt time.Time
)

// Setup points the global logger at <root>/<dir>/tether.log and returns a
// cleanup func that closes the file and restores the no-op logger.
func Setup(cfg Config) (func() error, error) {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var (
		w    io.Writer
		f    *os.File
		path string
	)

	if cfg.Output != nil {
		w = cfg.Output
	} else {
		root := filepath.Clean(cfg.Root)
		if root == "" {
			root = "."
		}
		sub := cfg.Dir
		if sub == "" {
			sub = filepath.Join(".tether", "logs")
		}

		dir := filepath.Join(root, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			setDiscard()
			return nil, err
		}

		path = filepath.Join(dir, "tether.log")
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			setDiscard()
			return nil, err
		}
		w = f
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp().Str("service", "tether")
	if cfg.Debug {
		ctx = ctx.Caller()
	}
	l := ctx.Logger()

	mu.Lock()
	global = l
	logFile = f
	logPath = path
	initedAt = time.Now().UTC()
	mu.Unlock()

	l.Info().Str("path", path).Bool("debug", cfg.Debug).Msg("logger.initialized")

	cleanup := func() error {
		mu.Lock()
		defer mu.Unlock()

		var cerr error
		if logFile != nil {
			cerr = logFile.Close()
		}
		logFile = nil
		logPath = ""
		initedAt = time.Time{}
		global = zerolog.Nop()
		return cerr
	}

	return cleanup, nil
}

func L() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

func InitTime() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return initedAt
}

func setDiscard() {
	mu.Lock()
	defer mu.Unlock()
	global = zerolog.Nop()
	logFile = nil
	logPath = ""
	initedAt = time.Time{}
}

func IsReady() error {
	mu.RLock()
	defer mu.RUnlock()
	if initedAt.IsZero() {
		return errors.New("logger not initialized")
	}
	return nil
}
