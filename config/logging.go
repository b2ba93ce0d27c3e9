package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

const (
	maxLogSize  = 10 * 1024 * 1024 // 10MB
	maxLogFiles = 3                // Keep 3 backup files
	logFileName = appName + ".log"
)

var (
	activeLog *rotatingFile
	debugOn   atomic.Bool
	console   = &switchWriter{w: os.Stderr}
)

// switchWriter is the console half of the log output. The console front end
// points it at its progress display while bars are rendering.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// SetConsoleOutput redirects the console copy of the log to w and returns a
// function restoring the previous writer. The log file is unaffected.
func SetConsoleOutput(w io.Writer) (restore func()) {
	console.mu.Lock()
	prev := console.w
	console.w = w
	console.mu.Unlock()

	return func() {
		console.mu.Lock()
		console.w = prev
		console.mu.Unlock()
	}
}

// rotatingFile is an io.Writer over the application log that rotates it to
// .1, .2, .3 once it grows past maxLogSize.
type rotatingFile struct {
	mu   sync.Mutex
	dir  string
	file *os.File
	size int64
}

func openRotatingFile(dir string) (*rotatingFile, error) {
	r := &rotatingFile{dir: dir}

	// Check if we need to rotate before opening
	if info, err := os.Stat(r.path()); err == nil {
		r.size = info.Size()
		if r.size >= maxLogSize {
			if err := r.rotate(); err != nil {
				return nil, fmt.Errorf("failed to rotate logs: %w", err)
			}
		}
	}

	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *rotatingFile) path() string {
	return filepath.Join(r.dir, logFileName)
}

func (r *rotatingFile) open() error {
	file, err := os.OpenFile(r.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	r.file = file
	return nil
}

// rotate closes the current file and shifts the backups. Caller holds mu or
// owns r exclusively.
func (r *rotatingFile) rotate() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	basePath := r.path()

	// Remove oldest backup
	os.Remove(fmt.Sprintf("%s.%d", basePath, maxLogFiles))

	for i := maxLogFiles - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", basePath, i), fmt.Sprintf("%s.%d", basePath, i+1))
	}

	if err := os.Rename(basePath, basePath+".1"); err != nil && !os.IsNotExist(err) {
		return err
	}

	r.size = 0
	return nil
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return len(p), nil
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	if err != nil {
		return n, err
	}

	if r.size >= maxLogSize {
		if err := r.rotate(); err != nil {
			return n, err
		}
		if err := r.open(); err != nil {
			return n, err
		}
	}

	return n, nil
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// InitLogging sends the standard logger to the console (stderr) and to the rotating
// application log in dir (the config directory when dir is empty). It
// returns the path of the log file.
func InitLogging(dir string, debug bool) (string, error) {
	if dir == "" {
		configDir, err := Dir()
		if err != nil {
			return "", err
		}
		dir = configDir
	}

	r, err := openRotatingFile(dir)
	if err != nil {
		return "", err
	}

	if activeLog != nil {
		activeLog.Close()
	}
	activeLog = r

	SetDebug(debug)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(io.MultiWriter(console, r))

	log.Printf("[Log] Writing to %s (max %d MB, %d backups)", r.path(), maxLogSize/(1024*1024), maxLogFiles)
	return r.path(), nil
}

// CloseLogging restores the console as the only log output and closes the
// file.
func CloseLogging() {
	log.SetOutput(console)
	if activeLog != nil {
		activeLog.Close()
		activeLog = nil
	}
}

// LogFilePath returns the application log path for the log viewer.
func LogFilePath() (string, error) {
	if activeLog != nil {
		return activeLog.path(), nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logFileName), nil
}

func SetDebug(on bool) {
	debugOn.Store(on)
}

// Debugf logs only when debug output is enabled.
func Debugf(format string, args ...any) {
	if !debugOn.Load() {
		return
	}
	log.Output(2, "[Debug] "+fmt.Sprintf(format, args...))
}
