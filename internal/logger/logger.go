package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"

	"humandetector/internal/config"
)

// Fields are structured key/value pairs attached to an entry.
type Fields = logrus.Fields

// Logger provides leveled logging (info/warning/error) to rotating files and stdout/stderr.
type Logger struct {
	infoLog    *logrus.Logger
	warningLog *logrus.Logger
	errorLog   *logrus.Logger
	logDir     string
	files      map[string]*lumberjack.Logger
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) (*Logger, error) {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}

	l.infoLog = newLevelLogger(io.MultiWriter(os.Stdout, l.openLogFile("info.log")))
	l.warningLog = newLevelLogger(io.MultiWriter(os.Stdout, l.openLogFile("warning.log")))
	l.errorLog = newLevelLogger(io.MultiWriter(os.Stderr, l.openLogFile("error.log")))

	return l, nil
}

// New returns a Logger writing every level to w only. Used by the CLI and tests.
func New(w io.Writer) *Logger {
	return &Logger{
		infoLog:    newLevelLogger(w),
		warningLog: newLevelLogger(w),
		errorLog:   newLevelLogger(w),
		files:      make(map[string]*lumberjack.Logger),
	}
}

func newLevelLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&formatter.Formatter{
		NoColors:        true,
		TimestampFormat: "2006/01/02 15:04:05",
		HideKeys:        false,
		FieldsOrder:     []string{"component", "session", "request_id"},
	})
	return l
}

// openLogFile returns a rotating writer for filename inside the log directory.
func (l *Logger) openLogFile(filename string) *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, filename),
		LocalTime:  true,
		MaxSize:    50,
		MaxAge:     14,
		MaxBackups: 3,
	}
	l.files[filename] = w
	return w
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Errorf(format, v...)
}

// InfoFields writes a structured info entry.
func (l *Logger) InfoFields(fields Fields, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.WithFields(fields).Info(msg)
}

// WarningFields writes a structured warning entry.
func (l *Logger) WarningFields(fields Fields, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.WithFields(fields).Warn(msg)
}

// ErrorFields writes a structured error entry.
func (l *Logger) ErrorFields(fields Fields, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.WithFields(fields).Error(msg)
}

// LogDirectory is where the per-level files live; empty for writer loggers.
func (l *Logger) LogDirectory() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.files[fileName]
	if !ok {
		return fmt.Errorf("unknown log file: %s", fileName)
	}
	// Close first so lumberjack reopens the truncated file on the next write.
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", fileName, err)
	}
	if err := os.Truncate(w.Filename, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate %s: %w", fileName, err)
	}

	l.infoLog.Infof("File %s has been cleared.", fileName)
	return nil
}

// Close flushes and closes the rotating file writers.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	for _, w := range l.files {
		err = multierr.Append(err, w.Close())
	}
	return err
}
