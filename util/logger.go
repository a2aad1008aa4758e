package util

import (
	"fmt"
	"io"
	"log"

	"github.com/juju/syslog"
)

type Logger struct {
	Verbose     bool
	Quiet       bool
	Prefix      *string
	Destination *log.Logger
}

// NewLogger - Logger writing to w with timestamps, as used when running in the foreground
func NewLogger(w io.Writer, verbose bool, quiet bool) *Logger {
	return &Logger{Verbose: verbose, Quiet: quiet, Destination: log.New(w, "", log.LstdFlags)}
}

// NewSyslogLogger - Logger writing to the local syslog daemon. Syslog adds its
// own timestamps, so none are written here.
func NewSyslogLogger(tag string, verbose bool, quiet bool) (*Logger, error) {
	writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, tag)
	if err != nil {
		return nil, fmt.Errorf("could not connect to syslog: %s", err)
	}
	return &Logger{Verbose: verbose, Quiet: quiet, Destination: log.New(writer, "", 0)}, nil
}

func (logger *Logger) WithPrefix(prefix string) *Logger {
	if logger.Prefix != nil {
		prefix = fmt.Sprintf("%s/%s", *logger.Prefix, prefix)
	}
	return &Logger{Verbose: logger.Verbose, Quiet: logger.Quiet, Destination: logger.Destination, Prefix: &prefix}
}

func (logger *Logger) print(logLevel string, format string, args ...interface{}) {
	if logger.Prefix != nil {
		format = fmt.Sprintf("[%s] %s", *logger.Prefix, format)
	}

	format = fmt.Sprintf("%s %s", logLevel, format)

	logger.Destination.Printf(format, args...)
}

func (logger *Logger) PrintVerbose(format string, args ...interface{}) {
	if logger.Quiet || !logger.Verbose {
		return
	}

	logger.print("V", format, args...)
}

func (logger *Logger) PrintInfo(format string, args ...interface{}) {
	if logger.Quiet {
		return
	}

	logger.print("I", format, args...)
}

func (logger *Logger) PrintWarning(format string, args ...interface{}) {
	logger.print("W", format, args...)
}

func (logger *Logger) PrintError(format string, args ...interface{}) {
	logger.print("E", format, args...)
}
