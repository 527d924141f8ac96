package core

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportCaller:    false,
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					Prefix:          "packer 📦",
				})
				l.SetLevel(log.InfoLevel)
				singleton = &logger{l}
			})
	}
	return singleton
}

// LogConfigure applies the configured level and output to the process logger.
// An empty level keeps the current one.
func LogConfigure(level string, out io.Writer, reportCaller bool) error {
	l := getLogger()
	if level != "" {
		lvl, err := log.ParseLevel(strings.ToLower(level))
		if err != nil {
			return err
		}
		l.SetLevel(lvl)
	}
	if out != nil {
		l.SetOutput(out)
	}
	l.SetReportCaller(reportCaller)
	return nil
}

// LogSetPrefix replaces the logger prefix, used to tag output with a build run.
func LogSetPrefix(prefix string) {
	getLogger().SetPrefix(prefix)
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
