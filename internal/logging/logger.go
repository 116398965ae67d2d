// Package logging provides the shared logger used by all internal packages.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// L is the shared logger. Packages use it directly for structured logging, or
// through the formatting helpers below.
var L = newConsoleLogger(os.Stderr)

func newConsoleLogger(out io.Writer) zerolog.Logger {
	writer := io.Writer(out)
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(writer).With().Timestamp().Logger()
}

// UseServerLogger switches L to the JSON logger appropriate for a long-running
// server process.
func UseServerLogger() {
	L = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
}

// SetLevel sets the level of the global logger from a level name.
func SetLevel(name string) error {
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return err
	}
	L = L.Level(level)
	return nil
}

type TestingT interface {
	Cleanup(func())
	Helper()
}

var patchLock sync.Mutex

// PatchLogger sets the global logger to write to writer for the duration of
// the test. Tests that use PatchLogger can not use t.Parallel.
func PatchLogger(t TestingT, writer io.Writer) {
	t.Helper()
	patchLock.Lock()
	orig := L
	L = zerolog.New(writer)

	t.Cleanup(func() {
		L = orig
		patchLock.Unlock()
	})
}

// NewHTTPErrorWriter returns an io.Writer for the error log of an
// http.Server. Entries are emitted through L at warn level.
func NewHTTPErrorWriter() io.Writer {
	return httpErrorWriter{}
}

type httpErrorWriter struct{}

func (httpErrorWriter) Write(b []byte) (int, error) {
	L.Warn().Msg(strings.TrimSpace(string(b)))
	return len(b), nil
}

func Debugf(format string, v ...interface{}) {
	L.Debug().CallerSkipFrame(1).Msgf(format, v...)
}

func Infof(format string, v ...interface{}) {
	L.Info().CallerSkipFrame(1).Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	L.Warn().CallerSkipFrame(1).Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	L.Error().CallerSkipFrame(1).Msgf(format, v...)
}
