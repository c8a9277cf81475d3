package config

import (
	"io"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the root logger. When a log file is configured, output
// goes to console and to a size-rotated file; the returned closer releases
// the file and is never nil.
func (s *Server) NewLogger(console io.Writer) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	out := console
	var closer io.Closer = nopCloser{}
	if s.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   s.LogFile,
			MaxSize:    s.LogMaxSizeMB,
			MaxBackups: s.LogMaxBackups,
		}
		out = io.MultiWriter(console, file)
		closer = file
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
