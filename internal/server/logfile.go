package server

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFile returns a size-rotated log writer for path. Old files are
// compressed and pruned after 28 days.
func LogFile(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}
