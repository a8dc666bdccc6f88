// Package linecount counts newline-delimited lines in files.
package linecount

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// sniffLength is the number of leading bytes inspected for binary content.
	sniffLength = 8000

	readBufferSize = 32 * 1024

	errorOpenFileFormat = "open %s: %w"
	errorReadFileFormat = "read %s: %w"
	debugCountFailed    = "line count unavailable"
)

// Result describes one counted file.
type Result struct {
	Lines  int
	Bytes  int64
	Binary bool
}

// Counter counts lines of files on a filesystem. Binary files count as zero lines.
type Counter struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewCounter returns a Counter reading from filesystem. A nil filesystem reads the OS
// filesystem and a nil logger discards diagnostics.
func NewCounter(filesystem afero.Fs, logger *zap.Logger) *Counter {
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{fs: filesystem, logger: logger}
}

// CountLines returns the number of lines in path, or zero when the file cannot be read.
func (counter *Counter) CountLines(path string) int {
	result, countError := counter.Count(path)
	if countError != nil {
		counter.logger.Debug(debugCountFailed, zap.String("path", path), zap.Error(countError))
		return 0
	}
	return result.Lines
}

// Count reads path once and reports its line count and size. A final line without
// a trailing newline still counts.
func (counter *Counter) Count(path string) (Result, error) {
	file, openError := counter.fs.Open(path)
	if openError != nil {
		return Result{}, fmt.Errorf(errorOpenFileFormat, path, openError)
	}
	defer file.Close()

	var result Result
	buffer := make([]byte, readBufferSize)
	var lastByte byte
	sniffed := false
	for {
		bytesRead, readError := file.Read(buffer)
		if bytesRead > 0 {
			chunk := buffer[:bytesRead]
			if !sniffed {
				sniffed = true
				if IsBinary(chunk) {
					result.Binary = true
				}
			}
			result.Bytes += int64(bytesRead)
			if !result.Binary {
				result.Lines += bytes.Count(chunk, newline)
				lastByte = chunk[bytesRead-1]
			}
		}
		if readError != nil {
			if errors.Is(readError, io.EOF) {
				break
			}
			return Result{}, fmt.Errorf(errorReadFileFormat, path, readError)
		}
	}

	if result.Binary {
		result.Lines = 0
		return result, nil
	}
	if result.Bytes > 0 && lastByte != '\n' {
		result.Lines++
	}
	return result, nil
}

var newline = []byte{'\n'}

// IsBinary reports whether the leading bytes of a file look like binary data:
// a NUL byte or invalid UTF-8 within the first sniffLength bytes.
func IsBinary(data []byte) bool {
	sample := data
	if len(sample) > sniffLength {
		sample = sample[:sniffLength]
	}
	if len(sample) == 0 {
		return false
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	return !utf8.Valid(trimPartialRune(sample))
}

// trimPartialRune drops a multi-byte rune cut off at the end of sample, which
// happens whenever the sample boundary falls inside a character.
func trimPartialRune(sample []byte) []byte {
	for back := 1; back <= utf8.UTFMax && back <= len(sample); back++ {
		start := len(sample) - back
		if utf8.RuneStart(sample[start]) {
			if !utf8.FullRune(sample[start:]) {
				return sample[:start]
			}
			return sample
		}
	}
	return sample
}
