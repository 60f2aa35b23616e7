// Package source reads data files line by line. The reader is pull-based:
// fixed-width continuation needs the decoder to decide when the next
// physical line is consumed, which rules out a channel-fed source.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultMaxLineSize is the default maximum size (in bytes) of a single
// physical line.
const DefaultMaxLineSize = 1024 * 1024 // 1MB

// FileError reports a data file that cannot be opened or read. It is fatal
// for the affected file only.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("data file %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Lines is the contract the decoders consume: a sequential, pull-based line
// iterator. Next returns false at end of input; Err reports any read failure
// encountered before the end.
type Lines interface {
	Next() (string, bool)
	Err() error
}

// Reader iterates the physical lines of one data file in order.
type Reader struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	err     error
}

// Config holds tunable parameters for a Reader.
type Config struct {
	MaxLineSize int
}

// Open opens a data file for line iteration.
func Open(path string, conf ...Config) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	r := newReader(path, f, conf...)
	r.file = f
	return r, nil
}

// FromReader wraps an in-memory or test input in a line iterator.
func FromReader(name string, in io.Reader, conf ...Config) *Reader {
	return newReader(name, in, conf...)
}

func newReader(path string, in io.Reader, conf ...Config) *Reader {
	maxLineSize := DefaultMaxLineSize
	if len(conf) > 0 && conf[0].MaxLineSize > 0 {
		maxLineSize = conf[0].MaxLineSize
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)
	return &Reader{path: path, scanner: scanner}
}

// Next returns the next physical line, without its trailing newline. It
// returns false at end of file or on a read error; Err distinguishes the two.
func (r *Reader) Next() (string, bool) {
	if r.err != nil {
		return "", false
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				err = fmt.Errorf("line exceeds max size: %w", err)
			}
			r.err = &FileError{Path: r.path, Err: err}
		}
		return "", false
	}
	return r.scanner.Text(), true
}

// Err returns the read error that ended iteration, or nil on clean EOF.
func (r *Reader) Err() error { return r.err }

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
