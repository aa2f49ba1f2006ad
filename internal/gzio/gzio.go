// Package gzio opens plain or gzip-compressed input files.
package gzio

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

// Open opens path for reading. Files ending in ".gz" are transparently
// decompressed with a parallel gzip reader.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

type gzipFile struct {
	*pgzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// MaxLineSize is the longest line ScanLines delivers.
const MaxLineSize = 1 << 20

// ErrLineTooLong is passed to the ScanLines callback in place of a line
// longer than MaxLineSize. Scanning continues with the next line.
var ErrLineTooLong = errors.New("line too long")

// ScanLines opens path and calls fn for every line, stopping at the first
// error returned by fn or when ctx is cancelled. Line terminators ("\n" or
// "\r\n") are stripped. For an over-long line fn receives an empty line and
// ErrLineTooLong.
func ScanLines(ctx context.Context, path string, fn func(line string, err error) error) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	br := bufio.NewReaderSize(r, 64<<10)
	var buf []byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, tooLong, readErr := readLine(br, buf[:0])
		buf = line
		eof := errors.Is(readErr, io.EOF)
		if readErr != nil && !eof {
			return errors.Wrapf(readErr, "read %s", path)
		}
		if eof && len(line) == 0 && !tooLong {
			return nil
		}

		var lineErr error
		if tooLong {
			lineErr = ErrLineTooLong
			line = line[:0]
		}
		if err := fn(string(line), lineErr); err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

// readLine reads one line into buf without its terminator. Bytes past
// MaxLineSize are discarded and reported with tooLong.
func readLine(br *bufio.Reader, buf []byte) (line []byte, tooLong bool, err error) {
	for {
		chunk, readErr := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineSize+2 {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}
		buf = bytes.TrimSuffix(buf, []byte("\n"))
		buf = bytes.TrimSuffix(buf, []byte("\r"))
		if len(buf) > MaxLineSize {
			tooLong = true
			buf = buf[:0]
		}
		return buf, tooLong, readErr
	}
}
