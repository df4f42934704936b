package decompress

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const readChunkSize = 64 * 1024

// DecompressionError reports a diff that could not be opened or inflated.
type DecompressionError struct {
	Path string
	Err  error
}

func (e *DecompressionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decompressing stream: %v", e.Err)
	}
	return fmt.Sprintf("decompressing %s: %v", e.Path, e.Err)
}

func (e *DecompressionError) Unwrap() error {
	return e.Err
}

// File opens a gzip file on disk and returns its full decompressed content.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &DecompressionError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	content, err := Decompress(f)
	if err != nil {
		var de *DecompressionError
		if errors.As(err, &de) {
			de.Path = path
		}
		return "", err
	}
	return content, nil
}

// Decompress reads a gzip stream until it is exhausted. A zero-length
// source is treated as an empty document rather than an error.
func Decompress(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err == io.EOF {
		return "", nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return "", &DecompressionError{Err: err}
	}
	defer func() { _ = zr.Close() }()

	var sb strings.Builder
	buf := make([]byte, readChunkSize)
	for {
		n, err := zr.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &DecompressionError{Err: err}
		}
	}

	return sb.String(), nil
}
