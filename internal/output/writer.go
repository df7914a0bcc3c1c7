package output

import (
	"errors"
	"io"
	"iter"
	"os"

	"golang.org/x/sys/unix"

	"github.com/dl/godents/internal/dirent"
)

// Writer writes formatted output straight to a file descriptor with writev,
// bypassing os.File buffering.
type Writer struct {
	fd   int
	name string
}

// NewWriter creates a Writer for f.
func NewWriter(f *os.File) *Writer {
	return &Writer{fd: int(f.Fd()), name: f.Name()}
}

// Fd returns the underlying file descriptor.
func (w *Writer) Fd() uintptr { return uintptr(w.fd) }

// Write writes all of data, retrying short writes and EINTR.
func (w *Writer) Write(data []byte) (int, error) {
	total := 0
	for len(data) > 0 {
		n, err := unix.Writev(w.fd, [][]byte{data})
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return total, &os.PathError{Op: "write", Path: w.name, Err: err}
		}
		total += n
		data = data[n:]
	}
	return total, nil
}

// flushSize is the batch size at which Render hands buffered output to w.
const flushSize = 32 * 1024

// Render drains entries once, formatting each with f and writing batches of
// output to w. It returns the number of entries rendered. Rendering stops
// at the first error from the sequence or from w; output formatted before a
// sequence error is still written, but End is not called.
func Render(w io.Writer, f Formatter, entries iter.Seq2[dirent.Entry, error]) (int, error) {
	buf := make([]byte, 0, flushSize+dirent.MinBufferSize)
	n := 0
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		_, err := w.Write(buf)
		buf = buf[:0]
		return err
	}

	for e, err := range entries {
		if err != nil {
			if ferr := flush(); ferr != nil {
				return n, ferr
			}
			return n, err
		}
		if n == 0 {
			buf = f.Begin(buf)
		}
		buf = f.Format(buf, e, n)
		n++
		if len(buf) >= flushSize {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}

	if n > 0 {
		buf = f.End(buf)
	}
	return n, flush()
}
