// Package getdents enumerates a directory by issuing getdents64(2) against an
// open descriptor and decoding the records the kernel writes into a reusable
// buffer.
package getdents

import (
	"fmt"
	"io"
	"iter"
	"math"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/dl/godents/internal/dirent"
)

const (
	// DefaultBufferSize is the buffer used when a caller does not ask for one.
	DefaultBufferSize = 32 * 1024

	// MaxBufferSize is the largest count getdents64 accepts; the kernel
	// takes an unsigned int and treats it as int.
	MaxBufferSize = math.MaxInt32

	opGetdents = "getdents64"
)

type state uint8

const (
	stateFresh state = iota
	stateFilled
	stateDone
	stateErrored
)

// Iterator yields the entries of one directory, refilling its buffer with
// getdents64 whenever the parsed records run out. The descriptor is borrowed:
// an Iterator never closes it.
//
// Next, NextBatch and All may be called from several goroutines at once; every
// record is handed to exactly one caller.
type Iterator struct {
	h    *handle
	path string
	size int

	// Protects mutable members
	mu sync.Mutex

	// mutable
	buf    []byte
	pos    int // next unread byte, pos <= filled
	filled int // bytes written by the last getdents64, filled <= len(buf)
	state  state
	err    error
}

// New prepares an Iterator over the directory open at fd with a buffer of
// size bytes. size is checked before fd is looked at, so an undersized buffer
// is reported as KindConfig for any descriptor.
func New(fd int, size int) (*Iterator, error) {
	return newIterator(&handle{fd: fd}, "", size, nil)
}

// newIterator reads into buf when it is non-nil, len(buf) being the size.
func newIterator(h *handle, path string, size int, buf []byte) (*Iterator, error) {
	if err := checkSize(path, size); err != nil {
		return nil, err
	}

	var stat unix.Stat_t
	if err := h.fstat(&stat); err != nil {
		return nil, wrapErr("fstat", path, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFDIR {
		return nil, &Error{Op: "fstat", Path: path, Kind: KindNotDir, Err: unix.ENOTDIR}
	}

	if buf == nil {
		buf = make([]byte, size)
	}
	return &Iterator{
		h:    h,
		path: path,
		size: size,
		buf:  buf,
	}, nil
}

// CheckBufferSize reports whether size is usable as a getdents buffer, with
// the same error an Iterator of that size would fail with.
func CheckBufferSize(size int) error {
	return checkSize("", size)
}

func checkSize(path string, size int) error {
	if size < dirent.MinBufferSize {
		return &Error{
			Op:   "buffer",
			Path: path,
			Kind: KindConfig,
			Err:  fmt.Errorf("buffer size %d is below minimum %d", size, dirent.MinBufferSize),
		}
	}
	if size > MaxBufferSize {
		return &Error{
			Op:   "buffer",
			Path: path,
			Kind: KindAlloc,
			Err:  fmt.Errorf("buffer size %d exceeds maximum %d", size, MaxBufferSize),
		}
	}
	return nil
}

// BufferSize returns the capacity requested for the getdents buffer.
func (it *Iterator) BufferSize() int {
	return it.size
}

// Next returns the next entry, or io.EOF once the directory is exhausted.
// After a failure every later call returns the same error without another
// system call.
func (it *Iterator) Next() (dirent.Entry, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if err := it.load(); err != nil {
		return dirent.Entry{}, err
	}

	e, n, err := dirent.Parse(it.buf[it.pos:it.filled])
	if err != nil {
		return dirent.Entry{}, it.corrupt(err)
	}
	it.pos += n
	return e, nil
}

// NextBatch returns every record left in the current fill, refilling first if
// the buffer is exhausted. dst is reused. It returns io.EOF once the directory
// is exhausted.
func (it *Iterator) NextBatch(dst []dirent.Entry) ([]dirent.Entry, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if err := it.load(); err != nil {
		return dst[:0], err
	}

	entries := dst[:0]
	for it.pos < it.filled {
		e, n, err := dirent.Parse(it.buf[it.pos:it.filled])
		if err != nil {
			return entries, it.corrupt(err)
		}
		entries = append(entries, e)
		it.pos += n
	}
	return entries, nil
}

// All returns the remaining entries as a single-pass sequence. A failure is
// yielded once as the final element; io.EOF ends the sequence silently.
// Stopping early makes no further system calls.
func (it *Iterator) All() iter.Seq2[dirent.Entry, error] {
	return func(yield func(dirent.Entry, error) bool) {
		for {
			e, err := it.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(dirent.Entry{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// load leaves at least one unread record in buf, or returns the terminal
// error. Must be called with mu held.
func (it *Iterator) load() error {
	switch it.state {
	case stateDone:
		return io.EOF
	case stateErrored:
		return it.err
	}

	if it.h.isClosed() {
		return it.fail(&Error{Op: opGetdents, Path: it.path, Kind: KindBadHandle, Err: unix.EBADF})
	}
	if it.pos < it.filled {
		return nil
	}

	n, err := it.h.getdents(it.buf)
	if err != nil {
		return it.fail(wrapErr(opGetdents, it.path, err))
	}
	if n == 0 {
		it.state = stateDone
		it.release()
		return io.EOF
	}
	if n > len(it.buf) {
		return it.fail(&Error{
			Op:   opGetdents,
			Path: it.path,
			Kind: KindCorrupt,
			Err:  fmt.Errorf("%w: kernel reported %d bytes for a %d byte buffer", dirent.ErrCorrupt, n, len(it.buf)),
		})
	}

	it.pos, it.filled = 0, n
	it.state = stateFilled
	return nil
}

// corrupt fails the iterator at the record starting at pos, an offset into
// the current fill.
func (it *Iterator) corrupt(err error) error {
	return it.fail(&Error{
		Op:   "parse",
		Path: it.path,
		Kind: KindCorrupt,
		Err:  fmt.Errorf("offset %d: %w", it.pos, err),
	})
}

func (it *Iterator) fail(err *Error) error {
	it.state = stateErrored
	it.err = err
	it.release()
	return err
}

// release drops the buffer once no more records can be produced.
func (it *Iterator) release() {
	it.buf = nil
	it.pos, it.filled = 0, 0
}
