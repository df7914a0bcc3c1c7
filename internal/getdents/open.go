package getdents

import (
	"iter"

	"golang.org/x/sys/unix"

	"github.com/dl/godents/internal/dirent"
)

// OpenFlags are the flags Open uses for a directory that will only be read
// with getdents64.
const OpenFlags = unix.O_DIRECTORY | unix.O_RDONLY | unix.O_NONBLOCK | unix.O_CLOEXEC

// Dir is a directory opened by path. It owns its descriptor; iterators made by
// Iter borrow it and fail with KindBadHandle once Close has been called.
type Dir struct {
	h    *handle
	path string
}

// Open opens path for enumeration.
func Open(path string) (*Dir, error) {
	fd, err := unix.Open(path, OpenFlags, 0)
	if err != nil {
		return nil, wrapErr("open", path, err)
	}
	return &Dir{h: &handle{fd: fd}, path: path}, nil
}

// Path returns the path the directory was opened with.
func (d *Dir) Path() string {
	return d.path
}

// Fd returns the underlying descriptor, or -1 after Close.
func (d *Dir) Fd() int {
	if d.h.isClosed() {
		return -1
	}
	return d.h.fd
}

// Iter returns an Iterator over d with a size byte buffer.
func (d *Dir) Iter(size int) (*Iterator, error) {
	return newIterator(d.h, d.path, size, nil)
}

// IterBuffer is Iter reading into buf instead of a fresh allocation, so one
// buffer can serve a series of directories. The Iterator owns buf until it
// reports io.EOF or an error, or is abandoned.
func (d *Dir) IterBuffer(buf []byte) (*Iterator, error) {
	return newIterator(d.h, d.path, len(buf), buf)
}

// Resolve stats name inside d, without following symlinks, to find its type.
func (d *Dir) Resolve(name string) (dirent.Type, error) {
	var stat unix.Stat_t
	if err := d.h.fstatat(name, &stat); err != nil {
		return dirent.DT_UNKNOWN, wrapErr("fstatat", name, err)
	}
	return dirent.ModeType(stat.Mode), nil
}

// Close releases the descriptor. Calling it more than once is a no-op.
func (d *Dir) Close() error {
	released, err := d.h.close()
	if released && err != nil {
		return wrapErr("close", d.path, err)
	}
	return nil
}

// ListOptions configures List.
type ListOptions struct {
	// BufferSize is the getdents buffer size; zero means DefaultBufferSize.
	BufferSize int
	// Keep, when set, drops every entry it returns false for.
	Keep func(dirent.Entry) bool
	// ResolveUnknown stats DT_UNKNOWN entries before Keep sees them.
	ResolveUnknown bool
}

// List opens path, yields its entries and closes the descriptor however the
// sequence ends: exhausted, failed or abandoned by the consumer. The buffer
// size is validated before the path is opened.
func List(path string, opts ListOptions) iter.Seq2[dirent.Entry, error] {
	size := opts.BufferSize
	if size == 0 {
		size = DefaultBufferSize
	}

	return func(yield func(dirent.Entry, error) bool) {
		if err := checkSize(path, size); err != nil {
			yield(dirent.Entry{}, err)
			return
		}

		d, err := Open(path)
		if err != nil {
			yield(dirent.Entry{}, err)
			return
		}
		defer d.Close()

		it, err := d.Iter(size)
		if err != nil {
			yield(dirent.Entry{}, err)
			return
		}

		for e, err := range it.All() {
			if err != nil {
				yield(dirent.Entry{}, err)
				return
			}
			if opts.ResolveUnknown && e.Type == dirent.DT_UNKNOWN {
				if typ, err := d.Resolve(e.Name); err == nil {
					e.Type = typ
				}
			}
			if opts.Keep != nil && !opts.Keep(e) {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}
