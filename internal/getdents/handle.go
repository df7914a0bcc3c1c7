package getdents

import (
	"sync"

	"golang.org/x/sys/unix"
)

// sysGetdents is replaced in tests to feed synthetic kernel output.
var sysGetdents = unix.Getdents

// handle is a directory descriptor shared by a Dir and its iterators.
// Close waits for in-flight system calls so the descriptor number is never
// used after it has been released to the kernel.
type handle struct {
	mu     sync.RWMutex // held for reading across system calls on fd
	fd     int
	closed bool
}

func (h *handle) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

func (h *handle) getdents(buf []byte) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0, unix.EBADF
	}
	return sysGetdents(h.fd, buf)
}

func (h *handle) fstat(stat *unix.Stat_t) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return unix.EBADF
	}
	return unix.Fstat(h.fd, stat)
}

func (h *handle) fstatat(name string, stat *unix.Stat_t) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return unix.EBADF
	}
	return unix.Fstatat(h.fd, name, stat, unix.AT_SYMLINK_NOFOLLOW)
}

// close releases fd once. It reports whether this call did the release.
func (h *handle) close() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false, nil
	}
	h.closed = true
	return true, unix.Close(h.fd)
}
