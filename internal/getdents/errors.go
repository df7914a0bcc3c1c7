package getdents

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/dl/godents/internal/dirent"
)

// Kind classifies an enumeration failure.
type Kind uint8

const (
	KindOther      Kind = iota // Unclassified OS failure.
	KindConfig                 // Buffer size rejected.
	KindAlloc                  // Buffer cannot be allocated.
	KindNotExist               // Path does not exist.
	KindNotDir                 // Handle or path is not a directory.
	KindBadHandle              // Handle is invalid or already closed.
	KindPermission             // Permission denied.
	KindCorrupt                // Kernel buffer failed validation.
)

var kindNames = [...]string{
	KindOther:      "os error",
	KindConfig:     "invalid buffer size",
	KindAlloc:      "cannot allocate buffer",
	KindNotExist:   "no such file or directory",
	KindNotDir:     "not a directory",
	KindBadHandle:  "bad file descriptor",
	KindPermission: "permission denied",
	KindCorrupt:    "corrupt dirent buffer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown error"
}

// Error describes a failed enumeration step.
type Error struct {
	Op   string // failing call, e.g. "getdents64"
	Path string // empty when only a descriptor is known
	Kind Kind
	Err  error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrOther      = &Error{Kind: KindOther}
	ErrConfig     = &Error{Kind: KindConfig}
	ErrAlloc      = &Error{Kind: KindAlloc}
	ErrNotExist   = &Error{Kind: KindNotExist}
	ErrNotDir     = &Error{Kind: KindNotDir}
	ErrBadHandle  = &Error{Kind: KindBadHandle}
	ErrPermission = &Error{Kind: KindPermission}
	ErrCorrupt    = &Error{Kind: KindCorrupt}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Path != "":
		return e.Op + " " + e.Path + ": " + msg
	case e.Op != "":
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindOther.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// errnoKind maps a system error to its Kind. EINVAL only means a rejected
// buffer for getdents64; elsewhere it stays unclassified.
func errnoKind(op string, err error) Kind {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		if errors.Is(err, dirent.ErrCorrupt) {
			return KindCorrupt
		}
		return KindOther
	}
	switch errno {
	case unix.ENOTDIR:
		return KindNotDir
	case unix.EBADF:
		return KindBadHandle
	case unix.EACCES, unix.EPERM:
		return KindPermission
	case unix.ENOMEM:
		return KindAlloc
	case unix.ENOENT:
		return KindNotExist
	case unix.EINVAL:
		if op == opGetdents {
			return KindConfig
		}
	}
	return KindOther
}

func wrapErr(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Kind: errnoKind(op, err), Err: err}
}
