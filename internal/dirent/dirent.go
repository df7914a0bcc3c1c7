// Package dirent decodes the packed records that getdents64(2) writes into a
// caller-supplied buffer.
package dirent

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Linux dirent64 structure layout:
//
//	struct linux_dirent64 {
//	    ino64_t        d_ino;    /* 64-bit inode number */
//	    off64_t        d_off;    /* 64-bit offset to next structure */
//	    unsigned short d_reclen; /* Size of this dirent */
//	    unsigned char  d_type;   /* File type */
//	    char           d_name[]; /* Filename (null-terminated) */
//	};
const (
	offIno    = 0
	offOff    = 8
	offReclen = 16
	offType   = 18
	offName   = 19

	// HeaderSize is the size of the fixed part of a record, up to d_name.
	HeaderSize = offName

	// NameMax is the longest name a Linux filesystem hands out (NAME_MAX).
	NameMax = 255

	// MinBufferSize is the size of the largest record the kernel can emit:
	// header, NameMax name bytes and the terminating NUL, rounded up to the
	// 8 byte record alignment. getdents64 fails with EINVAL when the buffer
	// cannot hold the next record.
	MinBufferSize = (HeaderSize + NameMax + 1 + recordAlign - 1) &^ (recordAlign - 1)

	recordAlign = 8
)

// ErrCorrupt reports a record whose length fields do not fit the filled
// region of the buffer.
var ErrCorrupt = errors.New("corrupt dirent buffer")

// Entry is a single parsed directory entry. Ino is zero for slots that no
// longer designate a live file; those are reported as-is.
type Entry struct {
	Ino  uint64
	Type Type
	Name string
}

// Parse decodes the record at the start of buf. It returns the entry and the
// number of bytes the record occupies (d_reclen). buf must be limited to the
// filled part of the getdents buffer.
func Parse(buf []byte) (Entry, int, error) {
	if len(buf) < HeaderSize {
		return Entry{}, 0, fmt.Errorf("%w: %d trailing bytes, header needs %d", ErrCorrupt, len(buf), HeaderSize)
	}

	reclen := int(binary.NativeEndian.Uint16(buf[offReclen:]))
	if reclen <= HeaderSize {
		// also catches reclen == 0, which would never advance the cursor
		return Entry{}, 0, fmt.Errorf("%w: record length %d", ErrCorrupt, reclen)
	}
	if reclen > len(buf) {
		return Entry{}, 0, fmt.Errorf("%w: record length %d exceeds %d remaining bytes", ErrCorrupt, reclen, len(buf))
	}

	name := buf[offName:reclen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	return Entry{
		Ino:  binary.NativeEndian.Uint64(buf[offIno:]),
		Type: Type(buf[offType]),
		Name: internName(name),
	}, reclen, nil
}

// ParseDirents parses raw getdents64 output into entries.
// buf must contain the raw bytes returned by unix.Getdents and n the count it
// returned. dst is reused to avoid per-call slice allocation; pass nil on first
// call. On a corrupt record the entries decoded so far are returned together
// with the error.
func ParseDirents(buf []byte, n int, dst []Entry) ([]Entry, error) {
	entries := dst[:0]
	if n > len(buf) {
		return entries, fmt.Errorf("%w: filled count %d exceeds buffer of %d", ErrCorrupt, n, len(buf))
	}

	for offset := 0; offset < n; {
		e, reclen, err := Parse(buf[offset:n])
		if err != nil {
			return entries, fmt.Errorf("offset %d: %w", offset, err)
		}
		entries = append(entries, e)
		offset += reclen
	}
	return entries, nil
}

// internName avoids allocating for the two names every directory has.
func internName(b []byte) string {
	switch string(b) {
	case ".":
		return "."
	case "..":
		return ".."
	}
	return string(b)
}
