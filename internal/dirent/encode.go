package dirent

import (
	"encoding/binary"

	"golang.org/x/exp/constraints"
)

func align[I constraints.Integer](a, b I) I {
	return (a + b - 1) &^ (b - 1)
}

// RecordLen returns the d_reclen the kernel uses for a name of nameLen bytes.
func RecordLen(nameLen int) int {
	return align(HeaderSize+nameLen+1, recordAlign)
}

// AppendRecord appends e to buf in linux_dirent64 layout: NUL terminated name,
// zero padding up to the record alignment, d_off set to the end offset of the
// record within buf.
func AppendRecord(buf []byte, e Entry) []byte {
	start := len(buf)
	reclen := RecordLen(len(e.Name))

	buf = append(buf, make([]byte, reclen)...)
	rec := buf[start:]

	binary.NativeEndian.PutUint64(rec[offIno:], e.Ino)
	binary.NativeEndian.PutUint64(rec[offOff:], uint64(start+reclen))
	binary.NativeEndian.PutUint16(rec[offReclen:], uint16(reclen))
	rec[offType] = byte(e.Type)
	copy(rec[offName:], e.Name)
	return buf
}
