package dirent

// Type is the d_type tag of a record. Values are passed through from the
// kernel unchanged, including ones not listed below.
type Type uint8

// File type constants from dirent.h
const (
	DT_UNKNOWN Type = 0
	DT_FIFO    Type = 1
	DT_CHR     Type = 2
	DT_DIR     Type = 4
	DT_BLK     Type = 6
	DT_REG     Type = 8
	DT_LNK     Type = 10
	DT_SOCK    Type = 12
)

var typeNames = map[Type]string{
	DT_BLK:     "blk",
	DT_CHR:     "chr",
	DT_DIR:     "dir",
	DT_FIFO:    "fifo",
	DT_LNK:     "lnk",
	DT_REG:     "reg",
	DT_SOCK:    "sock",
	DT_UNKNOWN: "unknown",
}

// String returns the short mnemonic used by the formatters. Tags outside the
// known set render as "unknown".
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Known reports whether t is one of the tags defined by dirent.h.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}
