package dirent

import "golang.org/x/sys/unix"

// ModeType maps the S_IFMT bits of a stat mode to a d_type tag. Filesystems
// that leave d_type as DT_UNKNOWN need an fstatat(2) and this mapping.
func ModeType(mode uint32) Type {
	switch mode & unix.S_IFMT {
	case unix.S_IFIFO:
		return DT_FIFO
	case unix.S_IFCHR:
		return DT_CHR
	case unix.S_IFDIR:
		return DT_DIR
	case unix.S_IFBLK:
		return DT_BLK
	case unix.S_IFREG:
		return DT_REG
	case unix.S_IFLNK:
		return DT_LNK
	case unix.S_IFSOCK:
		return DT_SOCK
	}
	return DT_UNKNOWN
}
