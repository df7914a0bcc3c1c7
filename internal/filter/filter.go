// Package filter holds predicates over directory entries. A predicate never
// changes how entries are read; it only decides which ones a caller keeps.
package filter

import "github.com/dl/godents/internal/dirent"

// Func reports whether an entry should be kept.
type Func func(dirent.Entry) bool

// NotDots drops "." and "..".
func NotDots(e dirent.Entry) bool {
	return e.Name != "." && e.Name != ".."
}

// Visible drops names starting with a dot.
func Visible(e dirent.Entry) bool {
	return len(e.Name) == 0 || e.Name[0] != '.'
}

// LSA keeps what `ls -A` would show: everything except "." and "..", deleted
// slots (inode 0) and entries whose type the kernel did not report.
func LSA(e dirent.Entry) bool {
	return NotDots(e) && e.Ino != 0 && e.Type != dirent.DT_UNKNOWN
}

// LS is LSA without hidden entries.
func LS(e dirent.Entry) bool {
	return LSA(e) && Visible(e)
}

// And keeps an entry only if every non-nil predicate keeps it.
func And(fs ...Func) Func {
	var active []Func
	for _, f := range fs {
		if f != nil {
			active = append(active, f)
		}
	}
	switch len(active) {
	case 0:
		return func(dirent.Entry) bool { return true }
	case 1:
		return active[0]
	}
	return func(e dirent.Entry) bool {
		for _, f := range active {
			if !f(e) {
				return false
			}
		}
		return true
	}
}
