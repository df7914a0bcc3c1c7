package filter

import (
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/dl/godents/internal/dirent"
)

// IgnoreLayer holds the .gitignore rules of one directory. The compiled
// parser is immutable and may be shared across goroutines.
type IgnoreLayer struct {
	Dir    string
	parser *ignore.GitIgnore
}

// Empty reports whether the layer has no rules.
func (l IgnoreLayer) Empty() bool {
	return l.parser == nil
}

// LoadIgnoreLayer compiles dir/.gitignore. A directory without one, or with
// one that cannot be read, gives an empty layer.
func LoadIgnoreLayer(dir string) IgnoreLayer {
	parser, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return IgnoreLayer{Dir: dir}
	}
	return IgnoreLayer{Dir: dir, parser: parser}
}

// Matches reports whether the layer's rules ignore path. Directories are
// matched with a trailing slash so "build/" rules apply to them only.
func (l IgnoreLayer) Matches(path string, isDir bool) bool {
	if l.parser == nil {
		return false
	}
	rel, err := filepath.Rel(l.Dir, path)
	if err != nil {
		return false
	}
	if isDir {
		rel += "/"
	}
	return l.parser.MatchesPath(rel)
}

// IgnoredByLayers is true when any of layers, outermost first, ignores path.
func IgnoredByLayers(layers []IgnoreLayer, path string, isDir bool) bool {
	for _, l := range layers {
		if l.Matches(path, isDir) {
			return true
		}
	}
	return false
}

// Gitignore drops entries of dir matched by dir/.gitignore. Without a
// .gitignore every entry is kept.
func Gitignore(dir string) Func {
	layer := LoadIgnoreLayer(dir)
	if layer.Empty() {
		return func(dirent.Entry) bool { return true }
	}
	layers := []IgnoreLayer{layer}
	return func(e dirent.Entry) bool {
		if !NotDots(e) {
			return true
		}
		return !IgnoredByLayers(layers, filepath.Join(dir, e.Name), e.Type == dirent.DT_DIR)
	}
}
