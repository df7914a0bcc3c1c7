package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dl/godents/internal/dirent"
)

func TestIgnoreLayers_BasicMatching(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\nbuild/\n!important.log\n"), 0644)

	layers := []IgnoreLayer{LoadIgnoreLayer(dir)}

	tests := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{"matches glob", filepath.Join(dir, "app.log"), false, true},
		{"no match", filepath.Join(dir, "app.txt"), false, false},
		{"dir pattern matches dir", filepath.Join(dir, "build"), true, true},
		{"dir pattern skips file", filepath.Join(dir, "build"), false, false},
		{"negation", filepath.Join(dir, "important.log"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IgnoredByLayers(layers, tt.path, tt.isDir)
			if got != tt.want {
				t.Errorf("IgnoredByLayers(%q, isDir=%v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
			}
		})
	}
}

func TestIgnoreLayers_Nested(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	os.Mkdir(sub, 0755)

	os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.tmp\n"), 0644)
	os.WriteFile(filepath.Join(sub, ".gitignore"), []byte("*.dat\n"), 0644)

	layers := []IgnoreLayer{LoadIgnoreLayer(root), LoadIgnoreLayer(sub + "/")}

	// Root rule applies
	if !IgnoredByLayers(layers, filepath.Join(root, "test.tmp"), false) {
		t.Error("expected root .gitignore to match *.tmp")
	}

	// Sub rule applies
	if !IgnoredByLayers(layers, filepath.Join(sub, "test.dat"), false) {
		t.Error("expected sub .gitignore to match *.dat")
	}

	// Neither matches
	if IgnoredByLayers(layers, filepath.Join(sub, "test.txt"), false) {
		t.Error("expected test.txt to not be ignored")
	}
}

func TestIgnoreLayers_NoGitignore(t *testing.T) {
	dir := t.TempDir()
	layer := LoadIgnoreLayer(dir)
	if !layer.Empty() {
		t.Fatal("expected empty layer without .gitignore")
	}

	if IgnoredByLayers([]IgnoreLayer{layer}, filepath.Join(dir, "anything.txt"), false) {
		t.Error("expected no ignoring when .gitignore doesn't exist")
	}
}

func TestGitignore(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\nbuild/\n"), 0644)

	keep := Gitignore(dir)
	tests := []struct {
		e    dirent.Entry
		want bool
	}{
		{dirent.Entry{Ino: 1, Type: dirent.DT_REG, Name: "app.log"}, false},
		{dirent.Entry{Ino: 2, Type: dirent.DT_REG, Name: "main.go"}, true},
		{dirent.Entry{Ino: 3, Type: dirent.DT_DIR, Name: "build"}, false},
		{dirent.Entry{Ino: 4, Type: dirent.DT_REG, Name: "build"}, true},
		{dirent.Entry{Ino: 5, Type: dirent.DT_DIR, Name: "."}, true},
	}
	for _, tt := range tests {
		if got := keep(tt.e); got != tt.want {
			t.Errorf("Gitignore keep(%q, %v) = %v, want %v", tt.e.Name, tt.e.Type, got, tt.want)
		}
	}

	if !Gitignore(t.TempDir())(dirent.Entry{Name: "x.log"}) {
		t.Error("filter without .gitignore dropped an entry")
	}
}

func TestIgnoreLayer_MatchesDirectoryRule(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("out/\n"), 0644)

	l := LoadIgnoreLayer(dir + "/")
	if l.Empty() {
		t.Fatal("layer with a trailing-slash dir is empty")
	}
	if !l.Matches(filepath.Join(dir, "out"), true) {
		t.Error("directory out not ignored")
	}
	if l.Matches(filepath.Join(dir, "out"), false) {
		t.Error("file out ignored by a directory-only rule")
	}
	if (IgnoreLayer{Dir: dir}).Matches(filepath.Join(dir, "out"), true) {
		t.Error("empty layer matched")
	}
}
