package getdents

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/dl/godents/internal/dirent"
)

// openFds counts the descriptors this process holds.
func openFds(t *testing.T) int {
	t.Helper()
	ents, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("cannot count descriptors: %v", err)
	}
	return len(ents)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want *Error
	}{
		{"missing", filepath.Join(dir, "missing"), ErrNotExist},
		{"regular file", file, ErrNotDir},
		{"through a file", filepath.Join(file, "child"), ErrNotDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Open(tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Open(%q) error = %v, want kind %v", tt.path, err, tt.want.Kind)
			}
			if d != nil {
				t.Error("Open() returned a Dir on error")
			}
		})
	}
}

func TestOpen_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses directory permissions")
	}
	locked := filepath.Join(t.TempDir(), "locked")
	if err := os.Mkdir(locked, 0); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0755)

	_, err := Open(locked)
	if !errors.Is(err, ErrPermission) {
		t.Fatalf("Open() error = %v, want ErrPermission", err)
	}
}

func TestDir_CloseMidIteration(t *testing.T) {
	dir := t.TempDir()
	makeEntries(t, dir, 20)

	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	it, err := d.Iter(DefaultBufferSize)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := it.Next(); err != nil {
		t.Fatal(err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if d.Fd() != -1 {
		t.Errorf("Fd() after Close = %d, want -1", d.Fd())
	}

	_, err = it.Next()
	if !errors.Is(err, ErrBadHandle) {
		t.Fatalf("Next() after Close = %v, want ErrBadHandle", err)
	}
	if _, again := it.Next(); again != err {
		t.Errorf("Next() again = %v, want %v", again, err)
	}

	if _, err := d.Iter(DefaultBufferSize); !errors.Is(err, ErrBadHandle) {
		t.Errorf("Iter() after Close error = %v, want ErrBadHandle", err)
	}
}

func TestDir_Resolve(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "file"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("file", filepath.Join(dir, "link")); err != nil {
		t.Fatal(err)
	}

	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	tests := []struct {
		name string
		want dirent.Type
	}{
		{"file", dirent.DT_REG},
		{"sub", dirent.DT_DIR},
		{"link", dirent.DT_LNK},
		{".", dirent.DT_DIR},
	}
	for _, tt := range tests {
		got, err := d.Resolve(tt.name)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := d.Resolve("missing"); !errors.Is(err, ErrNotExist) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotExist", err)
	}
}

func TestDir_IterBuffer(t *testing.T) {
	buf := make([]byte, dirent.MinBufferSize)

	for _, names := range [][]string{{"a", "b", "c"}, {"d"}} {
		dir := t.TempDir()
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
				t.Fatal(err)
			}
		}

		d, err := Open(dir)
		if err != nil {
			t.Fatal(err)
		}
		it, err := d.IterBuffer(buf)
		if err != nil {
			t.Fatal(err)
		}
		if it.BufferSize() != len(buf) {
			t.Errorf("BufferSize() = %d, want %d", it.BufferSize(), len(buf))
		}

		var got []string
		for e, err := range it.All() {
			if err != nil {
				t.Fatal(err)
			}
			if e.Name != "." && e.Name != ".." {
				got = append(got, e.Name)
			}
		}
		d.Close()

		sort.Strings(got)
		if diff := pretty.Compare(got, names); diff != "" {
			t.Errorf("%s: entries differ (-got +want):\n%s", dir, diff)
		}
	}

	if !bytes.Contains(buf, []byte("d\x00")) {
		t.Error("records were not read into the supplied buffer")
	}
}

func TestDir_IterBuffer_TooSmall(t *testing.T) {
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if _, err := d.IterBuffer(make([]byte, dirent.MinBufferSize-1)); !errors.Is(err, ErrConfig) {
		t.Errorf("IterBuffer() error = %v, want ErrConfig", err)
	}
	if _, err := d.IterBuffer(nil); !errors.Is(err, ErrConfig) {
		t.Errorf("IterBuffer(nil) error = %v, want ErrConfig", err)
	}
}

func TestCheckBufferSize(t *testing.T) {
	tests := []struct {
		size int
		want *Error
	}{
		{dirent.MinBufferSize - 1, ErrConfig},
		{dirent.MinBufferSize, nil},
		{MaxBufferSize, nil},
	}
	for _, tt := range tests {
		err := CheckBufferSize(tt.size)
		if tt.want == nil {
			if err != nil {
				t.Errorf("CheckBufferSize(%d) = %v, want nil", tt.size, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("CheckBufferSize(%d) = %v, want kind %v", tt.size, err, tt.want.Kind)
		}
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	visible := func(e dirent.Entry) bool { return e.Name[0] != '.' }

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"unfiltered", ListOptions{}, []string{".", "..", ".hidden", "a", "b"}},
		{"keep", ListOptions{Keep: visible}, []string{"a", "b"}},
		{"min buffer", ListOptions{BufferSize: dirent.MinBufferSize, Keep: visible}, []string{"a", "b"}},
		{"resolve", ListOptions{ResolveUnknown: true, Keep: visible}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := openFds(t)
			var got []string
			for e, err := range List(dir, tt.opts) {
				if err != nil {
					t.Fatal(err)
				}
				got = append(got, e.Name)
			}
			sort.Strings(got)
			if diff := pretty.Compare(got, tt.want); diff != "" {
				t.Errorf("List() diff (-got +want):\n%s", diff)
			}
			if after := openFds(t); after != before {
				t.Errorf("descriptors: %d before, %d after", before, after)
			}
		})
	}
}

func TestList_ClosesOnBreak(t *testing.T) {
	dir := t.TempDir()
	makeEntries(t, dir, 10)

	before := openFds(t)
	for _, err := range List(dir, ListOptions{}) {
		if err != nil {
			t.Fatal(err)
		}
		break
	}
	if after := openFds(t); after != before {
		t.Errorf("descriptors: %d before, %d after", before, after)
	}
}

func TestList_BufferCheckedBeforeOpen(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	var errs []error
	for _, err := range List(missing, ListOptions{BufferSize: dirent.MinBufferSize - 1}) {
		errs = append(errs, err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrConfig) {
		t.Fatalf("List() errors = %v, want a single ErrConfig", errs)
	}
}

func TestList_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want *Error
	}{
		{filepath.Join(dir, "missing"), ErrNotExist},
		{file, ErrNotDir},
	}
	for _, tt := range tests {
		var got []error
		for _, err := range List(tt.path, ListOptions{}) {
			got = append(got, err)
		}
		if len(got) != 1 || !errors.Is(got[0], tt.want) {
			t.Errorf("List(%q) errors = %v, want single kind %v", tt.path, got, tt.want.Kind)
		}
	}
}
