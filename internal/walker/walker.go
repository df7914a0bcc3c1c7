// Package walker enumerates directory trees in parallel on top of the
// getdents iterator.
package walker

import (
	"context"
	"iter"
	"runtime"
	"strings"
	"sync"

	"github.com/dl/godents/internal/dirent"
	"github.com/dl/godents/internal/filter"
	"github.com/dl/godents/internal/getdents"
)

// Item is an entry discovered during traversal.
type Item struct {
	Dir   string
	Entry dirent.Entry
}

// Path returns the entry's path, joined onto the directory it was read from.
func (it Item) Path() string {
	return joinPath(it.Dir, it.Entry.Name)
}

// Options configures directory traversal behavior.
type Options struct {
	BufferSize     int  // getdents buffer size, one per worker; 0 means default
	NoIgnore       bool // skip .gitignore processing
	Hidden         bool // include hidden files and directories
	ResolveUnknown bool // report the fstatat type of DT_UNKNOWN entries
	Workers        int  // 0 means runtime.NumCPU()

	// Keep selects which entries are sent. It does not affect descent.
	Keep filter.Func
}

// Walk traverses roots and sends every discovered entry on the returned
// channel. Both channels are closed once traversal ends or ctx is done;
// callers must drain errors concurrently with items.
//
// Dot entries, zero inodes and VCS directories are never reported. Hidden
// entries and .gitignore matches are skipped unless opts say otherwise.
// Symlinks are reported but not followed. DT_UNKNOWN entries are always
// stat'ed to decide descent; ResolveUnknown only changes the reported type.
//
// An unusable BufferSize fails every root with the getdents error for it.
func Walk(ctx context.Context, roots []string, opts Options) (<-chan Item, <-chan error) {
	itemCh := make(chan Item, 256)
	errCh := make(chan error, 16)

	go func() {
		defer close(itemCh)
		defer close(errCh)

		size := opts.BufferSize
		if size == 0 {
			size = getdents.DefaultBufferSize
		}

		pw := &parallelWalker{
			ctx:     ctx,
			itemCh:  itemCh,
			errCh:   errCh,
			size:    size,
			hidden:  opts.Hidden,
			resolve: opts.ResolveUnknown,
			keep:    opts.Keep,
		}
		pw.cond = sync.NewCond(&pw.mu)

		if err := getdents.CheckBufferSize(size); err != nil {
			for _, root := range roots {
				pw.fail(root, err)
			}
			return
		}

		// Seed work queue with root directories.
		for _, root := range roots {
			var layers []filter.IgnoreLayer
			if !opts.NoIgnore {
				layers = []filter.IgnoreLayer{}
				if l := filter.LoadIgnoreLayer(root); !l.Empty() {
					layers = append(layers, l)
				}
			}
			pw.enqueue(walkItem{path: root, ignores: layers})
		}
		if len(roots) == 0 {
			return
		}

		workers := opts.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				pw.worker()
			}()
		}

		// Wake idle workers on cancellation.
		stop := context.AfterFunc(ctx, func() {
			pw.mu.Lock()
			pw.done = true
			pw.queue = nil
			pw.mu.Unlock()
			pw.cond.Broadcast()
		})
		wg.Wait()
		stop()
	}()

	return itemCh, errCh
}

// walkItem represents a directory to be traversed by a worker.
type walkItem struct {
	path    string
	ignores []filter.IgnoreLayer // nil if --no-ignore
}

// parallelWalker coordinates concurrent BFS directory traversal.
type parallelWalker struct {
	ctx     context.Context
	itemCh  chan<- Item
	errCh   chan<- error
	size    int
	hidden  bool
	resolve bool
	keep    filter.Func

	mu      sync.Mutex
	queue   []walkItem
	pending int        // dirs enqueued but not yet fully processed
	cond    *sync.Cond // signaled when items are enqueued or work is done
	done    bool
}

// enqueue adds a directory to the work queue.
func (pw *parallelWalker) enqueue(item walkItem) {
	pw.mu.Lock()
	if pw.done {
		pw.mu.Unlock()
		return
	}
	pw.queue = append(pw.queue, item)
	pw.pending++
	pw.mu.Unlock()
	pw.cond.Signal()
}

// dequeue retrieves a work item, blocking if the queue is temporarily empty.
// Returns false when all work is complete.
func (pw *parallelWalker) dequeue() (walkItem, bool) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	for len(pw.queue) == 0 && !pw.done {
		pw.cond.Wait()
	}
	if len(pw.queue) == 0 {
		return walkItem{}, false
	}
	item := pw.queue[0]
	pw.queue = pw.queue[1:]
	return item, true
}

// finish marks a directory as fully processed.
func (pw *parallelWalker) finish() {
	pw.mu.Lock()
	pw.pending--
	if pw.pending == 0 && len(pw.queue) == 0 {
		pw.done = true
		pw.cond.Broadcast()
	}
	pw.mu.Unlock()
}

func (pw *parallelWalker) worker() {
	buf := make([]byte, pw.size)
	for {
		item, ok := pw.dequeue()
		if !ok {
			return
		}
		pw.processDir(item, buf)
		pw.finish()
	}
}

func (pw *parallelWalker) send(it Item) bool {
	select {
	case pw.itemCh <- it:
		return true
	case <-pw.ctx.Done():
		return false
	}
}

func (pw *parallelWalker) fail(path string, err error) {
	select {
	case pw.errCh <- &WalkError{Path: path, Err: err}:
	case <-pw.ctx.Done():
	}
}

// readDir streams the entries of d through buf.
var readDir = func(d *getdents.Dir, buf []byte) (iter.Seq2[dirent.Entry, error], error) {
	it, err := d.IterBuffer(buf)
	if err != nil {
		return nil, err
	}
	return it.All(), nil
}

// processDir lists one directory through the worker's buffer, sends what
// passes the filters and queues its subdirectories. The descriptor is closed
// before any subdirectory is queued.
func (pw *parallelWalker) processDir(item walkItem, buf []byte) {
	d, err := getdents.Open(item.path)
	if err != nil {
		pw.fail(item.path, err)
		return
	}

	var subdirs []walkItem
	entries, err := readDir(d, buf)
	if err != nil {
		d.Close()
		pw.fail(item.path, err)
		return
	}

	for e, err := range entries {
		if err != nil {
			pw.fail(item.path, err)
			break
		}
		if !filter.NotDots(e) || e.Ino == 0 {
			continue
		}

		typ := e.Type
		if typ == dirent.DT_UNKNOWN {
			t, err := d.Resolve(e.Name)
			if err != nil {
				pw.fail(joinPath(item.path, e.Name), err)
			}
			typ = t
			if pw.resolve {
				e.Type = t
			}
		}

		isDir := typ == dirent.DT_DIR
		if isDir && skipDir(e.Name, pw.hidden) {
			continue
		}
		if !pw.hidden && !filter.Visible(e) {
			continue
		}

		fullPath := joinPath(item.path, e.Name)
		if item.ignores != nil && filter.IgnoredByLayers(item.ignores, fullPath, isDir) {
			continue
		}

		if pw.keep == nil || pw.keep(e) {
			if !pw.send(Item{Dir: item.path, Entry: e}) {
				break
			}
		}

		if isDir {
			// Child ignore layers: parent's plus this dir's .gitignore.
			var childIgnores []filter.IgnoreLayer
			if item.ignores != nil {
				childIgnores = item.ignores
				if l := filter.LoadIgnoreLayer(fullPath); !l.Empty() {
					childIgnores = append(childIgnores[:len(childIgnores):len(childIgnores)], l)
				}
			}
			subdirs = append(subdirs, walkItem{path: fullPath, ignores: childIgnores})
		}
	}

	d.Close()

	if pw.ctx.Err() != nil {
		return
	}
	for _, sub := range subdirs {
		pw.enqueue(sub)
	}
}

// joinPath puts name under dir. A getdents name never holds a slash, so
// there is nothing to clean.
func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// vcsDirs are left alone even when hidden directories are entered.
var vcsDirs = map[string]bool{".git": true, ".hg": true, ".svn": true}

func skipDir(name string, hidden bool) bool {
	return vcsDirs[name] || (!hidden && strings.HasPrefix(name, "."))
}

// WalkError carries the directory, or the entry for a failed fstatat, that a
// traversal failure happened at.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return "walk " + e.Path + ": " + e.Err.Error()
}

func (e *WalkError) Unwrap() error {
	return e.Err
}
