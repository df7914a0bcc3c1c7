package filter

import (
	"sync"

	"go.elara.ws/pcre"

	"github.com/dl/godents/internal/dirent"
)

// PatternFilter keeps entries whose name matches a PCRE2-compatible regex via
// the pure Go pcre package.
type PatternFilter struct {
	mu     sync.Mutex
	re     *pcre.Regexp
	invert bool
}

// Pattern compiles expr. With invert set, matching names are dropped instead.
func Pattern(expr string, ignoreCase bool, invert bool) (*PatternFilter, error) {
	var opts pcre.CompileOption
	if ignoreCase {
		opts |= pcre.Caseless
	}

	re, err := pcre.CompileOpts(expr, opts)
	if err != nil {
		return nil, err
	}
	return &PatternFilter{re: re, invert: invert}, nil
}

// Keep is the filter Func.
func (p *PatternFilter) Keep(e dirent.Entry) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.re.Match([]byte(e.Name)) != p.invert
}

// Close releases the compiled PCRE regex resources.
func (p *PatternFilter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.re != nil {
		p.re.Close()
		p.re = nil
	}
}
