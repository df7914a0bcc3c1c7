package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/dl/godents/internal/dirent"
)

// Styles holds the lipgloss styles used by the plain formatter, one per
// entry type group.
type Styles struct {
	Dir     lipgloss.Style
	Symlink lipgloss.Style
	Socket  lipgloss.Style
	Pipe    lipgloss.Style
	Device  lipgloss.Style
}

// NewStyles creates the default color styles rendering to w. Colors are
// always emitted; callers decide beforehand whether w wants them.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI)
	// Names are printed verbatim, tabs included.
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return Styles{
		Dir:     base.Foreground(lipgloss.Color("4")).Bold(true), // bold blue
		Symlink: base.Foreground(lipgloss.Color("6")),            // cyan
		Socket:  base.Foreground(lipgloss.Color("5")),            // magenta
		Pipe:    base.Foreground(lipgloss.Color("3")),            // yellow
		Device:  base.Foreground(lipgloss.Color("3")).Bold(true),
	}
}

// For picks the style for an entry type. Regular files and unknown types
// are left uncolored.
func (s *Styles) For(t dirent.Type) (lipgloss.Style, bool) {
	switch t {
	case dirent.DT_DIR:
		return s.Dir, true
	case dirent.DT_LNK:
		return s.Symlink, true
	case dirent.DT_SOCK:
		return s.Socket, true
	case dirent.DT_FIFO:
		return s.Pipe, true
	case dirent.DT_BLK, dirent.DT_CHR:
		return s.Device, true
	}
	return lipgloss.Style{}, false
}

// ColorModes lists the accepted --color values.
var ColorModes = []string{"auto", "always", "never"}

// UseColor resolves a --color mode against the output file descriptor.
func UseColor(mode string, fd uintptr) (bool, error) {
	switch mode {
	case "", "auto":
		return IsTerminal(fd), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	return false, fmt.Errorf("invalid color mode %q (want auto, always or never)", mode)
}

// IsTerminal reports whether fd refers to a terminal.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
