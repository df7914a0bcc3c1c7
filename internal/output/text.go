package output

import "github.com/dl/godents/internal/dirent"

// TextFormatter prints one name per line, optionally colored by type.
type TextFormatter struct {
	styles *Styles
}

// NewTextFormatter creates a TextFormatter. styles may be nil.
func NewTextFormatter(styles *Styles) *TextFormatter {
	return &TextFormatter{styles: styles}
}

func (f *TextFormatter) Begin(buf []byte) []byte { return buf }
func (f *TextFormatter) End(buf []byte) []byte   { return buf }

func (f *TextFormatter) Format(buf []byte, e dirent.Entry, _ int) []byte {
	if f.styles != nil {
		if st, ok := f.styles.For(e.Type); ok {
			buf = append(buf, st.Render(e.Name)...)
			return append(buf, '\n')
		}
	}
	buf = append(buf, e.Name...)
	return append(buf, '\n')
}

var _ Formatter = (*TextFormatter)(nil)
