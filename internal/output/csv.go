package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/dl/godents/internal/dirent"
)

// CSVHeader is the header row written by the csv-headers format.
var CSVHeader = []string{"inode", "type", "name"}

// CSVFormatter writes inode,type,name rows with CRLF line endings.
type CSVFormatter struct {
	header bool
	out    bytes.Buffer
	w      *csv.Writer
	rec    [3]string
}

// NewCSVFormatter creates a CSVFormatter. With header set, a header row
// precedes the first entry.
func NewCSVFormatter(header bool) *CSVFormatter {
	f := &CSVFormatter{header: header}
	f.w = csv.NewWriter(&f.out)
	f.w.UseCRLF = true
	return f
}

func (f *CSVFormatter) Begin(buf []byte) []byte {
	if !f.header {
		return buf
	}
	return f.row(buf, CSVHeader)
}

func (f *CSVFormatter) Format(buf []byte, e dirent.Entry, _ int) []byte {
	f.rec[0] = strconv.FormatUint(e.Ino, 10)
	f.rec[1] = e.Type.String()
	f.rec[2] = e.Name
	return f.row(buf, f.rec[:])
}

func (f *CSVFormatter) End(buf []byte) []byte { return buf }

// row encodes one record through the csv writer. Writes into a
// bytes.Buffer cannot fail.
func (f *CSVFormatter) row(buf []byte, rec []string) []byte {
	f.out.Reset()
	f.w.Write(rec)
	f.w.Flush()
	return append(buf, f.out.Bytes()...)
}

var _ Formatter = (*CSVFormatter)(nil)
