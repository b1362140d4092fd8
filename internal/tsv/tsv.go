// Package tsv reads and writes the tab-separated tables exchanged between
// the build and serve steps.
package tsv

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNoColumn is returned when a required column is absent from the header
var ErrNoColumn = errors.New("column not found")

// Reader yields rows addressed by header name
type Reader struct {
	csv    *csv.Reader
	header []string
	index  map[string]int
	line   int
}

// NewReader consumes the header row of r. A leading '#' on the header (as
// in BioGRID tab3 files) is ignored.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty table: no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
		header[0] = strings.TrimPrefix(header[0], "#")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		header[i] = h
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	return &Reader{csv: cr, header: header, index: index, line: 1}, nil
}

// Header returns the column names in file order
func (r *Reader) Header() []string {
	return r.header
}

// Column resolves the first of names present in the header
func (r *Reader) Column(names ...string) (int, error) {
	for _, n := range names {
		if i, ok := r.index[n]; ok {
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrNoColumn, "%s", strings.Join(names, " | "))
}

// Next returns the next record, io.EOF at the end. Short records are padded
// with empty fields so column lookups never go out of range.
func (r *Reader) Next() ([]string, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Wrapf(err, "read line %d", r.line+1)
	}
	r.line++
	for len(record) < len(r.header) {
		record = append(record, "")
	}
	return record, nil
}

// Line is the 1-based line number of the last record returned
func (r *Reader) Line() int {
	return r.line
}

// Writer writes a header then rows
type Writer struct {
	csv *csv.Writer
}

// NewWriter writes header immediately
func NewWriter(w io.Writer, header ...string) (*Writer, error) {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(header); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	return &Writer{csv: cw}, nil
}

// Write appends one row
func (w *Writer) Write(values ...string) error {
	return errors.Wrap(w.csv.Write(values), "write row")
}

// Flush flushes buffered rows and reports any write error
func (w *Writer) Flush() error {
	w.csv.Flush()
	return errors.Wrap(w.csv.Error(), "flush")
}

// Open opens path for reading, transparently decompressing ".gz" files
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "open gzip %s", filepath.Base(path))
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	return errors.CombineErrors(g.Reader.Close(), g.file.Close())
}

// WriteFile creates path atomically: fill is given a writer for a temp file
// in the same directory, which is renamed over path only on success.
func WriteFile(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrapf(err, "close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return errors.Wrapf(err, "rename into %s", path)
	}
	return nil
}
