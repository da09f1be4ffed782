// Package csv implements a streaming CSV record reader. It never buffers the
// whole file: records are produced one at a time through an iterator, each
// carrying its source line number and header-keyed access to its cells.
//
// Input starting with a byte order mark is decoded accordingly: a UTF-8 BOM
// is dropped and UTF-16 input (as some spreadsheet exports produce) is
// converted to UTF-8. Header names are then trimmed and converted to Unicode
// NFC, and an optional HeaderMap renames source headers to canonical keys.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options configures the reader. The zero value reads comma-separated input
// without trimming.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing white space from each cell.
	TrimSpace bool

	// LazyQuotes relaxes quote handling (csv.Reader.LazyQuotes).
	LazyQuotes bool

	// HeaderMap maps normalised source header names to canonical keys.
	HeaderMap map[string]string
}

// Record is one data row. It is safe to retain after the iterator advances.
type Record struct {
	// Line is the 1-based line on which the record starts.
	Line int

	fields []string
	index  map[string]int
	comma  rune
}

// Get returns the cell under column and whether the column exists.
func (r Record) Get(column string) (string, bool) {
	i, ok := r.index[column]
	if !ok || i >= len(r.fields) {
		return "", false
	}
	return r.fields[i], true
}

// Map returns the record as column -> value.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.index))
	for k, i := range r.index {
		if i < len(r.fields) {
			m[k] = r.fields[i]
		}
	}
	return m
}

// Fields returns the cells in file order.
func (r Record) Fields() []string { return r.fields }

// Raw re-joins the cells with the reader's delimiter. It is meant for
// diagnostics and does not re-quote.
func (r Record) Raw() string {
	sep := ","
	if r.comma != 0 {
		sep = string(r.comma)
	}
	return strings.Join(r.fields, sep)
}

// Reader streams records from an underlying io.Reader.
type Reader struct {
	cr     *csv.Reader
	opt    Options
	header []string
	index  map[string]int
}

// NewReader reads and normalises the header row. An input without a header
// is an error.
func NewReader(r io.Reader, opt Options) (*Reader, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.ReuseRecord = true
	// FieldsPerRecord stays 0: every row must match the header width.

	h, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv header: empty input")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header := normalizeHeaders(h, opt)
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	return &Reader{cr: cr, opt: opt, header: header, index: index}, nil
}

// Header returns the normalised header names.
func (r *Reader) Header() []string { return r.header }

// HasColumn reports whether the header contains name.
func (r *Reader) HasColumn(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Records returns a single-use iterator over the data rows. The first read
// error (including a row whose width differs from the header) is yielded
// once and ends the sequence.
func (r *Reader) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			row, err := r.cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Record{}, fmt.Errorf("parse csv: %w", err))
				return
			}
			line, _ := r.cr.FieldPos(0)

			fields := make([]string, len(row))
			for i, v := range row {
				if r.opt.TrimSpace {
					v = strings.TrimSpace(v)
				}
				fields[i] = v
			}
			rec := Record{Line: line, fields: fields, index: r.index, comma: r.cr.Comma}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// normalizeHeaders trims and NFC-normalises every name and applies HeaderMap.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := norm.NFC.String(strings.TrimSpace(col))
		if m, ok := opt.HeaderMap[c]; ok {
			c = m
		}
		res[i] = c
	}
	return res
}
