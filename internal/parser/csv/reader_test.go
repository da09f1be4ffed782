package csv

import (
	"encoding/csv"
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func collect(t *testing.T, r *Reader) ([]Record, error) {
	t.Helper()
	var out []Record
	for rec, err := range r.Records() {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func TestReader_Basic(t *testing.T) {
	t.Parallel()

	in := "id,name,description,mcc-code\n1,Food,Groceries,5411\n2,Fuel,,5541\n"
	r, err := NewReader(strings.NewReader(in), Options{TrimSpace: true})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if got, want := r.Header(), []string{"id", "name", "description", "mcc-code"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("header = %v, want %v", got, want)
	}
	recs, err := collect(t, r)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Line != 2 || recs[1].Line != 3 {
		t.Fatalf("lines = %d,%d; want 2,3", recs[0].Line, recs[1].Line)
	}
	if v, ok := recs[1].Get("mcc-code"); !ok || v != "5541" {
		t.Fatalf("Get(mcc-code) = %q, %v", v, ok)
	}
	if v, ok := recs[1].Get("description"); !ok || v != "" {
		t.Fatalf("Get(description) = %q, %v; want empty, true", v, ok)
	}
	if _, ok := recs[0].Get("missing"); ok {
		t.Fatalf("Get(missing) reported present")
	}
	want := map[string]string{"id": "1", "name": "Food", "description": "Groceries", "mcc-code": "5411"}
	if got := recs[0].Map(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Map = %v, want %v", got, want)
	}
}

func TestReader_HeaderNormalisation(t *testing.T) {
	t.Parallel()

	// BOM, padding, decomposed "é" (e + U+0301), and a mapped name.
	in := "\uFEFF id , cafe\u0301 ,MCC\nx,y,z\n"
	r, err := NewReader(strings.NewReader(in), Options{HeaderMap: map[string]string{"MCC": "mcc-code"}})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	want := []string{"id", "caf\u00e9", "mcc-code"}
	if got := r.Header(); !reflect.DeepEqual(got, want) {
		t.Fatalf("header = %q, want %q", got, want)
	}
	if !r.HasColumn("mcc-code") || r.HasColumn("MCC") {
		t.Fatalf("HasColumn does not reflect the mapped header")
	}
}

func TestReader_TrimSpaceOptional(t *testing.T) {
	t.Parallel()

	in := "a,b\n  1 , x \n"
	for _, trim := range []bool{true, false} {
		r, err := NewReader(strings.NewReader(in), Options{TrimSpace: trim})
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		recs, err := collect(t, r)
		if err != nil || len(recs) != 1 {
			t.Fatalf("records = %v, %v", recs, err)
		}
		got, _ := recs[0].Get("a")
		want := "  1 "
		if trim {
			want = "1"
		}
		if got != want {
			t.Fatalf("trim=%v: a = %q, want %q", trim, got, want)
		}
	}
}

// TestReader_MultilineLineNumbers checks Line is where the record starts
// when an earlier field spans lines.
func TestReader_MultilineLineNumbers(t *testing.T) {
	t.Parallel()

	in := "id,address\n1,\"line one\nline two\"\n2,plain\n"
	r, err := NewReader(strings.NewReader(in), Options{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, err := collect(t, r)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if recs[0].Line != 2 || recs[1].Line != 4 {
		t.Fatalf("lines = %d,%d; want 2,4", recs[0].Line, recs[1].Line)
	}
	if v, _ := recs[0].Get("address"); v != "line one\nline two" {
		t.Fatalf("address = %q", v)
	}
}

func TestReader_FieldCountMismatchIsFatal(t *testing.T) {
	t.Parallel()

	in := "a,b\n1,2\n3\n4,5\n"
	r, err := NewReader(strings.NewReader(in), Options{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, err := collect(t, r)
	if err == nil {
		t.Fatalf("expected field count error")
	}
	if !errors.Is(err, csv.ErrFieldCount) {
		t.Fatalf("error = %v, want csv.ErrFieldCount", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records before failure = %d, want 1", len(recs))
	}
}

func TestReader_EmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := NewReader(strings.NewReader(""), Options{}); err == nil {
		t.Fatalf("expected error for empty input")
	}

	r, err := NewReader(strings.NewReader("a,b\n"), Options{})
	if err != nil {
		t.Fatalf("header only: %v", err)
	}
	recs, err := collect(t, r)
	if err != nil || len(recs) != 0 {
		t.Fatalf("header only: %d records, %v", len(recs), err)
	}
}

func TestReader_CustomCommaAndRaw(t *testing.T) {
	t.Parallel()

	r, err := NewReader(strings.NewReader("a;b\n1;2\n"), Options{Comma: ';'})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, err := collect(t, r)
	if err != nil || len(recs) != 1 {
		t.Fatalf("records = %v, %v", recs, err)
	}
	if got := recs[0].Raw(); got != "1;2" {
		t.Fatalf("Raw = %q, want %q", got, "1;2")
	}
	if got := recs[0].Fields(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("Fields = %v", got)
	}
}

// TestReader_RecordsRetainedAcrossReads guards against buffer reuse leaking
// into previously yielded records.
func TestReader_RecordsRetainedAcrossReads(t *testing.T) {
	t.Parallel()

	r, err := NewReader(strings.NewReader("a\nfirst\nsecond\n"), Options{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, err := collect(t, r)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if v, _ := recs[0].Get("a"); v != "first" {
		t.Fatalf("first record mutated to %q", v)
	}
}

func TestReader_EarlyBreak(t *testing.T) {
	t.Parallel()

	r, err := NewReader(strings.NewReader("a\n1\n2\n3\n"), Options{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	n := 0
	for range r.Records() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("iterated %d records, want 2", n)
	}
}

func TestReader_UTF16WithBOM(t *testing.T) {
	t.Parallel()

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	in, err := enc.String("id,name\n1,Продукты\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	r, err := NewReader(strings.NewReader(in), Options{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if got := r.Header(); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Fatalf("Header = %q", got)
	}
	recs, err := collect(t, r)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	if v, _ := recs[0].Get("name"); v != "Продукты" {
		t.Fatalf("name = %q", v)
	}
}
