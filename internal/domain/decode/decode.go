// Package decode turns raw CSV or JSON text into normalized rows.
//
// Headers are mapped through a static alias table, cells are trimmed and
// coerced into typed values. Framing errors abort the batch with
// MalformedInput; field errors travel with the row for later stages.
package decode

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/medalist/internal/domain/rowerr"
)

// contextCheckInterval is how often (in rows) decoding checks for cancellation.
const contextCheckInterval = 100

// Format of the raw input.
type Format int

// Supported formats.
const (
	FormatAuto Format = iota
	FormatCSV
	FormatJSON
)

// FormatFromContentType maps a MIME type onto a Format. Unknown types
// return FormatAuto so the payload is sniffed.
func FormatFromContentType(contentType string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return FormatJSON
	case strings.Contains(ct, "csv"), strings.Contains(ct, "ms-excel"):
		return FormatCSV
	default:
		return FormatAuto
	}
}

// RawRow is one decoded input row.
type RawRow struct {
	// Index is the 0-based position of the row among the data rows.
	Index int
	// Fields holds the non-empty cells keyed by canonical field name.
	Fields map[string]Value
	// Original holds the trimmed cell text keyed by canonical field name.
	Original map[string]string
	// Err is set when the row already failed while decoding.
	Err error
}

// Line returns the 1-based data row number.
func (r RawRow) Line() int { return r.Index + 1 }

// Get returns the typed value of field and whether it is present.
func (r RawRow) Get(field string) (Value, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// Text returns the trimmed original text of field.
func (r RawRow) Text(field string) string { return r.Original[field] }

// Batch is the decoder output, index-aligned with the input rows.
type Batch struct {
	Header []string
	Rows   []RawRow
	Comma  rune
}

// Decoder parses CSV and JSON input.
type Decoder struct {
	comma rune
}

// New creates a Decoder. Without WithComma the CSV delimiter is sniffed
// from the header line.
func New(opts ...Option) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads all of r in the given format.
func (d *Decoder) Decode(ctx context.Context, r io.Reader, f Format) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, rowerr.Wrap(rowerr.MalformedInput, fmt.Errorf("read input: %w", err))
	}
	data = sanitize(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, rowerr.New(rowerr.MalformedInput, "empty input")
	}
	if f == FormatAuto {
		f = sniff(data)
	}
	if f == FormatJSON {
		return d.decodeJSON(ctx, data)
	}
	return d.decodeCSV(ctx, data)
}

func (d *Decoder) decodeCSV(ctx context.Context, data []byte) (*Batch, error) {
	comma := d.comma
	if comma == 0 {
		comma = sniffComma(data)
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.ReuseRecord = false

	headerRec, err := cr.Read()
	if err != nil {
		return nil, rowerr.Wrap(rowerr.MalformedInput, fmt.Errorf("read header: %w", err))
	}
	header := make([]string, len(headerRec))
	seen := make(map[string]struct{}, len(headerRec))
	for i, h := range headerRec {
		c := Canonical(h)
		if c == "" {
			return nil, rowerr.New(rowerr.MalformedInput, "empty header in column %d", i+1)
		}
		if _, dup := seen[c]; dup {
			return nil, rowerr.New(rowerr.MalformedInput, "duplicate column %q", c)
		}
		seen[c] = struct{}{}
		header[i] = c
	}

	batch := &Batch{Header: header, Comma: comma}
	for index := 0; ; {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rowerr.Wrap(rowerr.MalformedInput, err)
		}
		if index%contextCheckInterval == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isEmptyRecord(rec) {
			index++
			continue
		}
		row := newRow(index)
		for i, cell := range rec {
			row.set(header[i], cell)
		}
		batch.Rows = append(batch.Rows, row)
		index++
	}
	return batch, nil
}

func (d *Decoder) decodeJSON(ctx context.Context, data []byte) (*Batch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, rowerr.Wrap(rowerr.MalformedInput, fmt.Errorf("json: %w", err))
	}

	var objects []any
	switch v := doc.(type) {
	case map[string]any:
		objects = []any{v}
	case []any:
		objects = v
	default:
		return nil, rowerr.New(rowerr.MalformedInput, "json: expected object or array of objects")
	}

	batch := &Batch{Comma: d.comma}
	if batch.Comma == 0 {
		batch.Comma = ','
	}
	columns := make(map[string]struct{})
	for index, o := range objects {
		if index%contextCheckInterval == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		obj, ok := o.(map[string]any)
		if !ok {
			return nil, rowerr.New(rowerr.MalformedInput, "json: element %d is not an object", index+1)
		}
		row := newRow(index)
		for key, raw := range obj {
			c := Canonical(key)
			columns[c] = struct{}{}
			text, ok := jsonText(raw)
			if !ok {
				return nil, rowerr.New(rowerr.MalformedInput, "json: element %d field %q is not a scalar", index+1, key)
			}
			row.set(c, text)
		}
		batch.Rows = append(batch.Rows, row)
	}
	for c := range columns {
		batch.Header = append(batch.Header, c)
	}
	sort.Strings(batch.Header)
	return batch, nil
}

func newRow(index int) RawRow {
	return RawRow{
		Index:    index,
		Fields:   make(map[string]Value),
		Original: make(map[string]string),
	}
}

// set trims cell, records it and coerces it. A birthdate that cannot be
// parsed fails the row immediately.
func (r *RawRow) set(field, cell string) {
	cell = strings.TrimSpace(cell)
	r.Original[field] = cell
	if cell == "" {
		return
	}
	v := coerce(field, cell)
	r.Fields[field] = v
	if field == FieldBirthdate && v.Kind == KindInvalid && r.Err == nil {
		r.Err = rowerr.New(rowerr.InvalidDateFormat, "invalid birthdate %q, use YYYY-MM-DD", cell)
	}
}

func jsonText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitize strips a UTF-8 BOM and replaces invalid sequences.
func sanitize(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return bytes.ToValidUTF8(data, []byte("�"))
}

func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatCSV
}

// sniffComma picks ';' or tab when the header line uses it and has no ','.
func sniffComma(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.IndexByte(line, ',') >= 0 {
		return ','
	}
	switch {
	case bytes.IndexByte(line, ';') >= 0:
		return ';'
	case bytes.IndexByte(line, '\t') >= 0:
		return '\t'
	}
	return ','
}
