// Package report serializes failed rows and exported records as CSV.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/okian/medalist/internal/domain/decode"
	"github.com/okian/medalist/internal/domain/rowerr"
)

// ErrorColumn is the trailing column of an error report.
const ErrorColumn = "error"

// Row is one failed input row.
type Row struct {
	// Index is the 0-based data row index.
	Index int `json:"-"`
	// Line is the 1-based data row number.
	Line    int               `json:"row"`
	Kind    rowerr.Kind       `json:"kind"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Aggregator collects failed rows from concurrent row pipelines. A row
// must be added at most once.
type Aggregator struct {
	mu      sync.Mutex
	columns []string
	comma   rune
	rows    []Row
}

// NewAggregator creates an Aggregator that renders columns followed by
// the error column.
func NewAggregator(columns []string, opts ...Option) *Aggregator {
	a := &Aggregator{
		columns: append([]string(nil), columns...),
		comma:   ',',
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add records the failure of row.
func (a *Aggregator) Add(row decode.RawRow, err error) {
	fields := make(map[string]string, len(row.Original))
	for k, v := range row.Original {
		fields[k] = v
	}
	r := Row{
		Index:   row.Index,
		Line:    row.Line(),
		Kind:    rowerr.KindOf(err),
		Message: err.Error(),
		Fields:  fields,
	}
	a.mu.Lock()
	a.rows = append(a.rows, r)
	a.mu.Unlock()
}

// Len returns the number of failed rows.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}

// Rows returns the failed rows ordered by input position.
func (a *Aggregator) Rows() []Row {
	a.mu.Lock()
	out := append([]Row(nil), a.rows...)
	a.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// WriteCSV writes the report with a header row. Nothing is written when no
// row failed.
func (a *Aggregator) WriteCSV(w io.Writer) error {
	rows := a.Rows()
	if len(rows) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	cw.Comma = a.comma
	header := append(append([]string(nil), a.columns...), ErrorColumn)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	rec := make([]string, len(header))
	for _, r := range rows {
		for i, c := range a.columns {
			rec[i] = r.Fields[c]
		}
		rec[len(rec)-1] = r.Message
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write report row %d: %w", r.Line, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV renders the report as a string, empty when no row failed.
func (a *Aggregator) CSV() (string, error) {
	var buf bytes.Buffer
	if err := a.WriteCSV(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
