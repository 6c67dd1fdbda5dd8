// Package dedupe detects repeated natural keys within a single batch.
package dedupe

import (
	"strconv"
	"strings"

	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/rowerr"
)

// keySep joins key components. It cannot appear in trimmed cell text
// coming from CSV or JSON input.
const keySep = "\x1f"

// AthleteKey returns the in-batch identity of an athlete row.
func AthleteKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PerformanceKey returns the in-batch identity of a performance row.
func PerformanceKey(id model.Identity, d model.Discipline, date model.Date) string {
	return strings.Join([]string{
		strings.TrimSpace(id.FirstName),
		strings.TrimSpace(id.LastName),
		id.Birthdate.String(),
		string(d),
		date.String(),
	}, keySep)
}

// Tracker records the row indices of every key in a batch. It is not safe
// for concurrent use; the batch barrier runs it on one goroutine before any
// row proceeds to resolution.
type Tracker struct {
	order   []string
	indices map[string][]int
}

// New creates a Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{}
	for _, opt := range opts {
		opt(t)
	}
	if t.indices == nil {
		t.indices = make(map[string][]int)
	}
	return t
}

// SeenAndRecord records index under key and reports whether key was seen
// before. Indices must be recorded in input order.
func (t *Tracker) SeenAndRecord(key string, index int) bool {
	prev, seen := t.indices[key]
	if !seen {
		t.order = append(t.order, key)
	}
	t.indices[key] = append(prev, index)
	return seen
}

// Size returns the number of distinct keys recorded.
func (t *Tracker) Size() int { return len(t.order) }

// Conflicts returns a DuplicateInBatch error for every occurrence after the
// first of a repeated key, keyed by row index. The message lists the
// 1-based row numbers of all occurrences.
func (t *Tracker) Conflicts() map[int]*rowerr.Error {
	out := make(map[int]*rowerr.Error)
	for _, key := range t.order {
		idx := t.indices[key]
		if len(idx) < 2 {
			continue
		}
		lines := make([]int, len(idx))
		parts := make([]string, len(idx))
		for i, ix := range idx {
			lines[i] = ix + 1
			parts[i] = strconv.Itoa(ix + 1)
		}
		for _, ix := range idx[1:] {
			out[ix] = rowerr.New(rowerr.DuplicateInBatch,
				"duplicate of row %d in this batch (rows %s)", lines[0], strings.Join(parts, ", ")).
				With("rows", lines)
		}
	}
	return out
}
