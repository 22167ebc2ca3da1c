package filterset

import (
	"fmt"
	"sort"

	"github.com/facturacr/edocs-api/internal/models"
)

// Empty is the synthetic domain value standing in for blank/missing entries.
const Empty = "EMPTY"

// State is the per-filter lifecycle. At most one filter is in FullDomain at
// any time: it is the most recently touched one, and reopening its dialog
// offers values from the whole dataset so deselected values stay on offer.
type State int

const (
	StateInactive State = iota
	StateRestrictedDomain
	StateFullDomain
)

func (s State) String() string {
	switch s {
	case StateRestrictedDomain:
		return "restricted"
	case StateFullDomain:
		return "full"
	default:
		return "inactive"
	}
}

// ColumnFilter is one active per-column constraint.
type ColumnFilter struct {
	Column   string
	State    State
	Domain   []models.DomainValue
	selected map[string]bool
}

// Engine holds the ordered filter list for one session. It is driven from a
// single goroutine per session and uses no locking of its own.
type Engine struct {
	filters []*ColumnFilter
	// pending holds the domain offered by the last opened dialog per
	// column, so Confirm can tell whether everything was selected.
	pending map[string][]models.DomainValue
}

func New() *Engine {
	return &Engine{pending: make(map[string][]models.DomainValue)}
}

func isActionColumn(column string) bool {
	for _, c := range models.ActionColumns {
		if c == column {
			return true
		}
	}
	return false
}

func (e *Engine) find(column string) *ColumnFilter {
	for _, f := range e.filters {
		if f.Column == column {
			return f
		}
	}
	return nil
}

// OpenDialog computes the value domain to offer for column.
//
// For the most recently touched filter the domain is rebuilt from the entire
// dataset with prior checked states preserved; otherwise it holds only the
// values visible under every other active filter, all pre-checked. A
// synthetic EMPTY entry is prepended when blank values occur.
func (e *Engine) OpenDialog(records []*models.FlatRecord, column string) ([]models.DomainValue, error) {
	if isActionColumn(column) {
		return nil, fmt.Errorf("column %q is reserved for row actions", column)
	}

	f := e.find(column)

	var domain []models.DomainValue
	if f != nil && f.State == StateFullDomain {
		domain = buildDomain(records, column, nil, func(v string) bool {
			// Values never offered before default to checked.
			sel, seen := f.selected[v]
			return !seen || sel
		})
	} else {
		others := make([]*ColumnFilter, 0, len(e.filters))
		for _, other := range e.filters {
			if other.Column != column {
				others = append(others, other)
			}
		}
		domain = buildDomain(records, column, others, func(string) bool { return true })
	}

	e.pending[column] = domain
	return domain, nil
}

func buildDomain(records []*models.FlatRecord, column string, under []*ColumnFilter, checked func(string) bool) []models.DomainValue {
	values := make(map[string]struct{})
	hasBlank := false

	for _, rec := range records {
		if !visibleUnder(rec, under) {
			continue
		}
		v := rec.Value(column)
		if v == "" {
			hasBlank = true
			continue
		}
		values[v] = struct{}{}
	}

	ordered := make([]string, 0, len(values))
	for v := range values {
		ordered = append(ordered, v)
	}
	sort.Strings(ordered)

	domain := make([]models.DomainValue, 0, len(ordered)+1)
	if hasBlank {
		domain = append(domain, models.DomainValue{Value: Empty, Selected: checked(Empty)})
	}
	for _, v := range ordered {
		domain = append(domain, models.DomainValue{Value: v, Selected: checked(v)})
	}
	return domain
}

// Confirm applies the user's selection for the domain last offered on column.
//
// Selecting everything means "no constraint": the filter is removed when it
// was the most recently touched one, and simply not created otherwise. Any
// proper subset upserts the filter and makes it the most recently touched.
func (e *Engine) Confirm(column string, selected []string) error {
	if isActionColumn(column) {
		return fmt.Errorf("column %q is reserved for row actions", column)
	}

	domain, ok := e.pending[column]
	if !ok {
		return fmt.Errorf("no open filter dialog for column %q", column)
	}
	delete(e.pending, column)

	selSet := make(map[string]bool, len(selected))
	for _, v := range selected {
		selSet[v] = true
	}

	allSelected := true
	for _, dv := range domain {
		if !selSet[dv.Value] {
			allSelected = false
			break
		}
	}

	f := e.find(column)

	if allSelected {
		if f != nil && f.State == StateFullDomain {
			e.remove(column)
		}
		return nil
	}

	if f == nil {
		f = &ColumnFilter{Column: column}
		e.filters = append(e.filters, f)
	}

	f.Domain = make([]models.DomainValue, len(domain))
	f.selected = make(map[string]bool, len(domain))
	for i, dv := range domain {
		f.Domain[i] = models.DomainValue{Value: dv.Value, Selected: selSet[dv.Value]}
		f.selected[dv.Value] = selSet[dv.Value]
	}

	e.touch(f)
	return nil
}

// touch makes f the single most recently touched filter.
func (e *Engine) touch(f *ColumnFilter) {
	for _, other := range e.filters {
		if other.State == StateFullDomain {
			other.State = StateRestrictedDomain
		}
	}
	f.State = StateFullDomain
}

// Remove deletes the filter for column. The last remaining filter in
// application order inherits the most recently touched status.
func (e *Engine) Remove(column string) {
	e.remove(column)
}

func (e *Engine) remove(column string) {
	for i, f := range e.filters {
		if f.Column == column {
			e.filters = append(e.filters[:i], e.filters[i+1:]...)
			break
		}
	}
	if len(e.filters) > 0 {
		e.touch(e.filters[len(e.filters)-1])
	}
}

// RemoveAll clears every filter.
func (e *Engine) RemoveAll() {
	e.filters = nil
	e.pending = make(map[string][]models.DomainValue)
}

// Visible reports whether rec passes every active filter. A blank value
// passes only when EMPTY is selected; a filter with nothing selected hides
// every record.
func (e *Engine) Visible(rec *models.FlatRecord) bool {
	return visibleUnder(rec, e.filters)
}

func visibleUnder(rec *models.FlatRecord, filters []*ColumnFilter) bool {
	for _, f := range filters {
		v := rec.Value(f.Column)
		if v == "" {
			if !f.selected[Empty] {
				return false
			}
			continue
		}
		if !f.selected[v] {
			return false
		}
	}
	return true
}

// Columns returns the active filter columns in application order with their
// states, for inspection over the API.
func (e *Engine) Columns() []map[string]string {
	out := make([]map[string]string, 0, len(e.filters))
	for _, f := range e.filters {
		out = append(out, map[string]string{
			"column": f.Column,
			"state":  f.State.String(),
		})
	}
	return out
}

// Active reports whether any filter is applied.
func (e *Engine) Active() bool {
	return len(e.filters) > 0
}
