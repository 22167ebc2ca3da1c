package filterset

import (
	"testing"

	"github.com/facturacr/edocs-api/internal/models"
)

func record(condition, branch string) *models.FlatRecord {
	return &models.FlatRecord{Condition: condition, BranchCode: branch}
}

func testRecords() []*models.FlatRecord {
	return []*models.FlatRecord{
		record(models.ConditionSale, "001"),
		record(models.ConditionSale, "002"),
		record(models.ConditionPurchase, "001"),
		record(models.ConditionPurchase, "003"),
		record(models.ConditionIndeterminate, ""),
	}
}

func domainValues(domain []models.DomainValue) []string {
	out := make([]string, len(domain))
	for i, dv := range domain {
		out[i] = dv.Value
	}
	return out
}

func visibleCount(e *Engine, records []*models.FlatRecord) int {
	n := 0
	for _, rec := range records {
		if e.Visible(rec) {
			n++
		}
	}
	return n
}

func confirm(t *testing.T, e *Engine, records []*models.FlatRecord, column string, selected ...string) {
	t.Helper()
	if _, err := e.OpenDialog(records, column); err != nil {
		t.Fatalf("OpenDialog(%s): %v", column, err)
	}
	if err := e.Confirm(column, selected); err != nil {
		t.Fatalf("Confirm(%s): %v", column, err)
	}
}

func TestOpenDialogNewFilterAllChecked(t *testing.T) {
	e := New()
	records := testRecords()

	domain, err := e.OpenDialog(records, models.ColCondition)
	if err != nil {
		t.Fatal(err)
	}

	got := domainValues(domain)
	want := []string{"Indeterminate", "Purchase", "Sale"}
	if len(got) != len(want) {
		t.Fatalf("domain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("domain = %v, want %v", got, want)
		}
	}
	for _, dv := range domain {
		if !dv.Selected {
			t.Errorf("new filter domain value %q not pre-checked", dv.Value)
		}
	}
}

func TestConfirmSubsetCreatesFilter(t *testing.T) {
	e := New()
	records := testRecords()

	confirm(t, e, records, models.ColCondition, "Purchase")

	if !e.Active() {
		t.Fatal("no filter after subset confirm")
	}
	if got := visibleCount(e, records); got != 2 {
		t.Errorf("visible = %d, want 2", got)
	}
}

func TestCascadingDomainRestriction(t *testing.T) {
	e := New()
	records := testRecords()

	confirm(t, e, records, models.ColCondition, "Purchase")

	// The branch dialog only offers values still visible under the
	// condition filter: branches 001 and 003.
	domain, err := e.OpenDialog(records, models.ColBranch)
	if err != nil {
		t.Fatal(err)
	}
	got := domainValues(domain)
	if len(got) != 2 || got[0] != "001" || got[1] != "003" {
		t.Errorf("restricted domain = %v, want [001 003]", got)
	}
}

func TestMostRecentReopensFullDomain(t *testing.T) {
	e := New()
	records := testRecords()

	confirm(t, e, records, models.ColCondition, "Purchase")

	// Reopening the most recently touched filter offers the full domain,
	// with previously deselected values still on offer and unchecked.
	domain, err := e.OpenDialog(records, models.ColCondition)
	if err != nil {
		t.Fatal(err)
	}

	byValue := make(map[string]bool)
	for _, dv := range domain {
		byValue[dv.Value] = dv.Selected
	}
	if sel, ok := byValue["Sale"]; !ok || sel {
		t.Errorf("Sale should be offered unchecked, got %v/%v", ok, sel)
	}
	if sel, ok := byValue["Purchase"]; !ok || !sel {
		t.Errorf("Purchase should be offered checked, got %v/%v", ok, sel)
	}
}

func TestSelectAllOnMostRecentRemovesFilter(t *testing.T) {
	e := New()
	records := testRecords()

	confirm(t, e, records, models.ColCondition, "Purchase")
	confirm(t, e, records, models.ColCondition, "Indeterminate", "Purchase", "Sale")

	if e.Active() {
		t.Error("select-all on the most recent filter did not remove it")
	}
	if got := visibleCount(e, records); got != len(records) {
		t.Errorf("visible = %d, want all %d", got, len(records))
	}
}

func TestSelectAllOnOtherColumnIsNoOp(t *testing.T) {
	e := New()
	records := testRecords()

	confirm(t, e, records, models.ColCondition, "Purchase")

	// Opening a different column and keeping everything checked must not
	// create a second filter.
	domain, err := e.OpenDialog(records, models.ColBranch)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Confirm(models.ColBranch, domainValues(domain)); err != nil {
		t.Fatal(err)
	}

	if got := len(e.Columns()); got != 1 {
		t.Errorf("filter count = %d, want 1", got)
	}
}

func TestVisibilityMonotonic(t *testing.T) {
	e := New()
	records := testRecords()

	before := visibleCount(e, records)
	confirm(t, e, records, models.ColCondition, "Purchase", "Sale")
	mid := visibleCount(e, records)
	confirm(t, e, records, models.ColBranch, "001")
	after := visibleCount(e, records)

	if mid > before || after > mid {
		t.Errorf("visible counts grew: %d -> %d -> %d", before, mid, after)
	}
}

func TestEmptySelectionHidesEverything(t *testing.T) {
	e := New()
	records := testRecords()

	confirm(t, e, records, models.ColCondition)

	if got := visibleCount(e, records); got != 0 {
		t.Errorf("visible = %d, want 0", got)
	}
}

func TestEmptyValueMatchesBlankRecords(t *testing.T) {
	e := New()
	records := testRecords()

	confirm(t, e, records, models.ColBranch, Empty)

	// Only the record with a blank branch passes.
	if got := visibleCount(e, records); got != 1 {
		t.Errorf("visible = %d, want 1", got)
	}
}

func TestRemovePromotesLastFilter(t *testing.T) {
	e := New()
	records := testRecords()

	confirm(t, e, records, models.ColCondition, "Purchase")
	confirm(t, e, records, models.ColBranch, "001")
	// Branch is now most recent; condition is restricted.

	e.Remove(models.ColBranch)

	cols := e.Columns()
	if len(cols) != 1 {
		t.Fatalf("filters = %v", cols)
	}
	if cols[0]["column"] != models.ColCondition || cols[0]["state"] != "full" {
		t.Errorf("remaining filter not promoted: %v", cols[0])
	}
}

func TestRemoveAll(t *testing.T) {
	e := New()
	records := testRecords()

	confirm(t, e, records, models.ColCondition, "Purchase")
	confirm(t, e, records, models.ColBranch, "001")

	e.RemoveAll()

	if e.Active() {
		t.Error("filters remain after RemoveAll")
	}
	if got := visibleCount(e, records); got != len(records) {
		t.Errorf("visible = %d, want all", got)
	}
}

func TestActionColumnsNotFilterable(t *testing.T) {
	e := New()
	records := testRecords()

	for _, col := range models.ActionColumns {
		if _, err := e.OpenDialog(records, col); err == nil {
			t.Errorf("OpenDialog accepted action column %q", col)
		}
		if err := e.Confirm(col, nil); err == nil {
			t.Errorf("Confirm accepted action column %q", col)
		}
	}
}

func TestConfirmWithoutDialog(t *testing.T) {
	e := New()
	if err := e.Confirm(models.ColBranch, []string{"001"}); err == nil {
		t.Error("Confirm without an open dialog succeeded")
	}
}
