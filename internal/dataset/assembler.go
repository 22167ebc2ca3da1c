package dataset

import (
	"context"
	"sort"
	"time"

	"github.com/facturacr/edocs-api/internal/keygen"
	"github.com/facturacr/edocs-api/internal/models"
)

// Lookup resolves short codes to display names via external collaborators.
// A failed lookup is non-fatal: the code stays on display.
type Lookup interface {
	BranchName(ctx context.Context, channel, code string) (string, error)
	ActivityName(ctx context.Context, channel, code string) (string, error)
}

// yieldEvery is how many records are enriched between cooperative pauses so
// progress consumers get a chance to observe the counter.
const yieldEvery = 10

// Merge combines records rehydrated from the store with records produced in
// the current session, stored first.
func Merge(stored, fresh []*models.FlatRecord) []*models.FlatRecord {
	merged := make([]*models.FlatRecord, 0, len(stored)+len(fresh))
	merged = append(merged, stored...)
	merged = append(merged, fresh...)
	return merged
}

// Enrich fills in branch and activity names for every Purchase record, one
// record fully resolved before the next begins. progress may be nil.
func Enrich(ctx context.Context, records []*models.FlatRecord, lookup Lookup, progress func(done, total int)) {
	total := len(records)

	for i, rec := range records {
		if rec.Condition == models.ConditionPurchase {
			if rec.BranchCode != "" && rec.BranchName == "" {
				if name, err := lookup.BranchName(ctx, rec.Channel, rec.BranchCode); err == nil && name != "" {
					rec.BranchName = name
				}
			}
			if rec.ActivityCode != "" && rec.ActivityName == "" {
				if name, err := lookup.ActivityName(ctx, rec.Channel, rec.ActivityCode); err == nil && name != "" {
					rec.ActivityName = name
				}
			}
		}

		if progress != nil {
			progress(i+1, total)
		}
		if (i+1)%yieldEvery == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

// sortKey is the emission code, recomputed from the raw timestamp when a
// rehydrated record arrived without one. Empty means "no usable timestamp".
func sortKey(rec *models.FlatRecord) string {
	if rec.EmisionCode != "" {
		return rec.EmisionCode
	}
	return keygen.EncodeEmision(rec.EmisionRaw)
}

// SortByEmision orders records newest first. The fixed-width digit codes
// compare lexicographically. Records without a usable timestamp keep their
// relative order at the end.
func SortByEmision(records []*models.FlatRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ki, kj := sortKey(records[i]), sortKey(records[j])
		if ki == "" {
			return false
		}
		if kj == "" {
			return true
		}
		return ki > kj
	})
}
