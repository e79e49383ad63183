// Package reconcile diffs two keyed datasets into entering, updating and
// exiting keys.
package reconcile

import "github.com/okian/aqframes/internal/domain/model"

// Result is the partition of keys between two datasets.
type Result = model.Diff

// Reconcile partitions the keys of prev and next. A nil dataset is empty.
// Entering and Updating follow next's entry order; Exiting follows prev's.
// Every key of either dataset lands in exactly one list.
func Reconcile(prev, next *model.Dataset) Result {
	var res Result
	if next != nil {
		for i := range next.Entries {
			e := next.Entries[i]
			nv := e.Value
			if old, ok := prev.Get(e.Key); ok {
				res.Updating = append(res.Updating, model.Change{Key: e.Key, Old: &old, New: &nv})
				continue
			}
			res.Entering = append(res.Entering, model.Change{Key: e.Key, New: &nv})
		}
	}
	if prev != nil {
		for i := range prev.Entries {
			e := prev.Entries[i]
			if _, ok := next.Get(e.Key); ok {
				continue
			}
			ov := e.Value
			res.Exiting = append(res.Exiting, model.Change{Key: e.Key, Old: &ov})
		}
	}
	return res
}
