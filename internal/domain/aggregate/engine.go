// Package aggregate groups records by key functions and reduces each leaf group.
package aggregate

import (
	"time"

	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/pkg/metrics"
)

// KeyFunc extracts one level of a group key. A record for which it reports
// false is left out of the grouping.
type KeyFunc func(model.Record) (string, bool)

// Group is one reduced leaf group.
type Group struct {
	Key       model.Key
	Aggregate model.Aggregate
	Size      int // records mapped to the key
}

// Result holds the reduced groups in first-occurrence order.
type Result struct {
	Groups []Group
	index  map[string]int
}

// Get returns the group for key.
func (r *Result) Get(key model.Key) (Group, bool) {
	if r == nil {
		return Group{}, false
	}
	i, ok := r.index[key.ID()]
	if !ok {
		return Group{}, false
	}
	return r.Groups[i], true
}

// Len returns the number of groups.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Groups)
}

// bucket is a group under construction.
type bucket struct {
	key     model.Key
	records []model.Record
}

// Aggregate groups records by keyFns, nested in order, and reduces every leaf.
// Keys appear in the order their first record appears at each level, so the
// same input always yields the same output. A leaf whose reducer produces no
// value is omitted.
func Aggregate(records []model.Record, keyFns []KeyFunc, reducer Reducer) *Result {
	start := time.Now()

	buckets := split([]bucket{{records: records}}, keyFns)
	res := &Result{
		Groups: make([]Group, 0, len(buckets)),
		index:  make(map[string]int, len(buckets)),
	}
	for _, b := range buckets {
		agg, ok := reducer.Reduce(b.records)
		if !ok {
			continue
		}
		res.index[b.key.ID()] = len(res.Groups)
		res.Groups = append(res.Groups, Group{Key: b.key, Aggregate: agg, Size: len(b.records)})
	}

	metrics.RecordAggregation(reducer.Name(), len(res.Groups), float64(time.Since(start).Microseconds())/1000)
	return res
}

// split applies the first key function to every bucket and recurses.
func split(buckets []bucket, keyFns []KeyFunc) []bucket {
	if len(keyFns) == 0 {
		out := buckets[:0]
		for _, b := range buckets {
			if len(b.records) > 0 {
				out = append(out, b)
			}
		}
		return out
	}

	fn := keyFns[0]
	next := make([]bucket, 0, len(buckets))
	for _, parent := range buckets {
		grouped := make(map[string]int)
		start := len(next)
		for _, rec := range parent.records {
			k, ok := fn(rec)
			if !ok {
				continue
			}
			i, exists := grouped[k]
			if !exists {
				key := make(model.Key, len(parent.key), len(parent.key)+1)
				copy(key, parent.key)
				i = len(next) - start
				grouped[k] = i
				next = append(next, bucket{key: append(key, k)})
			}
			next[start+i].records = append(next[start+i].records, rec)
		}
	}
	return split(next, keyFns[1:])
}
