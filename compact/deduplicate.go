package compact

import (
	"github.com/lakeform/lakeform"
)

// DeduplicateMergeFunction keeps the record with the highest sequence number
// and discards the rest. The kind of the surviving record is preserved, so a
// delete that wins deduplication still means "no row" downstream.
type DeduplicateMergeFunction struct {
	latest  lakeform.KeyValue
	isEmpty bool
}

func NewDeduplicateMergeFunction() *DeduplicateMergeFunction {
	return &DeduplicateMergeFunction{isEmpty: true}
}

func (f *DeduplicateMergeFunction) Reset() {
	f.latest = lakeform.KeyValue{}
	f.isEmpty = true
}

func (f *DeduplicateMergeFunction) Add(kv lakeform.KeyValue) error {
	// Records arrive in non-decreasing sequence order, so the last one wins.
	f.latest = kv
	f.isEmpty = false
	return nil
}

func (f *DeduplicateMergeFunction) GetResult() *lakeform.KeyValue {
	if f.isEmpty {
		return nil
	}
	return &f.latest
}

type deduplicateFactory struct{}

// NewDeduplicateFactory builds the default last-writer-wins merge function.
func NewDeduplicateFactory() MergeFunctionFactory {
	return deduplicateFactory{}
}

func (deduplicateFactory) Create(projection [][]int) (MergeFunction, error) {
	return NewDeduplicateMergeFunction(), nil
}

func (deduplicateFactory) AdjustProjection(projection [][]int) AdjustedProjection {
	return AdjustedProjection{Pushdown: projection}
}
