// Package compact implements the row-merge policies used by merge-read and
// compaction: given all versioned records of one primary key, in
// non-decreasing sequence-number order, fold them into a single result row.
package compact

import (
	"github.com/pkg/errors"

	"github.com/lakeform/lakeform"
	"github.com/lakeform/lakeform/options"
)

// MergeFunction folds the records of one primary-key group into at most one
// output record.
//
// The caller drives the lifecycle strictly sequentially: Reset before the
// first record of every key group, then Add once per record, then GetResult.
// Records of one group must arrive in non-decreasing sequence-number order;
// this is the caller's obligation and is not verified here. No method blocks
// or performs I/O.
type MergeFunction interface {
	// Reset clears all per-key state.
	Reset()

	// Add folds one record into the accumulator. The record is read-only to
	// the merge function. An error means the configuration cannot express
	// this record's change, never a transient condition.
	Add(kv lakeform.KeyValue) error

	// GetResult returns the merged record, or nil if nothing was added since
	// the last Reset. The returned record aliases internal storage and is
	// only valid until the next Reset or GetResult call; callers that retain
	// it must copy it first.
	GetResult() *lakeform.KeyValue
}

// AdjustedProjection carries the physical projection to push down to the
// reader and, when the physical set had to be widened, the outer projection
// selecting the originally requested columns back out of the physical row.
// A nil Outer means the physical row already matches the request.
type AdjustedProjection struct {
	Pushdown [][]int
	Outer    [][]int
}

// MergeFunctionFactory builds configured merge functions, optionally remapped
// onto a projected subset of the table's columns.
//
// Whenever any sequence group is configured, AdjustProjection must be applied
// to the caller's projection before Create is invoked with its Pushdown
// result, so that ordering columns survive column pruning.
type MergeFunctionFactory interface {
	Create(projection [][]int) (MergeFunction, error)
	AdjustProjection(projection [][]int) AdjustedProjection
}

// NewMergeFunctionFactory dispatches on the configured merge engine.
func NewMergeFunctionFactory(opts options.Options, rowType lakeform.RowType, primaryKeys []string) (MergeFunctionFactory, error) {
	switch engine := opts.MergeEngine(); engine {
	case options.MergeEngineDeduplicate:
		return NewDeduplicateFactory(), nil
	case options.MergeEnginePartialUpdate:
		return NewPartialUpdateFactory(opts, rowType, primaryKeys)
	default:
		return nil, errors.Errorf("unknown merge engine: %s", engine)
	}
}
