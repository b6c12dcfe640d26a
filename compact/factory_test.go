package compact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeform/lakeform"
	"github.com/lakeform/lakeform/options"
	"github.com/lakeform/lakeform/projection"
)

func TestFactoryUnknownSequenceField(t *testing.T) {
	_, err := NewPartialUpdateFactory(options.Options{
		"fields.missing.sequence-group": "a",
	}, testRowType(), []string{"id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestFactoryUnknownDependentField(t *testing.T) {
	_, err := NewPartialUpdateFactory(options.Options{
		"fields.s.sequence-group": "a,missing",
	}, testRowType(), []string{"id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestFactoryDuplicateGroupMembership(t *testing.T) {
	rowType := lakeform.NewRowType([]lakeform.DataField{
		{Name: "id", Type: lakeform.Int},
		{Name: "a", Type: lakeform.Int},
		{Name: "s1", Type: lakeform.Int},
		{Name: "s2", Type: lakeform.Int},
	})
	_, err := NewPartialUpdateFactory(options.Options{
		"fields.s1.sequence-group": "a",
		"fields.s2.sequence-group": "a",
	}, rowType, []string{"id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined repeatedly")
}

func TestFactoryAggregatorWithoutSequenceGroup(t *testing.T) {
	_, err := NewPartialUpdateFactory(options.Options{
		"fields.a.aggregate-function": "sum",
	}, testRowType(), []string{"id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence group")
}

func TestFactoryNonOrderableSequenceField(t *testing.T) {
	_, err := NewPartialUpdateFactory(options.Options{
		"fields.b.sequence-group": "a",
	}, testRowType(), []string{"id"})
	require.Error(t, err)
}

func TestFactoryPrimaryKeyNeverAggregated(t *testing.T) {
	opts := options.Options{
		"fields.s.sequence-group":      "a",
		"fields.id.aggregate-function": "sum",
		"fields.a.aggregate-function":  "sum",
	}
	factory, err := NewPartialUpdateFactory(opts, testRowType(), []string{"id"})
	require.NoError(t, err)
	merger, err := factory.Create(nil)
	require.NoError(t, err)

	merger.Reset()
	require.NoError(t, merger.Add(apply(1, lakeform.NewInt(7), null(), null(), null())))
	require.NoError(t, merger.Add(apply(2, lakeform.NewInt(7), null(), null(), null())))

	result := merger.GetResult()
	require.NotNil(t, result)
	// Had id been aggregated, it would hold 14.
	assert.Equal(t, lakeform.NewInt(7), result.Value.Get(0))
}

func TestFactoryCreateWithProjection(t *testing.T) {
	opts := options.Options{
		"fields.s.sequence-group": "a",
	}
	factory, err := NewPartialUpdateFactory(opts, testRowType(), []string{"id"})
	require.NoError(t, err)

	// Read a and s only, in that order.
	merger, err := factory.Create([][]int{{1}, {3}})
	require.NoError(t, err)

	merger.Reset()
	require.NoError(t, merger.Add(lakeform.NewKeyValue(intKey(1), 1, lakeform.UpdateAfter,
		lakeform.Row{lakeform.NewInt(10), lakeform.NewInt(5)})))
	require.NoError(t, merger.Add(lakeform.NewKeyValue(intKey(1), 2, lakeform.UpdateAfter,
		lakeform.Row{lakeform.NewInt(99), lakeform.NewInt(3)})))

	result := merger.GetResult()
	require.NotNil(t, result)
	assert.Equal(t, lakeform.NewInt(10), result.Value.Get(0))
	assert.Equal(t, lakeform.NewInt(5), result.Value.Get(1))
}

func TestFactoryCreatePrunedSequenceField(t *testing.T) {
	opts := options.Options{
		"fields.s.sequence-group": "a",
	}
	factory, err := NewPartialUpdateFactory(opts, testRowType(), []string{"id"})
	require.NoError(t, err)

	// a kept, its ordering field s pruned: the caller skipped
	// AdjustProjection.
	_, err = factory.Create([][]int{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AdjustProjection")
}

func TestAdjustProjectionNoSequenceGroups(t *testing.T) {
	factory, err := NewPartialUpdateFactory(options.Options{}, testRowType(), []string{"id"})
	require.NoError(t, err)

	nested := [][]int{{1}, {2}}
	adjusted := factory.AdjustProjection(nested)
	assert.Equal(t, nested, adjusted.Pushdown)
	assert.Nil(t, adjusted.Outer)
}

func TestAdjustProjectionReadEverything(t *testing.T) {
	opts := options.Options{
		"fields.s.sequence-group": "a",
	}
	factory, err := NewPartialUpdateFactory(opts, testRowType(), []string{"id"})
	require.NoError(t, err)

	adjusted := factory.AdjustProjection(nil)
	assert.Nil(t, adjusted.Pushdown)
	assert.Nil(t, adjusted.Outer)
}

func TestAdjustProjectionRoundTrip(t *testing.T) {
	opts := options.Options{
		"fields.s.sequence-group": "a",
	}
	factory, err := NewPartialUpdateFactory(opts, testRowType(), []string{"id"})
	require.NoError(t, err)

	// Request id and a; the ordering field s is not requested.
	requested := [][]int{{0}, {1}}
	adjusted := factory.AdjustProjection(requested)

	pushdown := projection.Of(adjusted.Pushdown).ToTopLevelIndexes()
	assert.Equal(t, []int{0, 1, 3}, pushdown)

	merger, err := factory.Create(adjusted.Pushdown)
	require.NoError(t, err)

	merger.Reset()
	require.NoError(t, merger.Add(lakeform.NewKeyValue(intKey(1), 1, lakeform.UpdateAfter,
		lakeform.Row{lakeform.NewInt(1), lakeform.NewInt(10), lakeform.NewInt(5)})))
	require.NoError(t, merger.Add(lakeform.NewKeyValue(intKey(1), 2, lakeform.UpdateAfter,
		lakeform.Row{lakeform.NewInt(1), lakeform.NewInt(99), lakeform.NewInt(3)})))

	result := merger.GetResult()
	require.NotNil(t, result)

	// The outer mapping restores exactly the requested columns, in order.
	outer := projection.Of(adjusted.Outer).ProjectRow(result.Value)
	require.Len(t, outer, 2)
	assert.Equal(t, lakeform.NewInt(1), outer.Get(0))
	assert.Equal(t, lakeform.NewInt(10), outer.Get(1))
}

func TestMergeEngineDispatch(t *testing.T) {
	factory, err := NewMergeFunctionFactory(options.Options{}, testRowType(), []string{"id"})
	require.NoError(t, err)
	merger, err := factory.Create(nil)
	require.NoError(t, err)
	_, ok := merger.(*DeduplicateMergeFunction)
	assert.True(t, ok)

	factory, err = NewMergeFunctionFactory(options.Options{
		"merge-engine": "partial-update",
	}, testRowType(), []string{"id"})
	require.NoError(t, err)
	merger, err = factory.Create(nil)
	require.NoError(t, err)
	_, ok = merger.(*PartialUpdateMergeFunction)
	assert.True(t, ok)

	_, err = NewMergeFunctionFactory(options.Options{
		"merge-engine": "first-row",
	}, testRowType(), []string{"id"})
	require.Error(t, err)
}

func TestDeduplicateKeepsLatest(t *testing.T) {
	merger := NewDeduplicateMergeFunction()

	merger.Reset()
	assert.Nil(t, merger.GetResult())

	require.NoError(t, merger.Add(apply(1, lakeform.NewInt(1), lakeform.NewInt(10), null(), null())))
	require.NoError(t, merger.Add(apply(2, lakeform.NewInt(1), lakeform.NewInt(20), null(), null())))

	result := merger.GetResult()
	require.NotNil(t, result)
	assert.Equal(t, uint64(2), result.SequenceNumber)
	assert.Equal(t, lakeform.NewInt(20), result.Value.Get(1))
}

func TestDeduplicateDeleteSurvives(t *testing.T) {
	merger := NewDeduplicateMergeFunction()

	merger.Reset()
	require.NoError(t, merger.Add(apply(1, lakeform.NewInt(1), lakeform.NewInt(10), null(), null())))
	require.NoError(t, merger.Add(retract(2, lakeform.NewInt(1), null(), null(), null())))

	result := merger.GetResult()
	require.NotNil(t, result)
	assert.Equal(t, lakeform.Delete, result.Kind)
}
