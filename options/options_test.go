package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeform/lakeform"
)

func TestTypedAccessors(t *testing.T) {
	opts := Options{
		"merge-engine":                 "partial-update",
		"partial-update.ignore-delete": "true",
		"fields.b.aggregate-function":  "sum",
		"fields.b.ignore-retract":      "true",
	}

	assert.Equal(t, "partial-update", opts.MergeEngine())
	assert.True(t, opts.IgnoreDelete())
	assert.Equal(t, "sum", opts.FieldAggFunc("b"))
	assert.Equal(t, "", opts.FieldAggFunc("a"))
	assert.True(t, opts.FieldAggIgnoreRetract("b"))
	assert.False(t, opts.FieldAggIgnoreRetract("a"))
}

func TestDefaults(t *testing.T) {
	opts := Options{}

	assert.Equal(t, MergeEngineDeduplicate, opts.MergeEngine())
	assert.False(t, opts.IgnoreDelete())
	assert.False(t, opts.Bool("partial-update.ignore-delete", false))
	assert.True(t, opts.Bool("some-flag", true))
}

func TestSequenceGroups(t *testing.T) {
	opts := Options{
		"fields.s1.sequence-group":    "a, b",
		"fields.s2.sequence-group":    "c",
		"fields.c.aggregate-function": "sum",
		"merge-engine":                "partial-update",
	}

	groups := opts.SequenceGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a", "b"}, groups["s1"])
	assert.Equal(t, []string{"c"}, groups["s2"])
}

func TestSequenceGroupsEmpty(t *testing.T) {
	assert.Empty(t, Options{"merge-engine": "deduplicate"}.SequenceGroups())
}

func TestReadTableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: orders
fields:
  - name: id
    type: int
  - name: qty
    type: int
  - name: note
    type: string
primaryKeys: [id]
options:
  merge-engine: partial-update
  fields.qty.aggregate-function: sum
`), 0644))

	config, err := ReadTableConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "orders", config.Name)
	assert.Equal(t, []string{"id"}, config.PrimaryKeys)
	assert.Equal(t, "sum", Options(config.Options).FieldAggFunc("qty"))

	rowType, err := config.RowType()
	require.NoError(t, err)
	require.Equal(t, 3, rowType.FieldCount())
	assert.Equal(t, lakeform.Int, rowType.Fields[1].Type)
	assert.Equal(t, lakeform.String, rowType.Fields[2].Type)
}

func TestReadTableConfigArrayType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: events
fields:
  - name: id
    type: int
  - name: tags
    type: array<string>
  - name: matrix
    type: array<array<int>>
`), 0644))

	config, err := ReadTableConfig(path)
	require.NoError(t, err)
	rowType, err := config.RowType()
	require.NoError(t, err)

	tags := rowType.Fields[1].Type
	require.Equal(t, lakeform.TypeIDList, tags.TypeID)
	assert.True(t, tags.List.Element.Is(lakeform.String))

	matrix := rowType.Fields[2].Type
	require.Equal(t, lakeform.TypeIDList, matrix.TypeID)
	require.Equal(t, lakeform.TypeIDList, matrix.List.Element.TypeID)
	assert.True(t, matrix.List.Element.List.Element.Is(lakeform.Int))
}

func TestReadTableConfigUnknownArrayElement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: bad
fields:
  - name: tags
    type: array<decimal>
`), 0644))

	config, err := ReadTableConfig(path)
	require.NoError(t, err)
	_, err = config.RowType()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal")
}

func TestReadTableConfigUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: bad
fields:
  - name: id
    type: decimal
`), 0644))

	config, err := ReadTableConfig(path)
	require.NoError(t, err)
	_, err = config.RowType()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal")
}

func TestReadTableConfigMissingFile(t *testing.T) {
	_, err := ReadTableConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
