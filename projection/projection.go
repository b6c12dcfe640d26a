// Package projection represents column projections as nested field paths,
// capable of expressing both flat and nested (struct) field selection.
package projection

import (
	"github.com/lakeform/lakeform"
)

// Projection is an ordered set of field paths. A path of length one selects a
// top-level column; longer paths select into struct fields.
type Projection struct {
	paths [][]int
}

// Of wraps a nested-index representation.
func Of(nested [][]int) Projection {
	return Projection{paths: nested}
}

// TopLevel builds a projection of the given top-level column indexes.
func TopLevel(indexes []int) Projection {
	paths := make([][]int, len(indexes))
	for i, index := range indexes {
		paths[i] = []int{index}
	}
	return Projection{paths: paths}
}

// ToTopLevelIndexes flattens the projection to the top-level column of each
// path, preserving order.
func (p Projection) ToTopLevelIndexes() []int {
	indexes := make([]int, len(p.paths))
	for i, path := range p.paths {
		indexes[i] = path[0]
	}
	return indexes
}

// ToNestedIndexes returns the nested-index representation.
func (p Projection) ToNestedIndexes() [][]int {
	return p.paths
}

// Project applies the projection to a schema, descending into struct fields
// for paths longer than one. A selected struct field is named
// "<column>.<field>".
func (p Projection) Project(rowType lakeform.RowType) lakeform.RowType {
	fields := make([]lakeform.DataField, len(p.paths))
	for i, path := range p.paths {
		field := rowType.Fields[path[0]]
		for _, step := range path[1:] {
			inner := field.Type.Struct.Fields[step]
			field = lakeform.DataField{
				Name: field.Name + "." + inner.Name,
				Type: inner.Type,
			}
		}
		fields[i] = field
	}
	return lakeform.NewRowType(fields)
}

// ProjectRow selects the projection's columns out of a row, in projection
// order. Paths through a null or too-short struct value yield null.
func (p Projection) ProjectRow(row lakeform.Row) lakeform.Row {
	out := make(lakeform.Row, len(p.paths))
	for i, path := range p.paths {
		value := row[path[0]]
		for _, step := range path[1:] {
			if value.Type.TypeID != lakeform.TypeIDStruct || step >= len(value.FieldValues) {
				value = lakeform.NewNull()
				break
			}
			value = value.FieldValues[step]
		}
		out[i] = value
	}
	return out
}
