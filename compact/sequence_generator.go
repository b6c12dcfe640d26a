package compact

import (
	"github.com/pkg/errors"

	"github.com/lakeform/lakeform"
)

// SequenceGenerator extracts the ordering value of one sequence group from a
// row. The generator's own field is implicitly a member of its group.
type SequenceGenerator struct {
	index     int
	fieldType lakeform.Type
}

// NewSequenceGenerator resolves the named ordering field against the schema.
func NewSequenceGenerator(fieldName string, rowType lakeform.RowType) (*SequenceGenerator, error) {
	index := rowType.FieldIndex(fieldName)
	if index == -1 {
		return nil, errors.Errorf("field %s can not be found in table schema", fieldName)
	}
	return NewSequenceGeneratorAt(index, rowType.Fields[index].Type)
}

// NewSequenceGeneratorAt builds a generator for an already-resolved field
// position, used when remapping onto a projected schema.
func NewSequenceGeneratorAt(index int, fieldType lakeform.Type) (*SequenceGenerator, error) {
	switch fieldType.TypeID {
	case lakeform.TypeIDInt, lakeform.TypeIDTime:
	default:
		return nil, errors.Errorf("sequence field must be of type Int or Time, got %s", fieldType)
	}
	return &SequenceGenerator{index: index, fieldType: fieldType}, nil
}

func (g *SequenceGenerator) Index() int {
	return g.index
}

func (g *SequenceGenerator) FieldType() lakeform.Type {
	return g.fieldType
}

// GenerateNullable extracts the ordering value of the row, or ok=false if the
// ordering field is null.
func (g *SequenceGenerator) GenerateNullable(row lakeform.Row) (int64, bool) {
	value := row.Get(g.index)
	switch value.Type.TypeID {
	case lakeform.TypeIDInt:
		return value.Int, true
	case lakeform.TypeIDTime:
		return value.Time.UnixNano(), true
	}
	return 0, false
}
