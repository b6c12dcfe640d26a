package lakeform

// DataField is a single named column of a table schema.
type DataField struct {
	Name string
	Type Type
}

// RowType is the ordered schema of a row. It is immutable after construction.
type RowType struct {
	Fields []DataField
}

func NewRowType(fields []DataField) RowType {
	return RowType{Fields: fields}
}

func (t RowType) FieldCount() int {
	return len(t.Fields)
}

func (t RowType) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, field := range t.Fields {
		names[i] = field.Name
	}
	return names
}

// FieldIndex returns the position of the named field, or -1 if the schema
// doesn't contain it.
func (t RowType) FieldIndex(name string) int {
	for i, field := range t.Fields {
		if field.Name == name {
			return i
		}
	}
	return -1
}

// Project returns a new RowType containing the given fields, in the given
// order.
func (t RowType) Project(indexes []int) RowType {
	fields := make([]DataField, len(indexes))
	for i, index := range indexes {
		fields[i] = t.Fields[index]
	}
	return RowType{Fields: fields}
}
