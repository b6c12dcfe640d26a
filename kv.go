package lakeform

// RowKind tags a versioned record as an apply (insert/update) or a retract
// (delete) change.
type RowKind int

const (
	Insert RowKind = iota
	UpdateBefore
	UpdateAfter
	Delete
)

func (k RowKind) IsRetract() bool {
	return k == UpdateBefore || k == Delete
}

func (k RowKind) String() string {
	switch k {
	case Insert:
		return "+I"
	case UpdateBefore:
		return "-U"
	case UpdateAfter:
		return "+U"
	case Delete:
		return "-D"
	}
	return "?"
}

// Row is one row's field values. A field holding a Value of TypeIDNull is
// absent. Rows produced upstream are treated as read-only by consumers.
type Row []Value

// NewRow returns a row of the given arity with every field absent.
func NewRow(fieldCount int) Row {
	row := make(Row, fieldCount)
	for i := range row {
		row[i] = NewNull()
	}
	return row
}

func (r Row) Get(i int) Value {
	return r[i]
}

func (r Row) Set(i int, value Value) {
	r[i] = value
}

func (r Row) Copy() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// FieldGetter reads one schema-bound field out of a row.
type FieldGetter func(row Row) Value

// FieldGetters builds one accessor per field of the schema.
func FieldGetters(rowType RowType) []FieldGetter {
	getters := make([]FieldGetter, rowType.FieldCount())
	for i := range getters {
		index := i
		getters[i] = func(row Row) Value {
			return row[index]
		}
	}
	return getters
}

// KeyValue is one versioned record: the primary-key projection of the row,
// the sequence number assigned upstream, the change kind and the row payload.
type KeyValue struct {
	Key            Row
	SequenceNumber uint64
	Kind           RowKind
	Value          Row
}

func NewKeyValue(key Row, sequenceNumber uint64, kind RowKind, value Row) KeyValue {
	return KeyValue{
		Key:            key,
		SequenceNumber: sequenceNumber,
		Kind:           kind,
		Value:          value,
	}
}

// Replace overwrites this KeyValue in place and returns it. Merge functions
// use it to reuse a single output instance across key groups.
func (kv *KeyValue) Replace(key Row, sequenceNumber uint64, kind RowKind, value Row) *KeyValue {
	kv.Key = key
	kv.SequenceNumber = sequenceNumber
	kv.Kind = kind
	kv.Value = value
	return kv
}
