package aggregate

import (
	"github.com/lakeform/lakeform"
)

// fieldSumAgg sums int, float and duration fields. Retract is the true
// inverse of Agg.
type fieldSumAgg struct{}

func (fieldSumAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	if accumulator.IsNull() {
		return input
	}
	if input.IsNull() {
		return accumulator
	}
	return add(accumulator, input)
}

func (fieldSumAgg) Retract(accumulator, input lakeform.Value) (lakeform.Value, error) {
	if input.IsNull() {
		return accumulator, nil
	}
	if accumulator.IsNull() {
		return subtract(zeroOf(input), input), nil
	}
	return subtract(accumulator, input), nil
}

func (fieldSumAgg) Reset() {}

func add(a, b lakeform.Value) lakeform.Value {
	switch a.Type.TypeID {
	case lakeform.TypeIDInt:
		return lakeform.NewInt(a.Int + b.Int)
	case lakeform.TypeIDFloat:
		return lakeform.NewFloat(a.Float + b.Float)
	case lakeform.TypeIDDuration:
		return lakeform.NewDuration(a.Duration + b.Duration)
	}
	panic("sum over non-numeric value")
}

func subtract(a, b lakeform.Value) lakeform.Value {
	switch a.Type.TypeID {
	case lakeform.TypeIDInt:
		return lakeform.NewInt(a.Int - b.Int)
	case lakeform.TypeIDFloat:
		return lakeform.NewFloat(a.Float - b.Float)
	case lakeform.TypeIDDuration:
		return lakeform.NewDuration(a.Duration - b.Duration)
	}
	panic("sum over non-numeric value")
}

func zeroOf(v lakeform.Value) lakeform.Value {
	switch v.Type.TypeID {
	case lakeform.TypeIDInt:
		return lakeform.NewInt(0)
	case lakeform.TypeIDFloat:
		return lakeform.NewFloat(0)
	case lakeform.TypeIDDuration:
		return lakeform.NewDuration(0)
	}
	panic("sum over non-numeric value")
}

// fieldCountAgg counts non-null inputs. The count lives in the accumulator,
// so the field must be Int typed. Retract is the true inverse of Agg.
type fieldCountAgg struct{}

func (fieldCountAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	if input.IsNull() {
		return accumulator
	}
	if accumulator.IsNull() {
		return lakeform.NewInt(1)
	}
	return lakeform.NewInt(accumulator.Int + 1)
}

func (fieldCountAgg) Retract(accumulator, input lakeform.Value) (lakeform.Value, error) {
	if input.IsNull() {
		return accumulator, nil
	}
	if accumulator.IsNull() {
		return lakeform.NewInt(-1), nil
	}
	return lakeform.NewInt(accumulator.Int - 1), nil
}

func (fieldCountAgg) Reset() {}

// fieldMaxAgg keeps the largest value seen. Without multiset tracking a
// retraction cannot restore the previous maximum, so retract is guarded.
type fieldMaxAgg struct{}

func (fieldMaxAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	if accumulator.IsNull() {
		return input
	}
	if input.IsNull() {
		return accumulator
	}
	if input.Compare(accumulator) > 0 {
		return input
	}
	return accumulator
}

func (fieldMaxAgg) Reset() {}

type fieldMinAgg struct{}

func (fieldMinAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	if accumulator.IsNull() {
		return input
	}
	if input.IsNull() {
		return accumulator
	}
	if input.Compare(accumulator) < 0 {
		return input
	}
	return accumulator
}

func (fieldMinAgg) Reset() {}

// fieldLastValueAgg replaces the accumulator unconditionally, nulls included.
type fieldLastValueAgg struct{}

func (fieldLastValueAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	return input
}

func (fieldLastValueAgg) Reset() {}

type fieldLastNonNullValueAgg struct{}

func (fieldLastNonNullValueAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	if input.IsNull() {
		return accumulator
	}
	return input
}

func (fieldLastNonNullValueAgg) Reset() {}

// fieldFirstValueAgg keeps the first value of the key group, which requires
// per-group state cleared on Reset.
type fieldFirstValueAgg struct {
	seen bool
}

func (a *fieldFirstValueAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	if a.seen {
		return accumulator
	}
	a.seen = true
	return input
}

func (a *fieldFirstValueAgg) Reset() {
	a.seen = false
}

type fieldFirstNonNullValueAgg struct {
	seen bool
}

func (a *fieldFirstNonNullValueAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	if a.seen || input.IsNull() {
		return accumulator
	}
	a.seen = true
	return input
}

func (a *fieldFirstNonNullValueAgg) Reset() {
	a.seen = false
}

type fieldListaggAgg struct{}

func (fieldListaggAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	if accumulator.IsNull() {
		return input
	}
	if input.IsNull() {
		return accumulator
	}
	return lakeform.NewString(accumulator.Str + "," + input.Str)
}

func (fieldListaggAgg) Reset() {}

type fieldBoolAgg struct {
	and bool
}

func (a fieldBoolAgg) Agg(accumulator, input lakeform.Value) lakeform.Value {
	if accumulator.IsNull() {
		return input
	}
	if input.IsNull() {
		return accumulator
	}
	if a.and {
		return lakeform.NewBoolean(accumulator.Boolean && input.Boolean)
	}
	return lakeform.NewBoolean(accumulator.Boolean || input.Boolean)
}

func (fieldBoolAgg) Reset() {}
