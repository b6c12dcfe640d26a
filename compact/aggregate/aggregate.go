// Package aggregate provides the per-column combinators of the
// partial-update merge engine. An aggregator folds incoming field values into
// an accumulated one and, where the function is invertible, unwinds a
// contribution again on retraction.
package aggregate

import (
	"github.com/pkg/errors"

	"github.com/lakeform/lakeform"
)

// FieldAggregator combines the accumulated value of one column with an
// incoming one. Agg must be safe to apply repeatedly in sequence order.
// Retract must be the left inverse of Agg where the function is invertible
// (sum); non-invertible aggregators reject retraction unless configured with
// ignore-retract, in which case Retract is a documented no-op returning the
// accumulator unchanged.
type FieldAggregator interface {
	Agg(accumulator, input lakeform.Value) lakeform.Value
	Retract(accumulator, input lakeform.Value) (lakeform.Value, error)

	// Reset clears per-key-group state. Stateless aggregators no-op. Reset
	// is idempotent: calling it twice in a row is equivalent to calling it
	// once.
	Reset()
}

// Prototype constructs a fresh aggregator instance. Merge-function instances
// never share aggregator state, so one prototype may serve many instances
// running concurrently.
type Prototype func() FieldAggregator

// aggregator is the accumulate-only core of a non-invertible function. The
// retractGuard wrapping it owns Retract, so these cores never implement it
// themselves.
type aggregator interface {
	Agg(accumulator, input lakeform.Value) lakeform.Value
	Reset()
}

const (
	FuncSum               = "sum"
	FuncCount             = "count"
	FuncMax               = "max"
	FuncMin               = "min"
	FuncLastValue         = "last_value"
	FuncLastNonNullValue  = "last_non_null_value"
	FuncFirstValue        = "first_value"
	FuncFirstNonNullValue = "first_non_null_value"
	FuncListagg           = "listagg"
	FuncBoolAnd           = "bool_and"
	FuncBoolOr            = "bool_or"
)

// New resolves an aggregation-function name against a field type and returns
// a prototype for it. Unknown names and type mismatches are configuration
// errors.
func New(funcName string, fieldType lakeform.Type, ignoreRetract bool) (Prototype, error) {
	switch funcName {
	case FuncSum:
		switch fieldType.TypeID {
		case lakeform.TypeIDInt, lakeform.TypeIDFloat, lakeform.TypeIDDuration:
		default:
			return nil, errors.Errorf("aggregate function %s does not support type %s", funcName, fieldType)
		}
		return func() FieldAggregator { return &fieldSumAgg{} }, nil
	case FuncCount:
		if !fieldType.Is(lakeform.Int) {
			return nil, errors.Errorf("aggregate function %s does not support type %s", funcName, fieldType)
		}
		return func() FieldAggregator { return &fieldCountAgg{} }, nil
	case FuncMax:
		return prototypeWithRetract(func() aggregator { return fieldMaxAgg{} }, funcName, ignoreRetract), nil
	case FuncMin:
		return prototypeWithRetract(func() aggregator { return fieldMinAgg{} }, funcName, ignoreRetract), nil
	case FuncLastValue:
		return prototypeWithRetract(func() aggregator { return fieldLastValueAgg{} }, funcName, ignoreRetract), nil
	case FuncLastNonNullValue:
		return prototypeWithRetract(func() aggregator { return fieldLastNonNullValueAgg{} }, funcName, ignoreRetract), nil
	case FuncFirstValue:
		return prototypeWithRetract(func() aggregator { return &fieldFirstValueAgg{} }, funcName, ignoreRetract), nil
	case FuncFirstNonNullValue:
		return prototypeWithRetract(func() aggregator { return &fieldFirstNonNullValueAgg{} }, funcName, ignoreRetract), nil
	case FuncListagg:
		if !fieldType.Is(lakeform.String) {
			return nil, errors.Errorf("aggregate function %s does not support type %s", funcName, fieldType)
		}
		return prototypeWithRetract(func() aggregator { return fieldListaggAgg{} }, funcName, ignoreRetract), nil
	case FuncBoolAnd:
		if !fieldType.Is(lakeform.Boolean) {
			return nil, errors.Errorf("aggregate function %s does not support type %s", funcName, fieldType)
		}
		return prototypeWithRetract(func() aggregator { return fieldBoolAgg{and: true} }, funcName, ignoreRetract), nil
	case FuncBoolOr:
		if !fieldType.Is(lakeform.Boolean) {
			return nil, errors.Errorf("aggregate function %s does not support type %s", funcName, fieldType)
		}
		return prototypeWithRetract(func() aggregator { return fieldBoolAgg{and: false} }, funcName, ignoreRetract), nil
	}
	return nil, errors.Errorf("unknown aggregate function: %s", funcName)
}

// prototypeWithRetract wraps non-invertible aggregators: with ignore-retract
// their Retract becomes a no-op, without it Retract fails.
func prototypeWithRetract(construct func() aggregator, funcName string, ignoreRetract bool) Prototype {
	return func() FieldAggregator {
		return &retractGuard{
			aggregator:    construct(),
			funcName:      funcName,
			ignoreRetract: ignoreRetract,
		}
	}
}

type retractGuard struct {
	aggregator
	funcName      string
	ignoreRetract bool
}

func (g *retractGuard) Retract(accumulator, input lakeform.Value) (lakeform.Value, error) {
	if g.ignoreRetract {
		return accumulator, nil
	}
	return lakeform.ZeroValue, errors.Errorf(
		"aggregate function %s does not support retraction,"+
			" if you allow this function to ignore retraction records,"+
			" you can configure 'fields.${field_name}.ignore-retract'='true'",
		g.funcName)
}
