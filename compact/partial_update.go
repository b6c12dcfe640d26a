package compact

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/lakeform/lakeform"
	"github.com/lakeform/lakeform/compact/aggregate"
	"github.com/lakeform/lakeform/options"
	"github.com/lakeform/lakeform/projection"
)

// PartialUpdateMergeFunction merges partial records sharing a primary key by
// updating non-null fields, optionally ordering per-field updates by sequence
// groups and combining them with per-field aggregators.
type PartialUpdateMergeFunction struct {
	getters          []lakeform.FieldGetter
	ignoreDelete     bool
	fieldSequences   map[int]*SequenceGenerator
	fieldAggregators map[int]aggregate.FieldAggregator

	// Distinct aggregator instances, so each is reset exactly once per key
	// group even if several fields were to share one.
	aggregators []aggregate.FieldAggregator

	currentKey           lakeform.Row
	latestSequenceNumber uint64
	isEmpty              bool
	row                  lakeform.Row
	reused               *lakeform.KeyValue
}

func newPartialUpdateMergeFunction(
	getters []lakeform.FieldGetter,
	ignoreDelete bool,
	fieldSequences map[int]*SequenceGenerator,
	fieldAggregators map[int]aggregate.FieldAggregator,
) *PartialUpdateMergeFunction {
	aggregators := make([]aggregate.FieldAggregator, 0, len(fieldAggregators))
	for _, aggregator := range fieldAggregators {
		aggregators = append(aggregators, aggregator)
	}
	return &PartialUpdateMergeFunction{
		getters:          getters,
		ignoreDelete:     ignoreDelete,
		fieldSequences:   fieldSequences,
		fieldAggregators: fieldAggregators,
		aggregators:      aggregators,
		isEmpty:          true,
	}
}

func (f *PartialUpdateMergeFunction) Reset() {
	f.currentKey = nil
	f.row = lakeform.NewRow(len(f.getters))
	for _, aggregator := range f.aggregators {
		aggregator.Reset()
	}
	f.isEmpty = true
}

func (f *PartialUpdateMergeFunction) Add(kv lakeform.KeyValue) error {
	// Refresh the key object, later records may carry a distinct one.
	f.currentKey = kv.Key

	f.latestSequenceNumber = kv.SequenceNumber
	f.isEmpty = false

	if kv.Kind.IsRetract() {
		if f.ignoreDelete {
			return nil
		}

		if len(f.fieldSequences) > 1 {
			return f.retractWithSequenceGroup(kv)
		}

		return errors.New(strings.Join([]string{
			"By default, partial update can not accept delete records, you can choose one of the following solutions:",
			"1. Configure 'partial-update.ignore-delete' to ignore delete records.",
			"2. Configure 'sequence-group's to retract partial columns.",
		}, "\n"))
	}

	if len(f.fieldSequences) == 0 {
		f.updateNonNullFields(kv)
		return nil
	}
	return f.updateWithSequenceGroup(kv)
}

func (f *PartialUpdateMergeFunction) updateNonNullFields(kv lakeform.KeyValue) {
	for i := range f.getters {
		if field := f.getters[i](kv.Value); !field.IsNull() {
			f.row.Set(i, field)
		}
	}
}

func (f *PartialUpdateMergeFunction) updateWithSequenceGroup(kv lakeform.KeyValue) error {
	for i := range f.getters {
		field := f.getters[i](kv.Value)
		sequenceGen := f.fieldSequences[i]
		aggregator := f.fieldAggregators[i]
		accumulator := f.getters[i](f.row)
		if sequenceGen == nil {
			if aggregator != nil {
				f.row.Set(i, aggregator.Agg(accumulator, field))
			} else if !field.IsNull() {
				f.row.Set(i, field)
			}
			continue
		}

		currentSeq, ok := sequenceGen.GenerateNullable(kv.Value)
		if !ok {
			// An update without an ordering value can not be ordered, leave
			// the field untouched.
			continue
		}
		previousSeq, hasPrevious := sequenceGen.GenerateNullable(f.row)
		if !hasPrevious || currentSeq >= previousSeq {
			if aggregator == nil {
				f.row.Set(i, field)
			} else {
				f.row.Set(i, aggregator.Agg(accumulator, field))
			}
		} else if aggregator != nil {
			// A late update still contributes; fold it in with reversed
			// operands so commutative aggregation stays correct.
			f.row.Set(i, aggregator.Agg(field, accumulator))
		}
	}
	return nil
}

func (f *PartialUpdateMergeFunction) retractWithSequenceGroup(kv lakeform.KeyValue) error {
	for i := range f.getters {
		sequenceGen := f.fieldSequences[i]
		if sequenceGen == nil {
			// Unsequenced fields are immune to point deletes; only full-row
			// deletes without sequence groups cover them.
			continue
		}
		currentSeq, ok := sequenceGen.GenerateNullable(kv.Value)
		if !ok {
			continue
		}
		previousSeq, hasPrevious := sequenceGen.GenerateNullable(f.row)
		aggregator := f.fieldAggregators[i]
		if !hasPrevious || currentSeq >= previousSeq {
			if sequenceGen.Index() == i {
				// The ordering column itself tracks the latest value seen.
				f.row.Set(i, f.getters[i](kv.Value))
			} else if aggregator == nil {
				f.row.Set(i, lakeform.NewNull())
			} else {
				accumulator := f.getters[i](f.row)
				reduced, err := aggregator.Retract(accumulator, f.getters[i](kv.Value))
				if err != nil {
					return errors.Wrapf(err, "couldn't retract field %d", i)
				}
				f.row.Set(i, reduced)
			}
		} else if aggregator != nil {
			// A late retraction must still unwind a previously applied
			// contribution.
			accumulator := f.getters[i](f.row)
			reduced, err := aggregator.Retract(accumulator, f.getters[i](kv.Value))
			if err != nil {
				return errors.Wrapf(err, "couldn't retract field %d", i)
			}
			f.row.Set(i, reduced)
		}
	}
	return nil
}

func (f *PartialUpdateMergeFunction) GetResult() *lakeform.KeyValue {
	if f.isEmpty {
		return nil
	}

	if f.reused == nil {
		f.reused = &lakeform.KeyValue{}
	}
	return f.reused.Replace(f.currentKey, f.latestSequenceNumber, lakeform.Insert, f.row)
}

type aggregatorSpec struct {
	prototype aggregate.Prototype
}

// PartialUpdateFactory validates the declarative configuration once and
// builds partial-update merge functions, optionally remapped onto a
// projection.
type PartialUpdateFactory struct {
	ignoreDelete     bool
	tableTypes       lakeform.RowType
	fieldSequences   map[int]*SequenceGenerator
	fieldAggregators map[int]aggregatorSpec
}

// NewPartialUpdateFactory parses sequence groups and per-field aggregation
// functions out of the options. All configuration errors surface here, never
// per record.
func NewPartialUpdateFactory(opts options.Options, rowType lakeform.RowType, primaryKeys []string) (*PartialUpdateFactory, error) {
	fieldNames := rowType.FieldNames()

	fieldSequences := make(map[int]*SequenceGenerator)
	for sequenceFieldName, dependents := range opts.SequenceGroups() {
		sequenceGen, err := NewSequenceGenerator(sequenceFieldName, rowType)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't build sequence group of field %s", sequenceFieldName)
		}
		for _, fieldName := range dependents {
			field := rowType.FieldIndex(fieldName)
			if field == -1 {
				return nil, errors.Errorf("field %s can not be found in table schema", fieldName)
			}
			if existing, ok := fieldSequences[field]; ok && existing != sequenceGen {
				return nil, errors.Errorf("field %s is defined repeatedly by multiple sequence groups", fieldNames[field])
			}
			fieldSequences[field] = sequenceGen
		}
		// The generator's own field joins its group.
		if existing, ok := fieldSequences[sequenceGen.Index()]; ok && existing != sequenceGen {
			return nil, errors.Errorf("field %s is defined repeatedly by multiple sequence groups", sequenceFieldName)
		}
		fieldSequences[sequenceGen.Index()] = sequenceGen
	}

	fieldAggregators, err := createFieldAggregators(opts, rowType, primaryKeys)
	if err != nil {
		return nil, err
	}
	if len(fieldAggregators) > 0 && len(fieldSequences) == 0 {
		return nil, errors.New("must use sequence group for aggregation functions")
	}

	return &PartialUpdateFactory{
		ignoreDelete:     opts.IgnoreDelete(),
		tableTypes:       rowType,
		fieldSequences:   fieldSequences,
		fieldAggregators: fieldAggregators,
	}, nil
}

// createFieldAggregators builds an aggregator prototype per configured field.
// Primary-key fields define row identity, not value, and are never
// aggregated.
func createFieldAggregators(opts options.Options, rowType lakeform.RowType, primaryKeys []string) (map[int]aggregatorSpec, error) {
	primaryKeySet := make(map[string]struct{}, len(primaryKeys))
	for _, name := range primaryKeys {
		primaryKeySet[name] = struct{}{}
	}

	fieldAggregators := make(map[int]aggregatorSpec)
	for i, field := range rowType.Fields {
		if _, isPrimaryKey := primaryKeySet[field.Name]; isPrimaryKey {
			continue
		}
		funcName := opts.FieldAggFunc(field.Name)
		if funcName == "" {
			continue
		}
		prototype, err := aggregate.New(funcName, field.Type, opts.FieldAggIgnoreRetract(field.Name))
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't build aggregate function of field %s", field.Name)
		}
		fieldAggregators[i] = aggregatorSpec{prototype: prototype}
	}
	return fieldAggregators, nil
}

// Create builds a merge-function instance, remapped onto the projection when
// one is given. Instances share no mutable state, so one factory may serve
// parallel compaction tasks.
func (f *PartialUpdateFactory) Create(nested [][]int) (MergeFunction, error) {
	if nested == nil {
		return newPartialUpdateMergeFunction(
			lakeform.FieldGetters(f.tableTypes),
			f.ignoreDelete,
			f.fieldSequences,
			f.instantiateAggregators(nil),
		), nil
	}

	projects := projection.Of(nested).ToTopLevelIndexes()
	indexMap := make(map[int]int, len(projects))
	for i, project := range projects {
		indexMap[project] = i
	}

	projectedSequences := make(map[int]*SequenceGenerator)
	for field, sequenceGen := range f.fieldSequences {
		newField, ok := indexMap[field]
		if !ok {
			continue
		}
		newSequenceIndex, ok := indexMap[sequenceGen.Index()]
		if !ok {
			return nil, errors.Errorf(
				"can not find new sequence field for new field %d, AdjustProjection must be applied to the projection first",
				newField)
		}
		projected, err := NewSequenceGeneratorAt(newSequenceIndex, sequenceGen.FieldType())
		if err != nil {
			return nil, err
		}
		projectedSequences[newField] = projected
	}

	return newPartialUpdateMergeFunction(
		lakeform.FieldGetters(projection.Of(nested).Project(f.tableTypes)),
		f.ignoreDelete,
		projectedSequences,
		f.instantiateAggregators(indexMap),
	), nil
}

// instantiateAggregators builds fresh aggregator instances, optionally
// remapped through old-index -> new-index.
func (f *PartialUpdateFactory) instantiateAggregators(indexMap map[int]int) map[int]aggregate.FieldAggregator {
	aggregators := make(map[int]aggregate.FieldAggregator, len(f.fieldAggregators))
	for field, spec := range f.fieldAggregators {
		if indexMap == nil {
			aggregators[field] = spec.prototype()
			continue
		}
		if newField, ok := indexMap[field]; ok {
			aggregators[newField] = spec.prototype()
		}
	}
	return aggregators
}

// AdjustProjection widens the physical projection so that every ordering
// column a requested field depends on is read too, and returns the outer
// projection selecting the originally requested columns back out.
func (f *PartialUpdateFactory) AdjustProjection(nested [][]int) AdjustedProjection {
	if len(f.fieldSequences) == 0 {
		return AdjustedProjection{Pushdown: nested}
	}
	if nested == nil {
		// Reading everything already includes every ordering column.
		return AdjustedProjection{}
	}

	topProjects := projection.Of(nested).ToTopLevelIndexes()
	indexSet := make(map[int]struct{}, len(topProjects))
	for _, index := range topProjects {
		indexSet[index] = struct{}{}
	}

	var extraFields []int
	for _, index := range topProjects {
		sequenceGen := f.fieldSequences[index]
		if sequenceGen == nil {
			continue
		}
		if _, ok := indexSet[sequenceGen.Index()]; !ok {
			indexSet[sequenceGen.Index()] = struct{}{}
			extraFields = append(extraFields, sequenceGen.Index())
		}
	}

	allProjects := make([]int, 0, len(topProjects)+len(extraFields))
	allProjects = append(allProjects, topProjects...)
	allProjects = append(allProjects, extraFields...)

	outerIndexes := make([]int, len(topProjects))
	for i := range topProjects {
		outerIndexes[i] = i
	}

	return AdjustedProjection{
		Pushdown: projection.TopLevel(allProjects).ToNestedIndexes(),
		Outer:    projection.TopLevel(outerIndexes).ToNestedIndexes(),
	}
}
