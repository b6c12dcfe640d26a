// Package options holds the configuration surface of a table: a flat
// string-keyed map plus typed accessors for the keys the merge engine reads.
package options

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MergeEngine               = "merge-engine"
	PartialUpdateIgnoreDelete = "partial-update.ignore-delete"

	FieldsPrefix = "fields"

	SequenceGroup     = "sequence-group"
	AggregateFunction = "aggregate-function"
	IgnoreRetract     = "ignore-retract"
)

const (
	MergeEngineDeduplicate   = "deduplicate"
	MergeEnginePartialUpdate = "partial-update"
)

// Options is an immutable view over a table's declarative configuration.
type Options map[string]string

func (o Options) String(key string, defaultValue string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return defaultValue
}

func (o Options) Bool(key string, defaultValue bool) bool {
	v, ok := o[key]
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (o Options) MergeEngine() string {
	return o.String(MergeEngine, MergeEngineDeduplicate)
}

func (o Options) IgnoreDelete() bool {
	return o.Bool(PartialUpdateIgnoreDelete, false)
}

func fieldKey(fieldName, suffix string) string {
	return fmt.Sprintf("%s.%s.%s", FieldsPrefix, fieldName, suffix)
}

// FieldAggFunc returns the aggregation function configured for the field, or
// "" if none.
func (o Options) FieldAggFunc(fieldName string) string {
	return o.String(fieldKey(fieldName, AggregateFunction), "")
}

func (o Options) FieldAggIgnoreRetract(fieldName string) bool {
	return o.Bool(fieldKey(fieldName, IgnoreRetract), false)
}

// SequenceGroups returns, per declared sequence field, the comma-separated
// dependent field names, iterating every `fields.<field>.sequence-group` key.
func (o Options) SequenceGroups() map[string][]string {
	groups := make(map[string][]string)
	for k, v := range o {
		if !strings.HasPrefix(k, FieldsPrefix+".") || !strings.HasSuffix(k, "."+SequenceGroup) {
			continue
		}
		if len(k) <= len(FieldsPrefix)+len(SequenceGroup)+2 {
			continue
		}
		sequenceFieldName := k[len(FieldsPrefix)+1 : len(k)-len(SequenceGroup)-1]
		var dependents []string
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				dependents = append(dependents, name)
			}
		}
		groups[sequenceFieldName] = dependents
	}
	return groups
}
