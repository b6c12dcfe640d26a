package options

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lakeform/lakeform"
)

type FieldConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// TableConfig is the YAML table definition consumed by tooling: the schema,
// the primary key and the option map everything else is configured through.
type TableConfig struct {
	Name        string            `yaml:"name"`
	Fields      []FieldConfig     `yaml:"fields"`
	PrimaryKeys []string          `yaml:"primaryKeys"`
	Options     map[string]string `yaml:"options"`
}

func ReadTableConfig(path string) (*TableConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	var config TableConfig

	if err := yaml.NewDecoder(f).Decode(&config); err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml table definition")
	}

	return &config, nil
}

// RowType resolves the configured field list into a schema.
func (c *TableConfig) RowType() (lakeform.RowType, error) {
	fields := make([]lakeform.DataField, len(c.Fields))
	for i, field := range c.Fields {
		t, err := parseType(field.Type)
		if err != nil {
			return lakeform.RowType{}, errors.Wrapf(err, "couldn't parse type of field %s", field.Name)
		}
		fields[i] = lakeform.DataField{Name: field.Name, Type: t}
	}
	return lakeform.NewRowType(fields), nil
}

func parseType(name string) (lakeform.Type, error) {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)

	if strings.HasPrefix(lower, "array<") && strings.HasSuffix(lower, ">") {
		element, err := parseType(name[len("array<") : len(name)-1])
		if err != nil {
			return lakeform.Type{}, err
		}
		t := lakeform.Type{TypeID: lakeform.TypeIDList}
		t.List.Element = &element
		return t, nil
	}

	switch lower {
	case "int", "bigint":
		return lakeform.Int, nil
	case "float", "double":
		return lakeform.Float, nil
	case "boolean", "bool":
		return lakeform.Boolean, nil
	case "string", "varchar":
		return lakeform.String, nil
	case "time", "timestamp":
		return lakeform.Time, nil
	case "duration":
		return lakeform.Duration, nil
	}
	return lakeform.Type{}, errors.Errorf("unknown type name: %s", name)
}
