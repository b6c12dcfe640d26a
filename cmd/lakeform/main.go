package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fastjson"

	"github.com/lakeform/lakeform"
	"github.com/lakeform/lakeform/compact"
	"github.com/lakeform/lakeform/mergetree"
	"github.com/lakeform/lakeform/options"
)

// rootCmd replays a JSON-lines change stream through the table's configured
// merge function and prints the merged rows. Each input line is an object
// with one member per schema field, plus "_seq" (sequence number) and
// optionally "_kind" ("+I", "+U", "-D"; defaults to "+I").
var rootCmd = &cobra.Command{
	Use:           "lakeform <table.yaml> <records.jsonl>",
	Short:         "Replay a change stream through a table's merge engine",
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := options.ReadTableConfig(args[0])
		if err != nil {
			return fmt.Errorf("couldn't read table definition: %w", err)
		}
		rowType, err := config.RowType()
		if err != nil {
			return fmt.Errorf("couldn't resolve table schema: %w", err)
		}

		factory, err := compact.NewMergeFunctionFactory(options.Options(config.Options), rowType, config.PrimaryKeys)
		if err != nil {
			return fmt.Errorf("couldn't build merge function factory: %w", err)
		}
		merger, err := factory.Create(nil)
		if err != nil {
			return fmt.Errorf("couldn't create merge function: %w", err)
		}

		keyIndexes := make([]int, len(config.PrimaryKeys))
		for i, name := range config.PrimaryKeys {
			index := rowType.FieldIndex(name)
			if index == -1 {
				return fmt.Errorf("primary key %s can not be found in table schema", name)
			}
			keyIndexes[i] = index
		}

		buffer := mergetree.NewWriteBuffer()
		if err := readRecords(args[1], rowType, keyIndexes, buffer); err != nil {
			return err
		}

		fieldNames := rowType.FieldNames()
		fmt.Println(strings.Join(fieldNames, "\t"))
		return buffer.ForEach(merger, func(kv *lakeform.KeyValue) error {
			out := make([]string, len(kv.Value))
			for i, value := range kv.Value {
				out[i] = value.String()
			}
			fmt.Println(strings.Join(out, "\t"))
			return nil
		})
	},
}

func readRecords(path string, rowType lakeform.RowType, keyIndexes []int, buffer *mergetree.WriteBuffer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("couldn't open records file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(bufio.NewReaderSize(f, 4096*1024))
	sc.Buffer(nil, 1024*1024)

	var p fastjson.Parser
	line := 0
	for sc.Scan() {
		line++
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		v, err := p.ParseBytes(sc.Bytes())
		if err != nil {
			return fmt.Errorf("couldn't parse json on line %d: %w", line, err)
		}
		o, err := v.Object()
		if err != nil {
			return fmt.Errorf("expected JSON object on line %d, got '%s'", line, sc.Text())
		}

		values := make(lakeform.Row, len(rowType.Fields))
		for i, field := range rowType.Fields {
			values[i] = jsonValue(field.Type, o.Get(field.Name))
		}

		seq := o.Get("_seq")
		if seq == nil {
			return fmt.Errorf("record on line %d is missing '_seq'", line)
		}
		sequenceNumber, err := seq.Uint64()
		if err != nil {
			return fmt.Errorf("couldn't parse '_seq' on line %d: %w", line, err)
		}

		kind := lakeform.Insert
		if k := o.Get("_kind"); k != nil {
			b, _ := k.StringBytes()
			switch string(b) {
			case "+I":
				kind = lakeform.Insert
			case "+U":
				kind = lakeform.UpdateAfter
			case "-U":
				kind = lakeform.UpdateBefore
			case "-D":
				kind = lakeform.Delete
			default:
				return fmt.Errorf("unknown '_kind' on line %d: %s", line, string(b))
			}
		}

		key := make(lakeform.Row, len(keyIndexes))
		for i, index := range keyIndexes {
			key[i] = values[index]
		}

		buffer.Put(lakeform.NewKeyValue(key, sequenceNumber, kind, values))
	}
	return sc.Err()
}

func jsonValue(t lakeform.Type, value *fastjson.Value) lakeform.Value {
	if value == nil || value.Type() == fastjson.TypeNull {
		return lakeform.NewNull()
	}

	switch t.TypeID {
	case lakeform.TypeIDInt:
		if value.Type() == fastjson.TypeNumber {
			v, _ := value.Int64()
			return lakeform.NewInt(v)
		}
	case lakeform.TypeIDFloat:
		if value.Type() == fastjson.TypeNumber {
			v, _ := value.Float64()
			return lakeform.NewFloat(v)
		}
	case lakeform.TypeIDBoolean:
		if value.Type() == fastjson.TypeTrue {
			return lakeform.NewBoolean(true)
		} else if value.Type() == fastjson.TypeFalse {
			return lakeform.NewBoolean(false)
		}
	case lakeform.TypeIDString:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			return lakeform.NewString(string(v))
		}
	case lakeform.TypeIDTime:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			if parsed, err := time.Parse(time.RFC3339Nano, string(v)); err == nil {
				return lakeform.NewTime(parsed)
			}
		}
	case lakeform.TypeIDDuration:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			if parsed, err := time.ParseDuration(string(v)); err == nil {
				return lakeform.NewDuration(parsed)
			}
		}
	case lakeform.TypeIDList:
		if value.Type() == fastjson.TypeArray {
			elements, _ := value.Array()
			out := make([]lakeform.Value, len(elements))
			for i, element := range elements {
				out[i] = jsonValue(*t.List.Element, element)
			}
			return lakeform.NewList(out)
		}
	}
	return lakeform.NewNull()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%s", err)
	}
}
