package main

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatCSV   = "csv"
)

func validFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatYAML, formatCSV:
		return nil
	}
	return eris.Errorf("--format must be table, json, yaml or csv (got %q)", f)
}

// view is one command result in every output format.
type view struct {
	data  any
	table func(w io.Writer)
	csv   func() [][]string
}

func render(w io.Writer, format string, v view) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v.data)
	case formatYAML:
		return writeYAML(w, v.data)
	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(v.csv()); err != nil {
			return eris.Wrap(err, "write csv")
		}
		return nil
	default:
		v.table(w)
		return nil
	}
}

// writeYAML emits v with the same keys and field order as its JSON form.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "marshal yaml")
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return eris.Wrap(err, "marshal yaml")
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return eris.Wrap(err, "write yaml")
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
