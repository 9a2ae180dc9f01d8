package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// block drops the flow style yaml keeps from its JSON input.
func block(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		block(child)
	}
}

// encodeYAML goes through JSON so that the types' own encoding, including
// key order, is kept.
func encodeYAML(w io.Writer, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	block(&node)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&node); err != nil {
		return err
	}
	return encoder.Close()
}

// print writes value in the selected format. text renders it for people.
func (a *App) print(value any, text func(w io.Writer) error) error {
	switch a.format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case "yaml":
		return encodeYAML(os.Stdout, value)
	}

	return text(os.Stdout)
}

// table writes aligned rows; the first is the header.
func table(w io.Writer, rows [][]string) error {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(writer, strings.Join(row, "\t"))
	}
	return writer.Flush()
}

func percent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

func signed(value int) string {
	if value > 0 {
		return fmt.Sprintf("+%d", value)
	}
	return fmt.Sprint(value)
}
