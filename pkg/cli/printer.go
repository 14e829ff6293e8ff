package cli

import (
	"encoding/json"
	"fmt"
	"io"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/cli-runtime/pkg/printers"
	"sigs.k8s.io/yaml"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (table|json|yaml)", format)
}

// printObject writes obj as indented JSON or as YAML
func printObject(w io.Writer, format string, obj any) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := yaml.Marshal(obj)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// table collects rows for the kubectl-style table printer
type table struct {
	metav1.Table
}

func newTable(columns ...string) *table {
	t := &table{}
	for _, c := range columns {
		t.ColumnDefinitions = append(t.ColumnDefinitions, metav1.TableColumnDefinition{Name: c, Type: "string"})
	}
	return t
}

func (t *table) addRow(cells ...any) {
	t.Rows = append(t.Rows, metav1.TableRow{Cells: cells})
}

// print writes the table, or a notice on errOut when it has no rows
func (t *table) print(out, errOut io.Writer) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(errOut, "No resources found.")
		return err
	}
	return printers.NewTablePrinter(printers.PrintOptions{}).PrintObj(&t.Table, out)
}

// render prints rows as a table or obj in the structured format
func (o *Options) render(obj any, rows func() *table) error {
	if o.Output == outputTable {
		return rows().print(o.Out, o.ErrOut)
	}
	return printObject(o.Out, o.Output, obj)
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
