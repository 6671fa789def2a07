package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type printer struct {
	format string
	out    io.Writer
}

func newPrinter(format string, out io.Writer) (*printer, error) {
	switch strings.ToLower(format) {
	case formatTable, "":
		return &printer{format: formatTable, out: out}, nil
	case formatJSON:
		return &printer{format: formatJSON, out: out}, nil
	case formatYAML, "yml":
		return &printer{format: formatYAML, out: out}, nil
	}
	return nil, errors.Wrapf(errors.ErrInvalidRequest, "unknown output format %q (want table, json or yaml)", format)
}

// print writes v as JSON or YAML, or hands a tabwriter to table for the table format.
func (p *printer) print(v any, table func(w *tabwriter.Writer)) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return p.yaml(v)
	}
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	table(w)
	return w.Flush()
}

// yaml goes through JSON first so field names match the API's json tags.
func (p *printer) yaml(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(p.out)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// title prints a coloured heading in table mode only.
func (p *printer) title(format string, args ...any) {
	if p.format != formatTable {
		return
	}
	color.New(color.FgCyan, color.Bold).Fprintf(p.out, format+"\n", args...)
}

// success prints a confirmation in table mode, or {"message": ...} otherwise.
func (p *printer) success(msg string) error {
	if p.format != formatTable {
		return p.print(map[string]string{"message": msg}, nil)
	}
	color.New(color.FgGreen).Fprintln(p.out, msg)
	return nil
}

func row(w io.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// pageFooter matches the dashboard's pager wording.
func pageFooter(w io.Writer, page, totalPages, total int) {
	fmt.Fprintf(w, "\nPage %d of %d (%d total)\n", page, totalPages, total)
}
