package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/linguista/internal/core/chart"
	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
	"github.com/kirillkom/linguista/internal/core/render"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatXLSX  Format = "xlsx"
)

const maxSheetName = 31

// output is a command result printable in every format.
type output interface {
	data() any
	table(w io.Writer) error
	workbook(f *excelize.File) error
}

// emit writes o to path, or to stdout when path is empty.
func (c *CLI) emit(format Format, path string, o output) (err error) {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
	case FormatXLSX:
		if path == "" {
			return fmt.Errorf("xlsx output needs -out")
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	w := c.out
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer func() {
			if closeErr := file.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("close %s: %w", path, closeErr)
			}
		}()
		w = file
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(o.data())
	case FormatYAML:
		return writeYAML(w, o.data())
	case FormatXLSX:
		return writeWorkbook(w, o)
	default:
		return o.table(w)
	}
}

// writeYAML goes through JSON so the YAML keys match the JSON field names.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func writeWorkbook(w io.Writer, o output) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := o.workbook(f); err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	if len(header) > 0 {
		table.SetHeader(header)
		table.SetAutoFormatHeaders(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	}
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// sheetName trims name to a valid, unused worksheet name.
func sheetName(f *excelize.File, name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, name)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	candidate := name
	for i := 2; ; i++ {
		if idx, _ := f.GetSheetIndex(candidate); idx < 0 {
			return candidate
		}
		suffix := fmt.Sprintf(" %d", i)
		candidate = name[:min(len(name), maxSheetName-len(suffix))] + suffix
	}
}

// writeRows fills sheet from A1 downwards.
func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

type taskList []domain.TaskInfo

func (t taskList) data() any {
	return map[string]any{"tasks": []domain.TaskInfo(t)}
}

func (t taskList) table(w io.Writer) error {
	table := newTable(w, "ID", "Label", "Comparison Text", "Chart")
	for _, info := range t {
		table.Append([]string{string(info.Task), info.Label, yesNo(info.RequiresComparison), string(info.Chart)})
	}
	table.Render()
	return nil
}

func (t taskList) workbook(f *excelize.File) error {
	if err := f.SetSheetName("Sheet1", "Tasks"); err != nil {
		return err
	}
	rows := [][]any{{"ID", "Label", "Comparison Text", "Chart"}}
	for _, info := range t {
		rows = append(rows, []any{string(info.Task), info.Label, info.RequiresComparison, string(info.Chart)})
	}
	return writeRows(f, "Tasks", rows)
}

type analysisOutput struct {
	analysis *ports.Analysis
	width    int
}

func (a analysisOutput) data() any { return a.analysis }

func (a analysisOutput) table(w io.Writer) error {
	if err := writeView(w, a.analysis.View, a.analysis.Request.Library); err != nil {
		return err
	}
	if a.analysis.Chart == nil {
		return nil
	}
	fmt.Fprintln(w)
	inst, err := chart.TextCanvas{Out: w, Width: a.width}.Draw(*a.analysis.Chart)
	if err != nil {
		return err
	}
	return inst.Release()
}

// writeView prints a rendered result as headings, tables and wrapped lists.
func writeView(w io.Writer, view render.View, library domain.Library) error {
	fmt.Fprintf(w, "%s (%s)\n", heading(view.Label), library)
	if !view.Known {
		fmt.Fprintln(w, view.Dump)
		return nil
	}
	if len(view.Stats) > 0 {
		fmt.Fprintln(w)
		table := newTable(w)
		for _, s := range view.Stats {
			table.Append([]string{s.Label, s.Value})
		}
		table.Render()
	}
	for _, section := range view.Sections {
		fmt.Fprintln(w)
		fmt.Fprintln(w, subheading(section.Title))
		switch section.Kind {
		case render.KindTokens:
			if len(section.Items) == 0 {
				fmt.Fprintln(w, "(none)")
				continue
			}
			fmt.Fprintln(w, wrap(section.Items, 76))
		case render.KindPairs:
			if len(section.Pairs) == 0 {
				fmt.Fprintln(w, "(none)")
				continue
			}
			table := newTable(w)
			for _, p := range section.Pairs {
				table.Append([]string{p.Key, p.Value})
			}
			table.Render()
		case render.KindText:
			fmt.Fprintln(w, section.Text)
		}
	}
	return nil
}

func (a analysisOutput) workbook(f *excelize.File) error {
	view := a.analysis.View
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return err
	}
	rows := [][]any{
		{"Task", view.Label},
		{"Library", string(a.analysis.Request.Library)},
	}
	for _, s := range view.Stats {
		rows = append(rows, []any{s.Label, s.Value})
	}
	if !view.Known {
		rows = append(rows, []any{"Result", view.Dump})
	}
	if err := writeRows(f, "Summary", rows); err != nil {
		return err
	}

	for _, section := range view.Sections {
		name := sheetName(f, section.Title)
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		var rows [][]any
		switch section.Kind {
		case render.KindTokens:
			for _, item := range section.Items {
				rows = append(rows, []any{item})
			}
		case render.KindPairs:
			for _, p := range section.Pairs {
				rows = append(rows, []any{p.Key, p.Value})
			}
		case render.KindText:
			rows = [][]any{{section.Text}}
		}
		if err := writeRows(f, name, rows); err != nil {
			return err
		}
	}

	if cfg := a.analysis.Chart; cfg != nil && len(cfg.Series) > 0 {
		name := sheetName(f, "Chart")
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		rows := [][]any{{cfg.Title}}
		for i, label := range cfg.Labels {
			if i < len(cfg.Series[0].Data) {
				rows = append(rows, []any{label, cfg.Series[0].Data[i]})
			}
		}
		if err := writeRows(f, name, rows); err != nil {
			return err
		}
	}
	return nil
}

// wrap joins items with commas, breaking lines at width.
func wrap(items []string, width int) string {
	var b strings.Builder
	line := 0
	for i, item := range items {
		piece := item
		if i < len(items)-1 {
			piece += ","
		}
		if line > 0 && line+1+len(piece) > width {
			b.WriteByte('\n')
			line = 0
		} else if line > 0 {
			b.WriteByte(' ')
			line++
		}
		b.WriteString(piece)
		line += len(piece)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
