package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/de-tools/wasteops/pkg/adapters"
	"github.com/de-tools/wasteops/pkg/models/api"
	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/reports"
)

type TableConfig struct {
	ColumnWidth int
	MaxColumns  int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		ColumnWidth: 20,
		MaxColumns:  8,
	}
}

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

type Reporter struct {
	writer io.Writer
	config TableConfig
	format Format
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
		format: FormatTable,
	}
}

// WithFormat returns a reporter writing to the same output in format f.
func (c *Reporter) WithFormat(f Format) (*Reporter, error) {
	switch f {
	case FormatTable, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported output format %q", f)
	}
	cp := *c
	cp.format = f
	return &cp, nil
}

type tableView struct {
	domain.ReportView
	Columns []string
	Rows    [][]string
	Error   string
}

func (c *Reporter) Handle(view domain.ReportView) error {
	if c.format == FormatJSON {
		enc := json.NewEncoder(c.writer)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(adapters.MapReportViewDomainToApi(view))
	}

	funcMap := template.FuncMap{
		"formatRow": func(cells []string) string {
			parts := make([]string, 0, len(cells))
			for _, cell := range cells {
				parts = append(parts, fmt.Sprintf(" %-*s ", c.config.ColumnWidth, truncate(cell, c.config.ColumnWidth)))
			}
			return "|" + strings.Join(parts, "|") + "|"
		},
		"separator": func(n int) string {
			return "+" + strings.Repeat(strings.Repeat("-", c.config.ColumnWidth+2)+"+", n)
		},
	}

	tmpl := `
{{.Title}}
City: {{if .Context.City}}{{.Context.City.City}}{{else}}-{{end}}  Date: {{with index .Params "date"}}{{.}}{{else}}-{{end}}
Showing {{len .Records}} of {{.Total}} records, {{.Summary.Failing}} failing
{{range .Summary.Flags}}{{.Flag}}: {{.Passed}} passed ({{printf "%.1f" .Rate}}%)
{{end}}{{range .Groups}}{{.Name}}: {{.Incorrect}} / {{.Total}} incorrect
{{end}}{{if .Error}}
Error: {{.Error}} (showing previously loaded records)
{{end}}{{if .Columns}}
{{separator (len .Columns)}}
{{formatRow .Columns}}
{{separator (len .Columns)}}
{{range .Rows}}{{formatRow .}}
{{end}}{{separator (len .Columns)}}
{{end}}
Link: {{.ShareURL}}
`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tv := tableView{ReportView: view}
	tv.Columns = c.columns(view.Records)
	for i, r := range view.Records {
		row := make([]string, 0, len(tv.Columns))
		for _, col := range tv.Columns {
			if col == "call" {
				row = append(row, callCell(view.CallLinks, i))
				continue
			}
			v, _ := r.Lookup(col)
			row = append(row, cell(v))
		}
		tv.Rows = append(tv.Rows, row)
	}
	if view.Err != nil {
		tv.Error = view.Err.Error()
	}

	return t.Execute(c.writer, tv)
}

// HandleCatalog lists the available reports.
func (c *Reporter) HandleCatalog(sources []reports.Source) error {
	if c.format == FormatJSON {
		out := make([]any, 0, len(sources))
		for _, src := range sources {
			out = append(out, adapters.MapSourceToApi(src))
		}
		return json.NewEncoder(c.writer).Encode(out)
	}
	for _, src := range sources {
		if _, err := fmt.Fprintf(c.writer, "%-22s %-40s default date: %s\n", src.Name, src.Route, src.DefaultDate); err != nil {
			return err
		}
	}
	return nil
}

// HandleContext prints the shared context of a session.
func (c *Reporter) HandleContext(s domain.Snapshot) error {
	if c.format == FormatJSON {
		return json.NewEncoder(c.writer).Encode(adapters.MapSnapshotDomainToApi(s))
	}
	_, err := fmt.Fprintf(c.writer, "city: %s\ndate: %s\nrange: %s .. %s\n",
		orDash(s.CityName()), orDash(s.Date), orDash(s.DateRange.Start), orDash(s.DateRange.End))
	return err
}

// HandleLink prints a shareable link.
func (c *Reporter) HandleLink(link string) error {
	if c.format == FormatJSON {
		enc := json.NewEncoder(c.writer)
		enc.SetEscapeHTML(false)
		return enc.Encode(api.Link{URL: link})
	}
	return c.Println(link)
}

func (c *Reporter) Println(a ...any) error {
	_, err := fmt.Fprintln(c.writer, a...)
	return err
}

// columns picks the scalar fields present in the records, sorted, plus a
// call column when any record has a phone number.
func (c *Reporter) columns(records []domain.Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range records {
		for k, v := range r {
			if _, nested := v.(map[string]any); nested || seen[k] {
				continue
			}
			seen[k] = true
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	if c.config.MaxColumns > 0 && len(cols) > c.config.MaxColumns-1 {
		cols = cols[:c.config.MaxColumns-1]
	}
	if len(records) > 0 {
		cols = append(cols, "call")
	}
	return cols
}

func callCell(links []map[string]string, i int) string {
	if i >= len(links) {
		return ""
	}
	keys := make([]string, 0, len(links[i]))
	for k := range links[i] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(links[i][k], "tel:"))
	}
	return strings.Join(out, ", ")
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	default:
		return fmt.Sprint(t)
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
