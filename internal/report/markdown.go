package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/stevehiehn/theaterdash/internal/summary"
)

var mdReplacer = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r\n", " ",
	"\n", " ",
)

// escapeMD makes external text inert inside a Markdown table cell or list
// item: no raw HTML, links, code spans or cell breaks.
func escapeMD(s string) string {
	return mdReplacer.Replace(s)
}

var markdownTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"md":       escapeMD,
	"duration": func(f float64) string { return fmt.Sprintf("%.2f", f) },
}).Parse(`# Theater analysis run report

- Run: {{md .RunID}}
- Started: {{.StartedAt}}
- Finished: {{.FinishedAt}}
- Duration: {{duration .DurationSeconds}}s

## Steps

| Step | Status | Message |
| --- | --- | --- |
{{range .Steps}}| {{md .Name}} | {{.Status}} | {{md .Message}} |
{{end}}
## Generated files
{{range .GeneratedFiles}}
- {{md .}}{{else}}
- none{{end}}

## Skipped steps
{{range .SkippedSteps}}
- {{md .}}{{else}}
- none{{end}}

## Failed steps
{{range .FailedSteps}}
- {{md .}}{{else}}
- none{{end}}
`))

// RenderMarkdown writes the Markdown run report for s.
func RenderMarkdown(w io.Writer, s summary.RunSummary) error {
	return markdownTmpl.Execute(w, s)
}

// WriteMarkdown renders the Markdown report and replaces path with it.
func WriteMarkdown(path string, s summary.RunSummary) error {
	var b strings.Builder
	if err := RenderMarkdown(&b, s); err != nil {
		return fmt.Errorf("rendering markdown report: %w", err)
	}
	return writeAtomic(path, []byte(b.String()))
}
