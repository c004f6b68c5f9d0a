// Package report renders the run dashboard and the Markdown run report.
package report

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/stevehiehn/theaterdash/internal/registry"
	"github.com/stevehiehn/theaterdash/internal/summary"
)

// DefaultPreviewRows bounds the keyword table preview.
const DefaultPreviewRows = 10

//go:embed dashboard.html.tmpl
var dashboardSource string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardSource))

type card struct {
	Title   string
	File    string
	Kind    string
	Present bool
	Reason  string
	Size    string
	DataURI template.URL
	SrcDoc  string
	Table   *tablePreview
}

type tablePreview struct {
	Headers []string
	Rows    [][]string
	Limit   int
	Err     string
}

type section struct {
	ID    string
	Title string
	Cards []card
}

type page struct {
	Summary  summary.RunSummary
	Kept     bool
	Sections []section
	Tables   []card
}

var sectionTitles = []struct{ id, title string }{
	{registry.SectionMovies, "A. Movie indicators"},
	{registry.SectionMaps, "B. Maps"},
	{registry.SectionOther, "C. Other analysis"},
}

// Render writes the dashboard for s. Missing artifacts become placeholder
// cards; the only errors are template and write failures.
func Render(w io.Writer, arts Artifacts, s summary.RunSummary) error {
	limit := arts.PreviewRows
	if limit < 1 {
		limit = DefaultPreviewRows
	}

	p := page{Summary: s, Kept: arts.KeepIntermediates}
	for _, st := range sectionTitles {
		sec := section{ID: st.id, Title: st.title}
		for _, a := range arts.Section(st.id) {
			sec.Cards = append(sec.Cards, buildCard(a, limit))
		}
		p.Sections = append(p.Sections, sec)
	}
	for _, a := range arts.Section(registry.SectionTables) {
		p.Tables = append(p.Tables, buildCard(a, limit))
	}

	return dashboardTmpl.Execute(w, p)
}

// WriteDashboard renders into memory and then replaces path, so a failed
// render never leaves a truncated dashboard behind. A panic while rendering
// is returned as an error.
func WriteDashboard(path string, arts Artifacts, s summary.RunSummary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dashboard render panicked: %v", r)
		}
	}()

	var buf bytes.Buffer
	if err := Render(&buf, arts, s); err != nil {
		return fmt.Errorf("rendering dashboard: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

func buildCard(a Artifact, limit int) card {
	c := card{
		Title:  a.Role.Title,
		File:   filepath.Base(a.Path),
		Kind:   a.Role.Kind,
		Reason: a.Reason,
	}
	info, err := os.Stat(a.Path)
	if err != nil || !info.Mode().IsRegular() {
		return c
	}
	c.Present = true
	c.Size = humanize.Bytes(uint64(info.Size()))

	switch a.Role.Kind {
	case registry.KindImage:
		uri, err := dataURI(a.Path)
		if err != nil {
			c.Present = false
			c.Reason = err.Error()
			return c
		}
		c.DataURI = uri
	case registry.KindHTML:
		data, err := os.ReadFile(a.Path)
		if err != nil {
			c.Present = false
			c.Reason = err.Error()
			return c
		}
		c.SrcDoc = strings.ToValidUTF8(string(data), "")
	case registry.KindTable:
		c.Table = readPreview(a.Path, limit)
	}
	return c
}

// dataURI inlines a file. The value is built here from base64 output only,
// so it is safe to hand to the template as a URL.
func dataURI(path string) (template.URL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	typ := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if typ == "" {
		typ = "application/octet-stream"
	}
	return template.URL("data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readPreview returns the header and at most limit data rows of a CSV file.
func readPreview(path string, limit int) *tablePreview {
	tp := &tablePreview{Limit: limit}
	f, err := os.Open(path)
	if err != nil {
		tp.Err = err.Error()
		return tp
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return tp
	}
	if err != nil {
		tp.Err = err.Error()
		return tp
	}
	tp.Headers = header
	for len(tp.Rows) < limit {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			tp.Err = err.Error()
			tp.Rows = nil
			return tp
		}
		tp.Rows = append(tp.Rows, row)
	}
	return tp
}

// WriteFallback writes a minimal error page at path.
func WriteFallback(path string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	var buf bytes.Buffer
	if err := fallbackTmpl.Execute(&buf, msg); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

var fallbackTmpl = template.Must(template.New("fallback").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>Dashboard Error</title></head>
<body><h1>Dashboard generation failed</h1><p>{{.}}</p></body></html>
`))

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".render-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
