package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/corraxdev/corrax/internal/pipeline"
)

const (
	formatJSON = "json"
	formatText = "text"
)

// renderResult writes a pipeline.Result to w in the requested format.
func renderResult(w io.Writer, res *pipeline.Result, format string) error {
	if format == formatJSON {
		return renderJSON(w, res)
	}

	return renderText(w, res)
}

func renderJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}

func renderText(w io.Writer, res *pipeline.Result) error {
	renderSummaryLine(w, res)
	renderWarnings(w, res)
	renderFilesTable(w, res)
	renderStagesTable(w, res)
	renderErrorsTable(w, res)

	return nil
}

func renderWarnings(w io.Writer, res *pipeline.Result) {
	if len(res.Warnings) == 0 {
		return
	}

	yellow := color.New(color.FgYellow)

	for _, warning := range res.Warnings {
		yellow.Fprintf(w, "warning: %s\n", warning)
	}

	fmt.Fprintln(w)
}

func renderSummaryLine(w io.Writer, res *pipeline.Result) {
	statusColor := color.New(color.FgGreen)
	status := "ok"

	if res.Aborted {
		statusColor = color.New(color.FgRed)
		status = "aborted: " + res.AbortCause
	} else if len(res.Errors) > 0 {
		statusColor = color.New(color.FgYellow)
		status = fmt.Sprintf("completed with %d error(s)", len(res.Errors))
	}

	statusColor.Fprintf(w, "corrax analyze: %s\n", status)
	fmt.Fprintf(w, "files: %d  nodes: %d  edges: %d  cache hit rate: %.1f%%\n\n",
		len(res.Files), res.TotalNodes, res.TotalEdges, res.HitRate()*100)
}

func renderFilesTable(w io.Writer, res *pipeline.Result) {
	if len(res.Files) == 0 {
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Language", "LOC", "Nodes", "Edges", "Cached"})

	for _, f := range res.Files {
		tbl.AppendRow(table.Row{f.Path, f.Language, f.LinesOfCode, f.NodeCount, f.EdgeCount, f.CacheHit})
	}

	tbl.Render()
	fmt.Fprintln(w)
}

func renderStagesTable(w io.Writer, res *pipeline.Result) {
	if len(res.Stages) == 0 {
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Stage", "Duration"})

	for _, s := range res.Stages {
		tbl.AppendRow(table.Row{s.Stage, s.Duration})
	}

	tbl.Render()
	fmt.Fprintln(w)
}

func renderErrorsTable(w io.Writer, res *pipeline.Result) {
	if len(res.Errors) == 0 {
		return
	}

	red := color.New(color.FgRed)
	red.Fprintln(w, "Errors:")

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Path", "Stage", "Kind", "Message"})

	for _, e := range res.Errors {
		tbl.AppendRow(table.Row{e.Path, e.Stage, e.Kind, e.Message})
	}

	tbl.Render()
}
