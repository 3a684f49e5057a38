package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MrSnakeDoc/hostsync/internal/reconcile"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func render(w io.Writer, format string, report reconcile.PassReport) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case outputTable, "":
		renderTable(w, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, outputTable, outputJSON)
	}
}

func renderTable(w io.Writer, report reconcile.PassReport) {
	if report.FetchError != "" {
		fmt.Fprintf(w, "%s %s\n", text.FgRed.Sprint("✗"), report.FetchError)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault

	if report.DryRun {
		t.SetTitle("Plan")
		t.AppendHeader(table.Row{"Host", "Action", "Changes"})
	} else {
		t.SetTitle("Apply")
		t.AppendHeader(table.Row{"Host", "Action", "Operations", "Result"})
	}

	for _, hr := range report.Hosts {
		changes := strings.Join(hr.Operations, "\n")
		if report.DryRun {
			t.AppendRow(table.Row{hr.Name, colorAction(hr.Action), changes})
			continue
		}
		result := text.FgGreen.Sprint("ok")
		if hr.Failed() {
			result = text.FgRed.Sprint(hr.Error)
		}
		t.AppendRow(table.Row{hr.Name, colorAction(hr.Action), changes, result})
	}

	footer := table.Row{"Total", len(report.Hosts), fmt.Sprintf("%d changed", report.Changed())}
	if !report.DryRun {
		footer = append(footer, fmt.Sprintf("%d failed", report.Failed()))
	}
	t.AppendFooter(footer)
	t.Render()
}

func colorAction(a reconcile.Action) string {
	switch a {
	case reconcile.ActionCreate:
		return text.FgGreen.Sprint(a)
	case reconcile.ActionUpdate:
		return text.FgYellow.Sprint(a)
	case reconcile.ActionDelete:
		return text.FgRed.Sprint(a)
	default:
		return text.Faint.Sprint(a)
	}
}
