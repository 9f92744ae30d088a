package main

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"campack/internal/inventory"
	"campack/internal/pipeline"
)

// renderRunResult prints the inventory summary, preflight checklist,
// and review flags for one run.
func renderRunResult(out io.Writer, result *pipeline.RunResult) {
	if len(result.Rows) > 0 {
		fmt.Fprintln(out, renderInventoryTable(result.Rows, result.SelectedClips))
	}
	if len(result.Checks) > 0 {
		fmt.Fprintln(out, renderChecklist(result))
	}
	for _, flag := range result.Flags {
		fmt.Fprintf(out, "REVIEW: %s\n", flag)
	}
	if result.DryRun {
		fmt.Fprintln(out, "Dry run: nothing was written.")
		return
	}
	if result.PackagePath != "" {
		fmt.Fprintf(out, "Package: %s\n", result.PackagePath)
	}
}

func renderInventoryTable(rows []inventory.Row, selected []int) string {
	headers := []string{"CARD", "TYPE", "CLIP", "FILE", "MEDIA", "DURATION", "SEL", "PATH"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft, alignLeft}

	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		clip := ""
		mark := ""
		if row.MediaType == inventory.MediaVideo {
			clip = strconv.Itoa(row.ClipIndex)
			if slices.Contains(selected, row.ClipIndex) {
				mark = "*"
			}
		}
		duration := ""
		if row.Duration > 0 {
			duration = fmt.Sprintf("%.1fs", row.Duration)
		}
		body = append(body, []string{
			strconv.Itoa(row.CardIndex),
			string(row.CardType),
			clip,
			strconv.Itoa(row.FileIndex),
			string(row.MediaType),
			duration,
			mark,
			filepath.Base(row.Path),
		})
	}
	return renderTable(headers, body, aligns)
}

func renderChecklist(result *pipeline.RunResult) string {
	headers := []string{"CHECK", "RESULT", "DETAIL"}
	body := make([][]string, 0, len(result.Checks))
	for _, check := range result.Checks {
		status := "PASS"
		if !check.Passed {
			status = "FAIL"
		}
		body = append(body, []string{check.Name, status, check.Detail})
	}
	var builder strings.Builder
	builder.WriteString(renderTable(headers, body, []columnAlignment{alignLeft, alignLeft, alignLeft}))
	return builder.String()
}
