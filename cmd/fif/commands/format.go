package commands

import (
	"fmt"
	"time"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// Every command prints through these so the output stays uniform
// ═══════════════════════════════════════════════════════════

// PrintStageHeader prints a formatted header for one pipeline stage
func PrintStageHeader(stage contracts.Stage, runID string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s - %s\n", stage, stage.Description())
	PrintSeparator()
	fmt.Printf("  Run ID    : %s\n", runID)
	fmt.Printf("  Started   : %s\n", time.Now().Format(time.RFC3339))
	PrintSeparator()
}

// PrintStageCompletion prints the stage footer
func PrintStageCompletion(stage contracts.Stage, rows int, duration time.Duration) {
	fmt.Println()
	fmt.Printf("✅ %s completed in %.2fs (%d rows)\n", stage, duration.Seconds(), rows)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		if len([]rune(val)) > widths[i] {
			val = string([]rune(val)[:widths[i]-1]) + "…"
		}
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintTable prints the named columns of t, one row per line.
// Missing columns print as blanks.
func PrintTable(t *table.Table, columns []string, widths []int) {
	PrintTableHeader(columns, widths)
	cols := make([]*table.Column, len(columns))
	for i, name := range columns {
		cols[i], _ = t.Column(name)
	}
	values := make([]string, len(columns))
	for r := 0; r < t.Len(); r++ {
		for i, c := range cols {
			values[i] = ""
			if c != nil {
				values[i] = c.StringAt(r)
			}
		}
		PrintTableRow(values, widths)
	}
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
