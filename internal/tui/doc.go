// Package tui provides the terminal interface for browsing and executing
// recommendations.
//
// The Picker lists the current recommendation set, runs the selected entry
// through the pipeline and shows the result in a scrollable pane. The
// render helpers are shared with the non-interactive CLI commands.
//
// Usage:
//
//	program := tui.NewPickerProgram(ctx, orch)
//	if _, err := program.Run(); err != nil {
//	    return err
//	}
package tui
