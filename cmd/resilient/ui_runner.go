package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"resilient/internal/buildpipeline"
	"resilient/internal/driver"
	"resilient/internal/source"
	"resilient/internal/ui"
)

type diagnoseOutcome struct {
	fs      *source.FileSet
	results []driver.DiagnoseDirResult
	err     error
}

// runDiagnoseDirWithUI runs DiagnoseDir in the background and renders its
// progress events until the pipeline closes the channel.
func runDiagnoseDirWithUI(ctx context.Context, dir string, opts driver.DiagnoseOptions, jobs int) (*source.FileSet, []driver.DiagnoseDirResult, error) {
	files, err := driver.ListSourceFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan diagnoseOutcome, 1)

	go func() {
		fs, results, err := driver.DiagnoseDir(ctx, dir, opts, jobs, buildpipeline.ChannelSink{Ch: events})
		outcomeCh <- diagnoseOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("diagnose", dir, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}
