package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"guardlint/internal/checkpipeline"
	"guardlint/internal/driver"
	"guardlint/internal/ui"
)

type checkOutcome struct {
	results []*driver.UnitResult
	err     error
}

func runCheckDirWithUI(ctx context.Context, dir string, cfg driver.Config, jobs int) ([]*driver.UnitResult, error) {
	roots, err := driver.ListUnitRoots(dir)
	if err != nil {
		return nil, err
	}

	events := make(chan checkpipeline.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		results, err := driver.CheckDir(ctx, dir, cfg, jobs, checkpipeline.ChannelSink{Ch: events})
		outcomeCh <- checkOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("checking header guards", roots, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
