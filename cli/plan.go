package cli

// This file contains the plan and clean commands.

import (
	"fmt"

	"github.com/modforge/modforge/model"
	"github.com/modforge/modforge/pipeline"
	"github.com/modforge/modforge/toolexec"
	"github.com/urfave/cli/v2"
)

func parseStage(s string) (model.StageName, error) {
	for _, stage := range pipeline.Stages {
		if string(stage) == s {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q (use resolve, compile or test)", s)
}

func (a *App) plan(ctx *cli.Context) error {
	last, err := parseStage(ctx.String("stage"))
	if err != nil {
		return err
	}

	m, err := a.loadManifest(ctx)
	if err != nil {
		return err
	}

	p, err := a.newPipeline(ctx, m, a.newRunner(ctx, m), removeFirstDashDash(ctx.Args().Slice()))
	if err != nil {
		return err
	}

	var current model.StageName
	for _, step := range p.Plan(last) {
		if step.Stage != current {
			current = step.Stage
			fmt.Println(headStyle.Render("# " + string(current)))
		}
		fmt.Println(step)
	}
	return nil
}

func (a *App) clean(ctx *cli.Context) error {
	m, err := a.loadManifest(ctx)
	if err != nil {
		return err
	}

	p, err := a.newPipeline(ctx, m, toolexec.New(a.logger), nil)
	if err != nil {
		return err
	}
	return p.Clean()
}
