/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"chainguard.dev/curator/actions"
	"chainguard.dev/curator/curator"
	"chainguard.dev/curator/metrics"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newReviewCmd() *cobra.Command {
	var (
		number   int
		reopened bool
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review one pull request now",
		Long:  "Run the full review pipeline for a single pull request and print what was done. With --dry-run no comment, review, merge or close is sent.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if number <= 0 {
				return errors.New("--pr is required")
			}
			ctx, cfg, closer, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			mgr, err := newManager(ctx, cfg)
			if err != nil {
				return err
			}
			o, err := newOracle(ctx, cfg)
			if err != nil {
				return err
			}
			c, err := newCurator(cfg, mgr, o, metrics.New(), dryRun)
			if err != nil {
				return err
			}

			pr, err := mgr.PullRequest(ctx, number)
			if err != nil {
				return err
			}
			action := curator.ActionOpened
			if reopened {
				action = curator.ActionReopened
			}
			res, err := c.Review(ctx, curator.PullRequestEvent{
				Number: pr.GetNumber(),
				Title:  pr.GetTitle(),
				Body:   pr.GetBody(),
				Author: pr.GetUser().GetLogin(),
				Action: action,
			}, reopened)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&number, "pr", 0, "Pull request number")
	cmd.Flags().BoolVar(&reopened, "reopened", false, "Include the prior discussion, as for a reopened pull request")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Decide but do not act on the pull request")
	return cmd
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
	)
}

// resultRows flattens a review into key/value rows.
func resultRows(res curator.Result) [][]string {
	rows := [][]string{
		{"run", res.RunID},
		{"gate", string(res.Gate)},
		{"path", string(res.Report.Path)},
	}
	if res.Gate == curator.GateNone {
		rows = append(rows,
			[]string{"decision", fmt.Sprintf("%t", res.Verdict.Decision)},
			[]string{"synthetic", fmt.Sprintf("%t", res.Verdict.Synthetic)},
			[]string{"explanation", firstLine(res.Verdict.Explanation)},
		)
	}
	rows = append(rows, lo.Map(res.Report.Outcomes, func(o actions.Outcome, _ int) []string {
		return []string{"step " + string(o.Step), outcomeText(o)}
	})...)
	return rows
}

func outcomeText(o actions.Outcome) string {
	switch {
	case o.Skipped:
		return "skipped (dry run)"
	case o.Err == nil:
		return "ok"
	case o.Recovered:
		return "recovered: " + o.Err.Error()
	default:
		return "failed: " + o.Err.Error()
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func printResult(w io.Writer, res curator.Result) {
	table := newTable(w, "Field", "Value")
	for _, row := range resultRows(res) {
		_ = table.Append(row)
	}
	_ = table.Render()
}
