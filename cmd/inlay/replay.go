package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/rlch/inlay/scenario"
)

var ErrNoScenarios = errors.New("no scenario files found")

// scenarioSuffixes mark scenario files when walking directories.
var scenarioSuffixes = []string{".scenario.yaml", ".scenario.yml"}

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay scripted editor sessions against the cache",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print every splice and check",
			},
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "stop a scenario at its first failing step",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored output",
			},
		},
		Action: runReplay,
	}
}

func runReplay(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		args = []string{"."}
	}

	files, err := collectScenarios(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return ErrNoScenarios
	}

	cfg, _, err := loadConfig(cmd, filepath.Dir(files[0]))
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	defer func() {
		_ = logger.Sync()
	}()

	verbose := cmd.Bool("verbose")
	tty := !cmd.Bool("no-color") && isatty.IsTerminal(os.Stdout.Fd())

	styles := scenario.PlainStyles()
	if tty {
		styles = scenario.DefaultStyles()
	}

	r := scenario.New(
		scenario.WithLogger(logger),
		scenario.WithFailFast(cmd.Bool("fail-fast")),
	)

	if tty && !verbose {
		return replayProgress(ctx, r, files, styles)
	}

	failed := 0

	for _, file := range files {
		report, err := r.RunFile(ctx, file)
		if err != nil {
			return fmt.Errorf("replaying %s: %w", file, err)
		}

		err = scenario.Render(os.Stdout, report, styles, verbose)
		if err != nil {
			return err
		}

		if !report.Passed() {
			failed++
		}
	}

	return summarize(len(files), failed)
}

// replayProgress replays files behind a live progress view, then prints the reports
// of the scenarios that failed.
func replayProgress(ctx context.Context, r *scenario.Runner, files []string, styles *scenario.Styles) error {
	progress := scenario.NewProgress(os.Stdout, files, styles)
	progress.Start()

	var failures []*scenario.Report

	for i, file := range files {
		progress.Started(i)

		report, err := r.RunFile(ctx, file)
		if err != nil {
			_ = progress.Stop()

			return fmt.Errorf("replaying %s: %w", file, err)
		}

		progress.Finished(i, report)

		if !report.Passed() {
			failures = append(failures, report)
		}
	}

	err := progress.Stop()
	if err != nil {
		return err
	}

	for _, report := range failures {
		fmt.Fprintln(os.Stdout)

		err = scenario.Render(os.Stdout, report, styles, false)
		if err != nil {
			return err
		}
	}

	return summarize(len(files), len(failures))
}

func summarize(total, failed int) error {
	fmt.Fprintf(os.Stdout, "\n%d scenarios, %d failed\n", total, failed)

	if failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}

func collectScenarios(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, arg)

			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				return nil
			}

			for _, suffix := range scenarioSuffixes {
				if strings.HasSuffix(path, suffix) {
					files = append(files, path)

					break
				}
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
