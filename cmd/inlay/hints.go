package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/buffer"
	"github.com/rlch/inlay/fetch"
	"github.com/rlch/inlay/lsp"
)

var (
	ErrNoFile       = errors.New("no file specified")
	ErrNoServer     = errors.New("no language server specified (use --server or .inlay.yaml)")
	ErrServerExited = errors.New("language server exited")
)

const (
	// shutdownTimeout bounds the LSP shutdown handshake.
	shutdownTimeout = 5 * time.Second

	localReplica = 1
)

func hintsCommand() *cli.Command {
	return &cli.Command{
		Name:      "hints",
		Usage:     "Show the inlay hints a language server reports for a file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "language server command (overrides config)",
				Sources: cli.EnvVars("INLAY_SERVER"),
			},
			&cli.StringSliceFlag{
				Name:  "arg",
				Usage: "language server argument, repeatable",
			},
			&cli.StringFlag{
				Name:  "language-id",
				Usage: "LSP language id of the file",
			},
			&cli.BoolFlag{
				Name:  "yaml",
				Usage: "print the hints as YAML",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "keep running: follow server refreshes and config changes",
			},
		},
		Action: runHints,
	}
}

func runHints(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return ErrNoFile
	}

	path, err := filepath.Abs(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	text, err := os.ReadFile(path) //nolint:gosec // G304: file path from user input is expected
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, cfgPath, err := loadConfig(cmd, filepath.Dir(path))
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

	server := cfg.Server
	if s := cmd.String("server"); s != "" {
		server = inlay.ServerConfig{Command: s, Args: cmd.StringSlice("arg"), LanguageID: server.LanguageID}
	}

	if id := cmd.String("language-id"); id != "" {
		server.LanguageID = id
	}

	if server.Command == "" {
		return ErrNoServer
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	multi := buffer.NewMultiBuffer()
	multi.AddBuffer(buffer.New(1, path, string(text), localReplica))

	_, err = multi.AddExcerpt(1, inlay.Range{Start: 0, End: len(text)})
	if err != nil {
		return err
	}

	refresh := make(chan struct{}, 1)

	client, err := lsp.Launch(ctx, server.Command, server.Args, os.Stderr,
		lsp.WithLogger(logger.Named("lsp")),
		lsp.WithLanguageID(server.LanguageID),
		lsp.WithRefresh(func() {
			select {
			case refresh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return err
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := client.Close(closeCtx)
		if err != nil {
			logger.Debug("Language server exited", zap.Error(err))
		}
	}()

	err = client.Initialize(ctx, filepath.Dir(path))
	if err != nil {
		return err
	}

	coordinator := fetch.New(client, multi,
		fetch.WithLogger(logger.Named("fetch")),
		fetch.WithConcurrency(cfg.Fetch.MaxConcurrentQueries),
		fetch.WithSettings(cfg.InlayHints),
	)
	defer coordinator.Close()

	view := newView(multi)

	splice, err := coordinator.Fetch(ctx, multi.Requests())
	if err != nil {
		return err
	}

	view.apply(splice)

	if !cmd.Bool("watch") {
		if cmd.Bool("yaml") {
			return view.printYAML(os.Stdout)
		}

		return view.print(os.Stdout)
	}

	view.printSplice(os.Stdout, splice)

	return watch(ctx, logger, cfgPath, coordinator, multi, view, refresh, client.Done())
}

// watch follows server refreshes and config changes until ctx is cancelled or the
// server goes away.
func watch(
	ctx context.Context,
	logger *zap.Logger,
	cfgPath string,
	coordinator *fetch.Coordinator,
	multi *buffer.MultiBuffer,
	view *view,
	refresh <-chan struct{},
	serverDone <-chan struct{},
) error {
	settings := make(chan inlay.Settings, 1)

	if cfgPath != "" {
		go func() {
			err := inlay.WatchConfig(ctx, cfgPath, logger.Named("config"), func(cfg *inlay.Config) {
				select {
				case settings <- cfg.InlayHints:
				case <-ctx.Done():
				}
			})
			if err != nil {
				logger.Warn("Config watch stopped", zap.Error(err))
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-serverDone:
			return ErrServerExited

		case s := <-settings:
			splice := coordinator.ApplySettings(s)
			view.apply(splice)
			view.printSplice(os.Stdout, splice)

			// Re-enabling may need fresh hints.
			if s.Enabled {
				refetch(ctx, logger, coordinator, multi, view)
			}

		case <-refresh:
			// Cached results are no longer trusted after a server refresh.
			view.apply(inlay.Splice{Remove: coordinator.Clear()})
			refetch(ctx, logger, coordinator, multi, view)
		}
	}
}

func refetch(ctx context.Context, logger *zap.Logger, coordinator *fetch.Coordinator, multi *buffer.MultiBuffer, view *view) {
	splice, err := coordinator.Fetch(ctx, multi.Requests())
	if err != nil {
		logger.Debug("Fetch abandoned", zap.Error(err))

		return
	}

	view.apply(splice)
	view.printSplice(os.Stdout, splice)
}

// view tracks what an editor applying every splice would show.
type view struct {
	multi *buffer.MultiBuffer
	shown map[inlay.ID]inlay.Inserted
	order []inlay.ID
}

func newView(multi *buffer.MultiBuffer) *view {
	return &view{multi: multi, shown: make(map[inlay.ID]inlay.Inserted)}
}

func (v *view) apply(splice inlay.Splice) {
	for _, id := range splice.Remove {
		delete(v.shown, id)
	}

	for _, ins := range splice.Insert {
		if _, ok := v.shown[ins.ID]; !ok {
			v.order = append(v.order, ins.ID)
		}

		v.shown[ins.ID] = ins
	}

	kept := v.order[:0]
	for _, id := range v.order {
		if _, ok := v.shown[id]; ok {
			kept = append(kept, id)
		}
	}

	v.order = kept
}

// locate returns the 1-based line and UTF-16 column of anchor in the current text.
func (v *view) locate(anchor inlay.Anchor) (line, column int, ok bool) {
	b, ok := v.multi.Buffer(anchor.Buffer)
	if !ok {
		return 0, 0, false
	}

	snap := b.Snapshot()
	pos := lsp.OffsetToPosition(snap.Text(), snap.Resolve(anchor))

	return int(pos.Line) + 1, int(pos.Character) + 1, true
}

func (v *view) position(anchor inlay.Anchor) string {
	line, column, ok := v.locate(anchor)
	if !ok {
		return "?"
	}

	return fmt.Sprintf("%d:%d", line, column)
}

func (v *view) line(ins inlay.Inserted) string {
	return fmt.Sprintf("%s\t%s\t%q", v.position(ins.Anchor), ins.Hint.Kind, ins.Hint.Label)
}

func (v *view) print(w io.Writer) error {
	for _, id := range v.order {
		_, err := fmt.Fprintln(w, v.line(v.shown[id]))
		if err != nil {
			return err
		}
	}

	return nil
}

// hintRecord is one shown hint in YAML output.
type hintRecord struct {
	ID         uint64 `yaml:"id"`
	Line       int    `yaml:"line"`
	Column     int    `yaml:"column"`
	inlay.Hint `yaml:",inline"`
}

func (v *view) printYAML(w io.Writer) error {
	records := make([]hintRecord, 0, len(v.order))

	for _, id := range v.order {
		ins := v.shown[id]
		line, column, _ := v.locate(ins.Anchor)
		records = append(records, hintRecord{ID: uint64(id), Line: line, Column: column, Hint: ins.Hint})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(records)
	if err != nil {
		return err
	}

	return enc.Close()
}

func (v *view) printSplice(w io.Writer, splice inlay.Splice) {
	for _, id := range splice.Remove {
		fmt.Fprintf(w, "- %s\n", id)
	}

	for _, ins := range splice.Insert {
		fmt.Fprintf(w, "+ %s\t%s\n", ins.ID, v.line(ins))
	}
}
