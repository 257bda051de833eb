// Package importer loads converted manual documents into the manual store.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/progress"
)

// Store is the part of the manual store the importer writes to.
type Store interface {
	IDBySource(ctx context.Context, sourcePath string) (int, bool, error)
	Create(ctx context.Context, m *manual.Manual) (int, error)
}

// Options configures a run.
type Options struct {
	Include     []string
	Exclude     []string
	Concurrency int
	MaxFileSize int64
	// DryRun parses documents without writing them.
	DryRun   bool
	Reporter progress.Reporter
	Logger   *slog.Logger
}

// Outcome is the result for one file.
type Outcome struct {
	File     string
	ManualID int
	Title    string
	Skipped  bool
	Warnings []string
	Err      error
}

// Result summarises a run.
type Result struct {
	Outcomes []Outcome
	Imported int
	Skipped  int
	Failed   int
}

// Importer reads converter output and stores new manuals.
type Importer struct {
	store Store
	opts  Options
}

// New returns an importer writing to store.
func New(store Store, opts Options) *Importer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Importer{store: store, opts: opts}
}

type parsed struct {
	manual   *manual.Manual
	warnings []string
	err      error
}

// Run imports every matching file under root. Documents are parsed
// concurrently and written one at a time in path order, so ids are stable
// across runs over the same tree. A manual whose source path is already
// stored is skipped. Per-file failures are reported in the result; the
// returned error is set only when the run itself could not proceed.
func (im *Importer) Run(ctx context.Context, root string) (*Result, error) {
	files, err := FindFiles(root, im.opts.Include, im.opts.Exclude, im.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}

	docs := make([]parsed, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f.Path)
			if err != nil {
				docs[i] = parsed{err: fmt.Errorf("reading %s: %w", f.RelPath, err)}
				return nil
			}
			m, warnings, err := ParseDocument(data, f.RelPath)
			docs[i] = parsed{manual: m, warnings: warnings, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := im.opts.Reporter
	rep.Start(len(files))
	defer rep.Finish()

	res := &Result{Outcomes: make([]Outcome, 0, len(files))}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out := im.store1(ctx, f, docs[i])
		for _, w := range out.Warnings {
			im.opts.Logger.Warn("import warning", "file", f.RelPath, "warning", w)
		}
		switch {
		case out.Err != nil:
			res.Failed++
			im.opts.Logger.Error("import failed", "file", f.RelPath, "error", out.Err)
		case out.Skipped:
			res.Skipped++
			im.opts.Logger.Info("manual already imported", "file", f.RelPath, "id", out.ManualID)
		default:
			res.Imported++
			im.opts.Logger.Info("manual imported", "file", f.RelPath, "id", out.ManualID, "title", out.Title)
		}
		res.Outcomes = append(res.Outcomes, out)
		rep.Update(i+1, f.RelPath)
	}
	return res, nil
}

func (im *Importer) store1(ctx context.Context, f File, p parsed) Outcome {
	out := Outcome{File: f.RelPath, Warnings: p.warnings, Err: p.err}
	if p.err != nil {
		return out
	}
	out.Title = p.manual.Title

	id, exists, err := im.store.IDBySource(ctx, p.manual.SourcePath)
	if err != nil {
		out.Err = err
		return out
	}
	if exists {
		out.ManualID, out.Skipped = id, true
		return out
	}
	if im.opts.DryRun {
		return out
	}
	id, err = im.store.Create(ctx, p.manual)
	if err != nil {
		out.Err = fmt.Errorf("storing %s: %w", f.RelPath, err)
		return out
	}
	out.ManualID = id
	return out
}
