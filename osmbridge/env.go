package osmbridge

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/association"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

// Env ties a configuration to the store the split runs against.
type Env struct {
	config *Config
	store  split.Store

	// Receives one line per skipped item. Defaults to the standard logger.
	Logf func(format string, args ...interface{})
}

func NewEnv(config *Config, store split.Store) *Env {
	return &Env{
		config: config,
		store:  store,
		Logf:   log.Printf,
	}
}

// LoadEnv loads the configured ways file into memory.
func LoadEnv(ctx context.Context, config *Config) (*Env, error) {
	if config.Input.Ways == "" {
		return nil, errors.New("no ways file configured")
	}

	loaded, err := Load(ctx, config.Input.Ways, config.Filter())
	if err != nil {
		return nil, err
	}

	e := NewEnv(config, loaded.Store)
	e.log("load", "%d lines, %d relations from %s", loaded.Lines, loaded.Groups, config.Input.Ways)
	for _, id := range loaded.Incomplete {
		e.log("load", "Skipping incomplete way %d", id)
	}
	return e, nil
}

func (e *Env) log(prefix, format string, args ...interface{}) {
	e.Logf("[%s] %s", prefix, fmt.Sprintf(format, args...))
}

func (e *Env) Store() split.Store {
	return e.store
}

// Jobs reads the configured associations. Bridges without a line are
// attached to the nearest line when a maximum distance is configured.
func (e *Env) Jobs() ([]split.Job, error) {
	cfg := e.config.Associations
	if cfg.File == "" {
		return nil, errors.New("no associations file configured")
	}

	res, err := association.ReadFile(cfg.File, cfg.Columns)
	if err != nil {
		return nil, err
	}
	for _, rowErr := range res.Invalid {
		e.log("associations", "Skipping %s", rowErr)
	}
	if res.Duplicates > 0 {
		e.log("associations", "Dropped %d duplicate rows", res.Duplicates)
	}

	missing := 0
	for _, r := range res.Rows {
		if r.LineID == 0 {
			missing++
		}
	}

	if missing > 0 && cfg.MaxDistance > 0 {
		lines, err := Lines(e.store)
		if err != nil {
			return nil, err
		}
		a := association.NewAssociator(lines, cfg.MaxDistance)
		found := a.Associate(res.Rows)
		e.log("associations", "Attached %d of %d bridges without a line", found, missing)
		missing -= found
	}
	if missing > 0 {
		e.log("associations", "Skipping %d bridges without a line", missing)
	}

	return association.Jobs(res.Rows), nil
}

// Split runs the jobs against the store. A dry run plans only.
func (e *Env) Split(ctx context.Context, jobs []split.Job, dryRun bool, progress func(split.Outcome)) ([]split.Outcome, split.Summary, error) {
	runner := split.NewRunner(e.store).
		Metric(e.config.Metric()).
		SnapTolerance(e.config.Split.SnapTolerance).
		Workers(e.config.Split.Workers).
		Progress(progress)
	if dryRun {
		runner = runner.DryRun()
	}

	outcomes, summary, err := runner.Run(ctx, jobs)
	for _, o := range outcomes {
		if o.Extends != 0 && o.Applied {
			e.log("split", "Line %d: continues bridge from line %d", o.LineID, o.Extends)
		}
		if o.Err != nil {
			e.log("split", "Skipping line %d: %s", o.LineID, o.Err)
		}
		for _, r := range o.Rejected() {
			e.log("split", "Line %d: rejected bridge %q: %s", o.LineID, r.Point.ID, r.Err)
		}
		for _, w := range o.Warnings() {
			e.log("split", "Line %d: %s", o.LineID, w)
		}
	}
	return outcomes, summary, err
}

// WriteOutputs writes every configured output file.
func (e *Env) WriteOutputs(outcomes []split.Outcome) error {
	out := e.config.Output
	writers := []struct {
		path  string
		write func(f *os.File) error
	}{
		{out.Change, func(f *os.File) error { return WriteChange(f, outcomes) }},
		{out.GeoJSON, func(f *os.File) error { return WriteGeoJSON(f, outcomes) }},
		{out.SplitInfo, func(f *os.File) error { return WriteSplitInfo(f, outcomes) }},
		{out.Report, func(f *os.File) error { return WriteReport(f, outcomes) }},
	}

	for _, w := range writers {
		if w.path == "" {
			continue
		}

		f, err := os.Create(w.path)
		if err != nil {
			return err
		}
		err = w.write(f)
		cerr := f.Close()
		if err != nil {
			return errors.Wrap(err, "write "+w.path)
		}
		if cerr != nil {
			return cerr
		}
		e.log("output", "Wrote %s", w.path)
	}
	return nil
}
