package split

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
	"github.com/rubenv/osmbridge/osmbridge/linear"
	"golang.org/x/sync/errgroup"
)

// Job is the unit of parallel work: one line and every bridge on it.
type Job struct {
	LineID  int64
	Bridges []BridgePoint
}

// Outcome reports what happened to a single line.
type Outcome struct {
	LineID int64

	// Line whose bridge continued into this one, 0 for job lines.
	Extends int64

	// Whether the line was (or, in a dry run, would have been) split.
	Applied bool

	// Reason the line was skipped.
	Err error

	Plan     *Plan
	NewLines []*feature.Line
	Groups   []*feature.Group
}

func (o Outcome) Warnings() []Warning {
	if o.Plan == nil {
		return nil
	}
	return o.Plan.Warnings
}

func (o Outcome) Rejected() []Rejection {
	if o.Plan == nil {
		return nil
	}
	return o.Plan.Rejected
}

func (o Outcome) Spills() []Spill {
	if o.Plan == nil {
		return nil
	}
	return o.Plan.Spills
}

type Summary struct {
	Lines    int
	Applied  int
	Skipped  int
	Bridges  int
	Rejected int
	Warnings int
	Spills   int
	NewLines int
}

func (s *Summary) add(o Outcome) {
	s.Lines++
	if o.Applied {
		s.Applied++
	} else {
		s.Skipped++
	}
	if o.Plan != nil {
		s.Bridges += len(o.Plan.Boundaries)
	}
	s.Rejected += len(o.Rejected())
	s.Warnings += len(o.Warnings())
	s.Spills += len(o.Spills())
	s.NewLines += len(o.NewLines)
}

func (s Summary) String() string {
	return fmt.Sprintf("%d lines: %d split, %d skipped; %d bridges, %d rejected, %d warnings, %d spills, %d new lines",
		s.Lines, s.Applied, s.Skipped, s.Bridges, s.Rejected, s.Warnings, s.Spills, s.NewLines)
}

type Runner struct {
	store         Store
	index         *linear.Index
	metric        geodesy.Metric
	snapTolerance float64
	workers       int
	dryRun        bool
	progress      func(Outcome)

	// Identities handed out while planning a dry run, kept out of the store.
	draftVertices int64
}

func NewRunner(store Store) *Runner {
	return &Runner{
		store:         store,
		snapTolerance: DefaultSnapTolerance,
		workers:       runtime.NumCPU(),
	}
}

// Index sets the connectivity index used to cross into connected lines.
// Without one, the index is built from every line in the store.
func (r *Runner) Index(idx *linear.Index) *Runner {
	r.index = idx
	return r
}

func (r *Runner) Metric(m geodesy.Metric) *Runner {
	r.metric = m
	return r
}

func (r *Runner) SnapTolerance(meters float64) *Runner {
	r.snapTolerance = meters
	return r
}

func (r *Runner) Workers(n int) *Runner {
	if n > 0 {
		r.workers = n
	}
	return r
}

// DryRun only plans, the store is left untouched.
func (r *Runner) DryRun() *Runner {
	r.dryRun = true
	return r
}

// Progress registers a callback invoked once per finished line. Calls are
// serialized.
func (r *Runner) Progress(fn func(Outcome)) *Runner {
	r.progress = fn
	return r
}

// Run splits every job's line. Outcomes are returned in job order; a
// failing line never stops the others. Jobs for the same line are merged.
//
// Bridges that spilled into a connected line are continued there after
// every job has finished. Those outcomes follow the job outcomes, with
// Extends set to the line the bridge came from.
//
// Cancelling the context stops the dispatch of further lines, those are
// reported as skipped with the context error.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Outcome, Summary, error) {
	jobs = mergeJobs(jobs)

	if r.index == nil {
		idx, err := BuildIndex(r.store)
		if err != nil {
			return nil, Summary{}, err
		}
		r.index = idx
	}

	walker := &linear.Walker{
		Index:  r.index,
		Metric: r.metric,
	}

	outcomes := make([]Outcome, len(jobs))
	dispatched := make([]bool, len(jobs))

	var g errgroup.Group
	var mu sync.Mutex

	work := make(chan int, 100)
	g.Go(func() error {
		defer close(work)
		for i := range jobs {
			if ctx.Err() != nil {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case work <- i:
				dispatched[i] = true
			}
		}
		return nil
	})

	for w := 0; w < r.workers; w++ {
		g.Go(func() error {
			for i := range work {
				o := r.runJob(walker, jobs[i])
				outcomes[i] = o

				if r.progress != nil {
					mu.Lock()
					r.progress(o)
					mu.Unlock()
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, Summary{}, err
	}

	for i := range outcomes {
		if !dispatched[i] {
			outcomes[i] = Outcome{LineID: jobs[i].LineID, Err: ctx.Err()}
		}
	}
	outcomes = append(outcomes, r.extendSpills(ctx, walker, outcomes)...)

	var summary Summary
	for _, o := range outcomes {
		summary.add(o)
	}
	return outcomes, summary, ctx.Err()
}

// extendSpills continues every spilled bridge of the applied outcomes, one
// line at a time. A line that is gone by then (split by its own job or by
// an earlier spill) is reported as skipped.
func (r *Runner) extendSpills(ctx context.Context, walker *linear.Walker, outcomes []Outcome) []Outcome {
	out := make([]Outcome, 0)
	for _, src := range outcomes {
		if !src.Applied {
			continue
		}
		for _, spill := range src.Spills() {
			if ctx.Err() != nil {
				return out
			}
			out = append(out, r.runExtension(walker, src.LineID, spill))
		}
	}
	return out
}

func (r *Runner) runExtension(walker *linear.Walker, from int64, spill Spill) (o Outcome) {
	o.LineID = spill.LineID
	o.Extends = from
	defer recoverLine(&o)

	line, err := r.store.Line(spill.LineID)
	if err != nil {
		o.Err = err
		return o
	}

	plan, err := r.planner(walker).Extend(line, spill)
	r.commit(&o, line, plan, err)
	return o
}

func (r *Runner) runJob(walker *linear.Walker, job Job) (o Outcome) {
	o.LineID = job.LineID
	defer recoverLine(&o)

	line, err := r.store.Line(job.LineID)
	if err != nil {
		o.Err = err
		return o
	}

	plan, err := r.planner(walker).Plan(line, job.Bridges)
	r.commit(&o, line, plan, err)
	return o
}

func recoverLine(o *Outcome) {
	if p := recover(); p != nil {
		o.Applied = false
		o.Err = fmt.Errorf("panic while splitting line %d: %v", o.LineID, p)
	}
}

// planner draws vertex identities from the store, or from a local counter
// in a dry run so the store's counters are not advanced.
func (r *Runner) planner(walker *linear.Walker) *Planner {
	newID := r.store.NewVertexID
	if r.dryRun {
		newID = func() int64 {
			return atomic.AddInt64(&r.draftVertices, -1)
		}
	}
	return &Planner{
		Walker:        walker,
		SnapTolerance: r.snapTolerance,
		NewVertexID:   newID,
	}
}

func (r *Runner) commit(o *Outcome, line *feature.Line, plan *Plan, err error) {
	o.Plan = plan
	if err != nil {
		o.Err = err
		return
	}

	if r.dryRun {
		o.Applied = true
		return
	}

	m := &Mutator{Store: r.store}
	applied, err := m.Apply(line, plan)
	if err != nil {
		o.Err = err
		return
	}
	o.Applied = true
	o.NewLines = applied.Lines
	o.Groups = applied.Groups
}

// BuildIndex indexes every live line of the store.
func BuildIndex(s Store) (*linear.Index, error) {
	idx := linear.NewIndex()
	err := s.EachLine(func(l *feature.Line) error {
		idx.Add(l.ID, l.Points())
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "build connectivity index")
	}
	return idx, nil
}

func mergeJobs(jobs []Job) []Job {
	pos := make(map[int64]int, len(jobs))
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if i, ok := pos[j.LineID]; ok {
			out[i].Bridges = append(out[i].Bridges, j.Bridges...)
			continue
		}
		pos[j.LineID] = len(out)
		out = append(out, Job{
			LineID:  j.LineID,
			Bridges: append([]BridgePoint(nil), j.Bridges...),
		})
	}
	return out
}
