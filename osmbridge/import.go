package osmbridge

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/model"
)

const importBatchSize = 100000

// Import loads a PBF or OSM XML file into the store.
type Import struct {
	Store    *Store
	Filename string

	// Ways rejected by the filter are not stored. Nil keeps every way.
	Filter LineFilter

	// Print a progress line every ten seconds.
	Progress bool

	started time.Time
	wg      sync.WaitGroup
	pwg     sync.WaitGroup
	done    chan struct{}

	errMu sync.Mutex
	err   error

	nodes     chan []*osm.Node
	ways      chan []*osm.Way
	relations chan []*osm.Relation

	nodeCount     int64
	wayCount      int64
	relationCount int64
}

// OpenScanner picks a scanner by file extension: .pbf files are read as
// protobuf, everything else as OSM XML.
func OpenScanner(ctx context.Context, f *os.File) osm.Scanner {
	if strings.HasSuffix(f.Name(), ".pbf") {
		return osmpbf.New(ctx, f, runtime.NumCPU())
	}
	return osmxml.New(ctx, f)
}

func (i *Import) Run(ctx context.Context) error {
	f, err := os.Open(i.Filename)
	if err != nil {
		return err
	}
	defer f.Close()

	i.nodes = make(chan []*osm.Node, 10)
	i.ways = make(chan []*osm.Way, 10)
	i.relations = make(chan []*osm.Relation, 10)
	i.done = make(chan struct{})
	i.started = time.Now()

	i.wg.Add(3)
	go i.importNodes()
	go i.importWays()
	go i.importRelations()

	if i.Progress {
		i.pwg.Add(1)
		go i.updateProgress()
	}

	scanner := OpenScanner(ctx, f)
	defer scanner.Close()
	i.parse(scanner)

	i.wg.Wait()
	close(i.done)
	i.pwg.Wait()

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scan "+i.Filename)
	}
	return i.err
}

func (i *Import) fail(err error) {
	i.errMu.Lock()
	defer i.errMu.Unlock()
	if i.err == nil {
		i.err = err
	}
}

func (i *Import) failed() bool {
	i.errMu.Lock()
	defer i.errMu.Unlock()
	return i.err != nil
}

func (i *Import) parse(scanner osm.Scanner) {
	defer close(i.nodes)
	defer close(i.ways)
	defer close(i.relations)

	nodes := make([]*osm.Node, 0, importBatchSize)
	ways := make([]*osm.Way, 0, importBatchSize)
	relations := make([]*osm.Relation, 0, importBatchSize)

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			nodes = append(nodes, o)
			if len(nodes) >= importBatchSize {
				i.nodes <- nodes
				nodes = make([]*osm.Node, 0, importBatchSize)
			}
		case *osm.Way:
			if i.Filter != nil && !i.Filter(o.Tags.Map()) {
				continue
			}
			ways = append(ways, o)
			if len(ways) >= importBatchSize {
				i.ways <- ways
				ways = make([]*osm.Way, 0, importBatchSize)
			}
		case *osm.Relation:
			relations = append(relations, o)
			if len(relations) >= importBatchSize {
				i.relations <- relations
				relations = make([]*osm.Relation, 0, importBatchSize)
			}
		}
	}

	if len(nodes) > 0 {
		i.nodes <- nodes
	}
	if len(ways) > 0 {
		i.ways <- ways
	}
	if len(relations) > 0 {
		i.relations <- relations
	}
}

func (i *Import) updateProgress() {
	defer i.pwg.Done()

	every := int64(10)
	tick := time.NewTicker(time.Duration(every) * time.Second)
	defer tick.Stop()

	prevNodeCount := int64(0)
	prevWayCount := int64(0)
	prevRelationCount := int64(0)

	update := func() {
		nodeCount := atomic.LoadInt64(&i.nodeCount)
		wayCount := atomic.LoadInt64(&i.wayCount)
		relationCount := atomic.LoadInt64(&i.relationCount)

		newNodes := (nodeCount - prevNodeCount) / every
		newWays := (wayCount - prevWayCount) / every
		newRelations := (relationCount - prevRelationCount) / every

		elapsed := time.Since(i.started).Truncate(time.Second)
		fmt.Printf("\r[N: %12d (%7d/s)] [W: %12d (%7d/s)] [R: %12d (%7d/s)] %s", nodeCount, newNodes, wayCount, newWays, relationCount, newRelations, elapsed)

		prevNodeCount = nodeCount
		prevWayCount = wayCount
		prevRelationCount = relationCount
	}

	for {
		select {
		case <-tick.C:
			update()
		case <-i.done:
			update()
			fmt.Println()
			return
		}
	}
}

func (i *Import) importNodes() {
	defer i.wg.Done()

	for arr := range i.nodes {
		if i.failed() {
			continue
		}

		nodes := make([]*model.Node, len(arr))
		for j, n := range arr {
			nodes[j] = NodeFromOSM(n)
		}
		err := i.Store.addNewNodes(nodes)
		if err != nil {
			i.fail(err)
			continue
		}
		atomic.AddInt64(&i.nodeCount, int64(len(nodes)))
	}
}

func (i *Import) importWays() {
	defer i.wg.Done()

	for arr := range i.ways {
		if i.failed() {
			continue
		}

		ways := make([]*model.Way, len(arr))
		for j, w := range arr {
			ways[j] = WayFromOSM(w)
		}
		err := i.Store.addNewWays(ways)
		if err != nil {
			i.fail(err)
			continue
		}
		atomic.AddInt64(&i.wayCount, int64(len(ways)))
	}
}

func (i *Import) importRelations() {
	defer i.wg.Done()

	for arr := range i.relations {
		if i.failed() {
			continue
		}

		relations := make([]*model.Relation, len(arr))
		for j, r := range arr {
			relations[j] = RelationFromOSM(r)
		}
		err := i.Store.addNewRelations(relations)
		if err != nil {
			i.fail(err)
			continue
		}
		atomic.AddInt64(&i.relationCount, int64(len(relations)))
	}
}

// Counts returns the number of nodes, ways and relations imported.
func (i *Import) Counts() (int64, int64, int64) {
	return atomic.LoadInt64(&i.nodeCount), atomic.LoadInt64(&i.wayCount), atomic.LoadInt64(&i.relationCount)
}

func (s *Store) Import(ctx context.Context, file string, filter LineFilter) error {
	i := &Import{
		Store:    s,
		Filename: file,
		Filter:   filter,
		Progress: true,
	}
	return i.Run(ctx)
}
