package osmbridge

import (
	"compress/gzip"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/model"
)

// Update applies an osmChange file (optionally gzipped) to the store.
type Update struct {
	Store    *Store
	Filename string
}

func (u *Update) Run() error {
	f, err := os.Open(u.Filename)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(u.Filename, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return errors.Wrap(err, "open "+u.Filename)
		}
		defer gz.Close()
		r = gz
	}

	change := &osm.Change{}
	err = xml.NewDecoder(r).Decode(change)
	if err != nil {
		return errors.Wrap(err, "decode "+u.Filename)
	}

	return u.process(change)
}

func (u *Update) process(c *osm.Change) error {
	if c.Delete != nil {
		err := u.remove(c.Delete)
		if err != nil {
			return err
		}
	}
	if c.Create != nil {
		err := u.add(c.Create)
		if err != nil {
			return err
		}
	}
	if c.Modify != nil {
		err := u.add(c.Modify)
		if err != nil {
			return err
		}
	}
	return nil
}

func (u *Update) remove(o *osm.OSM) error {
	for _, r := range o.Relations {
		n, err := u.Store.GetRelation(int64(r.ID))
		if err != nil {
			return err
		}
		if n != nil {
			err = u.Store.removeRelation(n)
			if err != nil {
				return err
			}
		}
	}

	for _, w := range o.Ways {
		n, err := u.Store.GetWay(int64(w.ID))
		if err != nil {
			return err
		}
		if n != nil {
			err = u.Store.removeWay(n)
			if err != nil {
				return err
			}
		}
	}

	for _, node := range o.Nodes {
		n, err := u.Store.GetNode(int64(node.ID))
		if err != nil {
			return err
		}
		if n != nil {
			err = u.Store.removeNode(n)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *Update) add(o *osm.OSM) error {
	if len(o.Nodes) > 0 {
		nodes := make([]*model.Node, len(o.Nodes))
		for i, n := range o.Nodes {
			nodes[i] = NodeFromOSM(n)
		}
		err := u.Store.addNewNodes(nodes)
		if err != nil {
			return err
		}
	}

	if len(o.Ways) > 0 {
		ways := make([]*model.Way, len(o.Ways))
		for i, w := range o.Ways {
			ways[i] = WayFromOSM(w)
		}
		err := u.Store.addNewWays(ways)
		if err != nil {
			return err
		}
	}

	if len(o.Relations) > 0 {
		relations := make([]*model.Relation, len(o.Relations))
		for i, r := range o.Relations {
			relations[i] = RelationFromOSM(r)
		}
		err := u.Store.addNewRelations(relations)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ApplyChange(file string) error {
	u := &Update{
		Store:    s,
		Filename: file,
	}
	return u.Run()
}
