package split

import (
	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/simplify"
)

// Tags set on every bridge partition, after the tags of the original
// line have been copied.
var BridgeTags = map[string]string{
	"bridge": "yes",
	"layer":  "1",
}

type Applied struct {
	Lines    []*feature.Line
	Vertices []feature.Vertex
	Groups   []*feature.Group
}

// Mutator commits split plans to a store.
type Mutator struct {
	Store Store
}

// Apply replaces the line by one new line per partition of the plan and
// rewires every group that referenced it. The original line is marked
// deleted.
//
// Apply is not transactional: when the store fails halfway, the changes
// made up to that point stay in place.
func (m *Mutator) Apply(line *feature.Line, plan *Plan) (*Applied, error) {
	if plan.LineID != line.ID {
		return nil, ErrPlanMismatch
	}
	if len(plan.Partitions) == 0 {
		return nil, ErrNoBridges
	}
	if err := verifyChain(plan); err != nil {
		return nil, err
	}

	out := &Applied{}
	for _, v := range plan.NewVertices {
		if err := m.Store.AddVertex(v); err != nil {
			return nil, errors.Wrapf(err, "add vertex %d", v.ID)
		}
		out.Vertices = append(out.Vertices, v)
	}

	ids := make([]int64, 0, len(plan.Partitions))
	for _, part := range plan.Partitions {
		l := &feature.Line{
			ID:       m.Store.NewLineID(),
			Vertices: append([]feature.Vertex(nil), part.Vertices...),
			Tags:     feature.CopyTags(line.Tags),
		}
		if part.Bridge {
			for k, v := range BridgeTags {
				l.Tags[k] = v
			}
		}
		if err := m.Store.AddLine(l); err != nil {
			return nil, errors.Wrapf(err, "add line %d", l.ID)
		}
		out.Lines = append(out.Lines, l)
		ids = append(ids, l.ID)
	}

	groups, err := m.Store.GroupsReferencing(line.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "groups of line %d", line.ID)
	}
	for _, g := range groups {
		updated, err := m.Store.UpdateGroup(g.ID, func(g *feature.Group) error {
			g.Members = ReplaceMember(g.Members, line.ID, ids)
			g.Modified = true
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "update group %d", g.ID)
		}
		out.Groups = append(out.Groups, updated)
	}

	if err := m.Store.MarkDeleted(line.ID); err != nil {
		return nil, errors.Wrapf(err, "delete line %d", line.ID)
	}
	return out, nil
}

// ReplaceMember substitutes every way member referring to lineID by one
// member per replacement, keeping the role and the position in the list.
func ReplaceMember(members []feature.Member, lineID int64, replacements []int64) []feature.Member {
	out := make([]feature.Member, 0, len(members)+len(replacements))
	for _, m := range members {
		if m.Type != feature.WayMember || m.Ref != lineID {
			out = append(out, m)
			continue
		}
		for _, id := range replacements {
			out = append(out, feature.Member{
				Type: feature.WayMember,
				Ref:  id,
				Role: m.Role,
			})
		}
	}
	return out
}

func verifyChain(plan *Plan) error {
	pieces := make([][]int64, 0, len(plan.Partitions))
	for _, part := range plan.Partitions {
		refs := make([]int64, len(part.Vertices))
		for i, v := range part.Vertices {
			refs[i] = v.ID
		}
		pieces = append(pieces, refs)
	}

	chain, ok := simplify.Joined(pieces)
	if !ok || !sameRefs(chain, plan.Refs()) {
		return ErrBrokenChain
	}
	return nil
}

func sameRefs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
