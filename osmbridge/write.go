package osmbridge

import (
	"encoding/csv"
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

// Change builds the osmChange for the applied outcomes: new nodes and ways
// are created, rewired relations modified and split ways deleted.
func Change(outcomes []split.Outcome) *osm.Change {
	change := &osm.Change{
		Version:   "0.6",
		Generator: "osmbridge",
		Create:    &osm.OSM{},
		Modify:    &osm.OSM{},
		Delete:    &osm.OSM{},
	}

	// A relation rewired by several lines is updated once per line, and
	// every update adds members, so the longest version is the final one.
	groups := make(map[int64]*feature.Group)
	for _, o := range outcomes {
		if !o.Applied || len(o.NewLines) == 0 {
			continue
		}

		for _, v := range o.Plan.NewVertices {
			change.Create.Nodes = append(change.Create.Nodes, osmNode(v))
		}
		for _, l := range o.NewLines {
			change.Create.Ways = append(change.Create.Ways, osmWay(l))
		}
		for _, g := range o.Groups {
			if cur, ok := groups[g.ID]; !ok || len(g.Members) > len(cur.Members) {
				groups[g.ID] = g
			}
		}
		change.Delete.Ways = append(change.Delete.Ways, &osm.Way{
			ID: osm.WayID(o.LineID),
		})
	}

	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		change.Modify.Relations = append(change.Modify.Relations, osmRelation(groups[id]))
	}

	return change
}

func WriteChange(w io.Writer, outcomes []split.Outcome) error {
	_, err := io.WriteString(w, xml.Header)
	if err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	err = enc.Encode(Change(outcomes))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// WriteGeoJSON writes every new line as a LineString feature, with its
// tags as properties.
func WriteGeoJSON(w io.Writer, outcomes []split.Outcome) error {
	fc := geojson.NewFeatureCollection()
	for _, o := range outcomes {
		if !o.Applied {
			continue
		}
		for _, l := range o.NewLines {
			coords := make([][]float64, len(l.Vertices))
			for i, v := range l.Vertices {
				coords[i] = []float64{v.Lon, v.Lat}
			}

			f := geojson.NewLineStringFeature(coords)
			for k, v := range l.Tags {
				f.SetProperty(k, v)
			}
			f.SetProperty("osm_id", l.ID)
			f.SetProperty("split_from", o.LineID)
			fc.AddFeature(f)
		}
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

var splitInfoHeader = []string{
	"osm_id",
	"bridge_id",
	"bridge_lat",
	"bridge_long",
	"bridge_length",
	"first_split_point_lat",
	"first_split_point_long",
	"osm_id_for_first_split_point",
	"second_split_point_lat",
	"second_split_point_long",
	"osm_id_for_second_split_point",
	"warnings",
}

// WriteSplitInfo writes one row per placed bridge: both split points and
// the line each of them lies on.
func WriteSplitInfo(w io.Writer, outcomes []split.Outcome) error {
	cw := csv.NewWriter(w)
	err := cw.Write(splitInfoHeader)
	if err != nil {
		return err
	}

	for _, o := range outcomes {
		if o.Plan == nil {
			continue
		}
		for _, b := range o.Plan.Boundaries {
			messages := make([]string, 0)
			for _, warning := range o.Plan.Warnings {
				if warning.Bridge == b.Bridge {
					messages = append(messages, warning.String())
				}
			}

			err := cw.Write([]string{
				formatID(o.LineID),
				b.Point.ID,
				formatFloat(b.Point.Lat),
				formatFloat(b.Point.Lon),
				formatFloat(b.Point.Length),
				formatFloat(b.Backward.Point.Lat),
				formatFloat(b.Backward.Point.Lon),
				formatID(b.Backward.LineID),
				formatFloat(b.Forward.Point.Lat),
				formatFloat(b.Forward.Point.Lon),
				formatID(b.Forward.LineID),
				strings.Join(messages, "; "),
			})
			if err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

var reportHeader = []string{
	"osm_id",
	"status",
	"reason",
	"bridges",
	"rejected",
	"warnings",
	"spills",
	"new_lines",
}

// WriteReport writes one row per line, plus one row per rejected bridge.
// Lines a bridge continued into are reported as extended.
func WriteReport(w io.Writer, outcomes []split.Outcome) error {
	cw := csv.NewWriter(w)
	err := cw.Write(reportHeader)
	if err != nil {
		return err
	}

	for _, o := range outcomes {
		status := "split"
		reason := ""
		if o.Extends != 0 {
			status = "extended"
			reason = "bridge continues from line " + formatID(o.Extends)
		}
		if !o.Applied {
			status = "skipped"
		}
		if o.Err != nil {
			reason = o.Err.Error()
		}

		bridges := 0
		if o.Plan != nil {
			bridges = len(o.Plan.Boundaries)
		}

		err := cw.Write([]string{
			formatID(o.LineID),
			status,
			reason,
			strconv.Itoa(bridges),
			strconv.Itoa(len(o.Rejected())),
			strconv.Itoa(len(o.Warnings())),
			strconv.Itoa(len(o.Spills())),
			strconv.Itoa(len(o.NewLines)),
		})
		if err != nil {
			return err
		}

		for _, r := range o.Rejected() {
			err := cw.Write([]string{
				formatID(o.LineID),
				"rejected",
				r.Point.ID + ": " + r.Err.Error(),
				"", "", "", "", "",
			})
			if err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
