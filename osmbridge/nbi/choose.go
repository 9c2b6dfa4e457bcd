package nbi

import (
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
)

// Exclusions is the list of structure numbers dropped because no usable
// coordinate could be chosen for them. Adding returns a new list, earlier
// values are never changed.
type Exclusions struct {
	ids []string
	set map[string]struct{}
}

func (e Exclusions) Add(id string) Exclusions {
	if e.Has(id) {
		return e
	}
	ids := make([]string, len(e.ids), len(e.ids)+1)
	copy(ids, e.ids)
	set := make(map[string]struct{}, len(e.set)+1)
	for k := range e.set {
		set[k] = struct{}{}
	}
	set[id] = struct{}{}
	return Exclusions{ids: append(ids, id), set: set}
}

func (e Exclusions) Has(id string) bool {
	_, ok := e.set[id]
	return ok
}

func (e Exclusions) Len() int {
	return len(e.ids)
}

// IDs returns the excluded structure numbers in the order they were added.
func (e Exclusions) IDs() []string {
	return append([]string(nil), e.ids...)
}

// Candidate is a record with its decoded coordinate and whether that
// coordinate, or the previously published one, is shared with another
// record.
type Candidate struct {
	Record

	Lat float64
	Lon float64

	DuplicateNew      bool
	DuplicatePrevious bool
}

// Choice is a record with the coordinate chosen for it.
type Choice struct {
	Record
	Point geodesy.Point
}

// Choose picks a coordinate for one candidate: the decoded one unless it
// is shared, then the previously published one unless that is shared too.
// When both are shared, the structure number is added to the exclusions
// and ok is false.
func Choose(c Candidate, ex Exclusions) (choice Choice, ok bool, out Exclusions) {
	if !c.DuplicateNew {
		return Choice{Record: c.Record, Point: geodesy.Point{Lat: c.Lat, Lon: c.Lon}}, true, ex
	}
	if c.DuplicatePrevious || !c.HasPrevious {
		return Choice{}, false, ex.Add(c.StructureNumber)
	}
	return Choice{Record: c.Record, Point: geodesy.Point{Lat: c.PrevLat, Lon: c.PrevLon}}, true, ex
}

type Result struct {
	Chosen     []Choice
	Exclusions Exclusions

	// Records dropped for an undecodable coordinate.
	Invalid []Record

	// Unposted culverts dropped.
	Culverts int
}

type coordinate struct {
	lat, lon float64
}

// Candidates decodes every record and flags shared coordinates. Records
// with an undecodable coordinate are returned separately.
func Candidates(records []Record) ([]Candidate, []Record) {
	candidates := make([]Candidate, 0, len(records))
	invalid := make([]Record, 0)

	newCount := make(map[coordinate]int)
	prevCount := make(map[coordinate]int)
	for _, r := range records {
		lat, err := DecodeLatitude(r.Lat016)
		if err != nil {
			invalid = append(invalid, r)
			continue
		}
		lon, err := DecodeLongitude(r.Long017)
		if err != nil {
			invalid = append(invalid, r)
			continue
		}

		candidates = append(candidates, Candidate{Record: r, Lat: lat, Lon: lon})
		newCount[coordinate{lat, lon}]++
		if r.HasPrevious {
			prevCount[coordinate{r.PrevLat, r.PrevLon}]++
		}
	}

	for i := range candidates {
		c := &candidates[i]
		c.DuplicateNew = newCount[coordinate{c.Lat, c.Lon}] > 1
		if c.HasPrevious {
			c.DuplicatePrevious = prevCount[coordinate{c.PrevLat, c.PrevLon}] > 1
		}
	}
	return candidates, invalid
}

// Process chooses a coordinate for every record. A structure number that
// was excluded once is dropped everywhere, and unposted culverts are
// dropped last.
func Process(records []Record) Result {
	candidates, invalid := Candidates(records)

	ex := Exclusions{}
	chosen := make([]Choice, 0, len(candidates))
	for _, c := range candidates {
		var choice Choice
		var ok bool
		choice, ok, ex = Choose(c, ex)
		if ok {
			chosen = append(chosen, choice)
		}
	}

	result := Result{
		Chosen:     make([]Choice, 0, len(chosen)),
		Exclusions: ex,
		Invalid:    invalid,
	}
	for _, c := range chosen {
		if ex.Has(c.StructureNumber) {
			continue
		}
		if c.UnpostedCulvert() {
			result.Culverts++
			continue
		}
		result.Chosen = append(result.Chosen, c)
	}
	return result
}
