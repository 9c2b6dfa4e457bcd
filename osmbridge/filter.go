package osmbridge

// LineFilter decides from its tags whether a way is loaded.
type LineFilter func(tags map[string]string) bool

// Highway classes carrying bridges worth splitting out.
var DefaultHighways = []string{
	"motorway", "motorway_link",
	"trunk", "trunk_link",
	"primary", "primary_link",
	"secondary", "secondary_link",
	"tertiary", "tertiary_link",
	"unclassified",
	"residential",
	"service", "services",
	"track",
	"road",
}

// HighwayFilter keeps ways whose highway tag is one of classes. An empty
// list keeps every way with a highway tag.
func HighwayFilter(classes []string) LineFilter {
	allowed := make(map[string]bool, len(classes))
	for _, c := range classes {
		allowed[c] = true
	}

	return func(tags map[string]string) bool {
		v, ok := tags["highway"]
		if !ok {
			return false
		}
		return len(allowed) == 0 || allowed[v]
	}
}
