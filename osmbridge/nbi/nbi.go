// Package nbi prepares National Bridge Inventory records: it decodes the
// packed degree-minute-second coordinates, resolves records sharing a
// location and drops unposted culverts.
package nbi

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Structure type code of culverts (item 43B).
const CulvertType = 19

// Record is the subset of an inventory record used for bridge placement.
type Record struct {
	StructureNumber string

	// Packed coordinates, items 16 and 17.
	Lat016  string
	Long017 string

	// Previously published decimal coordinates, if the input had them.
	HasPrevious bool
	PrevLat     float64
	PrevLon     float64

	StructureType int
	Status        string
	Length        float64
}

// Posted reports whether the structure is posted for load (item 41).
func (r Record) Posted() bool {
	return r.Status == "P"
}

func (r Record) UnpostedCulvert() bool {
	return r.StructureType == CulvertType && !r.Posted()
}

// DecodeLatitude decodes item 16, DDMMSSss, into decimal degrees. Short
// values are left padded with zeros.
func DecodeLatitude(s string) (float64, error) {
	return decode(s, 2)
}

// DecodeLongitude decodes item 17, DDDMMSSss, into decimal degrees. All
// inventory longitudes are west, so the result is negative.
func DecodeLongitude(s string) (float64, error) {
	v, err := decode(s, 3)
	return -v, err
}

func decode(s string, degreeDigits int) (float64, error) {
	s = strings.TrimSpace(s)
	width := degreeDigits + 6
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	for _, c := range s[:width] {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("nbi: invalid packed coordinate %q", s)
		}
	}

	degrees, _ := strconv.Atoi(s[:degreeDigits])
	minutes, _ := strconv.Atoi(s[degreeDigits : degreeDigits+2])
	seconds, _ := strconv.ParseFloat(s[degreeDigits+2:degreeDigits+4]+"."+s[degreeDigits+4:width], 64)
	return float64(degrees) + float64(minutes)/60 + seconds/3600, nil
}
