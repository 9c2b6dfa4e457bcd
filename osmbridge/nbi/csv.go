package nbi

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	colStructureNumber = "STRUCTURE_NUMBER_008"
	colLat             = "LAT_016"
	colLong            = "LONG_017"
	colPrevLat         = "LATDD"
	colPrevLong        = "LONGDD"
	colStructureType   = "STRUCTURE_TYPE_043B"
	colStatus          = "OPEN_CLOSED_POSTED_041"
	colLength          = "STRUCTURE_LEN_MT_049"
)

// Read decodes inventory records from CSV. Only the structure number and
// packed coordinate columns are required.
func Read(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("nbi: empty input")
	}
	if err != nil {
		return nil, errors.Wrap(err, "nbi: read header")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range []string{colStructureNumber, colLat, colLong} {
		if _, ok := index[name]; !ok {
			return nil, errors.Errorf("nbi: missing column %q", name)
		}
	}
	_, hasPrevLat := index[colPrevLat]
	_, hasPrevLong := index[colPrevLong]

	records := make([]Record, 0)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "nbi: line %d", line)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := Record{
			StructureNumber: field(colStructureNumber),
			Lat016:          field(colLat),
			Long017:         field(colLong),
			Status:          field(colStatus),
		}

		if s := field(colStructureType); s != "" {
			rec.StructureType, err = strconv.Atoi(s)
			if err != nil {
				return nil, errors.Wrapf(err, "nbi: line %d: %s", line, colStructureType)
			}
		}
		if s := field(colLength); s != "" {
			rec.Length, err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "nbi: line %d: %s", line, colLength)
			}
		}
		if hasPrevLat && hasPrevLong {
			lat, errLat := strconv.ParseFloat(field(colPrevLat), 64)
			lon, errLon := strconv.ParseFloat(field(colPrevLong), 64)
			if errLat == nil && errLon == nil {
				rec.HasPrevious = true
				rec.PrevLat = lat
				rec.PrevLon = lon
			}
		}

		records = append(records, rec)
	}
	return records, nil
}

// Write stores the chosen coordinates in the column layout read by the
// association reader, without line ids.
func Write(w io.Writer, chosen []Choice) error {
	cw := csv.NewWriter(w)
	err := cw.Write([]string{"STRUCTURE_NUMBER_008", "final_lat", "final_long", "bridge_length"})
	if err != nil {
		return err
	}

	for _, c := range chosen {
		err := cw.Write([]string{
			c.StructureNumber,
			strconv.FormatFloat(c.Point.Lat, 'f', -1, 64),
			strconv.FormatFloat(c.Point.Lon, 'f', -1, 64),
			strconv.FormatFloat(c.Length, 'f', -1, 64),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
