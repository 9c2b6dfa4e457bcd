// Package association reads bridge-to-line associations and attaches
// unassociated bridges to the nearest loaded line.
package association

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

// Columns names the CSV columns holding each field.
type Columns struct {
	LineID   string `yaml:"line_id"`
	Lat      string `yaml:"lat"`
	Lon      string `yaml:"lon"`
	Length   string `yaml:"length"`
	BridgeID string `yaml:"bridge_id"`
}

func DefaultColumns() Columns {
	return Columns{
		LineID:   "final_osm_id",
		Lat:      "final_lat",
		Lon:      "final_long",
		Length:   "bridge_length",
		BridgeID: "STRUCTURE_NUMBER_008",
	}
}

// withDefaults fills every empty column name from DefaultColumns.
func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.LineID == "" {
		c.LineID = d.LineID
	}
	if c.Lat == "" {
		c.Lat = d.Lat
	}
	if c.Lon == "" {
		c.Lon = d.Lon
	}
	if c.Length == "" {
		c.Length = d.Length
	}
	if c.BridgeID == "" {
		c.BridgeID = d.BridgeID
	}
	return c
}

// Row is one bridge and the line it belongs to. LineID is zero when the
// input did not name a line.
type Row struct {
	Line   int
	LineID int64
	Bridge split.BridgePoint
}

// RowError is a record that could not be decoded.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: %s", e.Line, e.Column, e.Err)
}

type Result struct {
	Rows       []Row
	Invalid    []*RowError
	Duplicates int
}

// Read decodes associations from CSV. Records repeating an earlier record
// exactly are dropped. Records with undecodable values are reported in
// Invalid, a missing column fails the whole read.
func Read(r io.Reader, cols Columns) (*Result, error) {
	cols = cols.withDefaults()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("association: empty input")
	}
	if err != nil {
		return nil, errors.Wrap(err, "association: read header")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	lookup := func(name string, required bool) (int, error) {
		i, ok := index[name]
		if !ok {
			if required {
				return -1, errors.Errorf("association: missing column %q", name)
			}
			return -1, nil
		}
		return i, nil
	}

	lineCol, err := lookup(cols.LineID, false)
	if err != nil {
		return nil, err
	}
	latCol, err := lookup(cols.Lat, true)
	if err != nil {
		return nil, err
	}
	lonCol, err := lookup(cols.Lon, true)
	if err != nil {
		return nil, err
	}
	lengthCol, err := lookup(cols.Length, true)
	if err != nil {
		return nil, err
	}
	idCol, err := lookup(cols.BridgeID, false)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Rows:    make([]Row, 0),
		Invalid: make([]*RowError, 0),
	}
	seen := make(map[string]bool)

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "association: line %d", line)
		}

		key := strings.Join(record, "\x00")
		if seen[key] {
			result.Duplicates++
			continue
		}
		seen[key] = true

		field := func(i int) string {
			if i < 0 || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := Row{Line: line}
		var rowErr *RowError

		row.Bridge.Lat, rowErr = parseFloat(line, cols.Lat, field(latCol))
		if rowErr == nil {
			row.Bridge.Lon, rowErr = parseFloat(line, cols.Lon, field(lonCol))
		}
		if rowErr == nil {
			row.Bridge.Length, rowErr = parseFloat(line, cols.Length, field(lengthCol))
		}
		if rowErr == nil {
			row.LineID, rowErr = parseID(line, cols.LineID, field(lineCol))
		}
		if rowErr != nil {
			result.Invalid = append(result.Invalid, rowErr)
			continue
		}
		row.Bridge.ID = field(idCol)

		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func ReadFile(path string, cols Columns) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, cols)
}

func parseFloat(line int, column, s string) (float64, *RowError) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &RowError{Line: line, Column: column, Err: err}
	}
	return v, nil
}

// parseID accepts integers written as floats ("12345.0"), which is how
// spreadsheet exports write id columns containing blanks.
func parseID(line int, column, s string) (int64, *RowError) {
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, &RowError{Line: line, Column: column, Err: errors.Errorf("invalid line id %q", s)}
	}
	return int64(f), nil
}

// Jobs groups associated rows by line, in order of first appearance.
// Rows without a line are left out.
func Jobs(rows []Row) []split.Job {
	jobs := make([]split.Job, 0)
	index := make(map[int64]int)
	for _, r := range rows {
		if r.LineID == 0 {
			continue
		}
		i, ok := index[r.LineID]
		if !ok {
			i = len(jobs)
			index[r.LineID] = i
			jobs = append(jobs, split.Job{LineID: r.LineID})
		}
		jobs[i].Bridges = append(jobs[i].Bridges, r.Bridge)
	}
	return jobs
}
