// Package csvio implements component G: the CSV boundary of the core —
// loading a raw sample record and writing/reading the metrics table.
// Grounded on the teacher's state.Loader (header-indexed-by-name column
// matching) and logger.CSVLogger (buffered writer, daily-rotation-style
// open/flush discipline), adapted from market ticks to adhesion samples.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"adhesion-metrics/internal/model"
)

// sampleColumnAliases maps each required/optional logical column to the
// header names accepted for it, case-insensitively, per spec.md §6.
var sampleColumnAliases = map[string][]string{
	"time":     {"Elapsed Time (s)", "Time (s)", "Elapsed_Time_s", "time_s"},
	"position": {"Position (mm)", "Position_mm", "position_mm"},
	"force":    {"Force (N)", "Force_N", "force_N"},
	"phase":    {"Phase"},
}

// LoadResult carries the parsed record plus the count of rejected rows
// (missing/non-numeric required cells), per spec.md §6.
type LoadResult struct {
	Record       *model.SampleRecord
	RejectedRows int
}

// LoadSampleRecord reads a UTF-8 comma-separated sample file with a
// required header row. Required columns: time, position, force
// (matched case-insensitively against sampleColumnAliases); Phase is
// optional and currently parsed but not retained on Sample (the model
// has no phase field — phase is informational-only per spec.md §4.F and
// is not part of the core data model).
func LoadSampleRecord(r io.Reader, nominalHz float64) (LoadResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return LoadResult{}, fmt.Errorf("csvio: read header: %w", err)
	}
	idx, err := resolveColumns(header)
	if err != nil {
		return LoadResult{}, err
	}

	var samples []model.Sample
	rejected := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return LoadResult{}, fmt.Errorf("csvio: read row: %w", err)
		}

		s, ok := parseRow(row, idx)
		if !ok {
			rejected++
			continue
		}
		samples = append(samples, s)
	}

	record := &model.SampleRecord{Samples: samples, NominalHz: nominalHz}
	if err := record.Validate(); err != nil {
		return LoadResult{Record: record, RejectedRows: rejected}, err
	}
	return LoadResult{Record: record, RejectedRows: rejected}, nil
}

func resolveColumns(header []string) (map[string]int, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	idx := make(map[string]int)
	for col, aliases := range sampleColumnAliases {
		found := -1
		for _, alias := range aliases {
			for i, h := range normalized {
				if h == strings.ToLower(alias) {
					found = i
					break
				}
			}
			if found >= 0 {
				break
			}
		}
		if found < 0 && col != "phase" {
			return nil, fmt.Errorf("csvio: required column %q not found in header %v", col, header)
		}
		idx[col] = found
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (model.Sample, bool) {
	t, ok1 := parseCell(row, idx["time"])
	x, ok2 := parseCell(row, idx["position"])
	f, ok3 := parseCell(row, idx["force"])
	if !ok1 || !ok2 || !ok3 {
		return model.Sample{}, false
	}
	return model.Sample{TimeS: t, PositionMM: x, ForceN: f}, true
}

func parseCell(row []string, col int) (float64, bool) {
	if col < 0 || col >= len(row) {
		return 0, false
	}
	s := strings.TrimSpace(row[col])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
