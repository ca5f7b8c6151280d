package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"adhesion-metrics/internal/model"
)

// metricsHeader is the exact 15-column order from spec.md §6.
var metricsHeader = []string{
	"Layer_Number",
	"Step_Speed_um_s",
	"Peak_Force_N",
	"Work_of_Adhesion_mJ",
	"Time_to_Peak_s",
	"Distance_to_Peak_mm",
	"Propagation_Time_s",
	"Propagation_Distance_mm",
	"Total_Peel_Time_s",
	"Total_Peel_Distance_mm",
	"Peak_Retraction_Force_N",
	"Effective_Stiffness_N_per_mm",
	"Stiffness_R2",
	"SNR",
	"Data_Quality_OK",
}

// WriteMetricsTable writes rows in the exact column order and names
// spec.md §6 requires. Missing/non-applicable values (NaN, nil optional
// fields) are serialized as empty cells, never the string "NaN".
func WriteMetricsTable(w io.Writer, rows []model.LayerMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(metricsHeader); err != nil {
		return fmt.Errorf("csvio: write header: %w", err)
	}
	for _, m := range rows {
		// Time_to_Peak_s is pre_init_duration_s (peak_time - pre_init_time).
		record := []string{
			strconv.FormatInt(m.LayerNumber, 10),
			formatOptionalFloat(m.StepSpeedUmPerS),
			formatFloat(m.PeakForceN),
			formatFloat(m.WorkOfAdhesionMJ),
			formatFloat(m.PreInitDurationS),
			formatFloat(m.DistanceToPeakMM),
			formatFloat(m.PropagationDurationS),
			formatFloat(m.PropagationDistanceMM),
			formatFloat(m.TotalPeelDurationS),
			formatFloat(m.TotalPeelDistanceMM),
			formatFloat(m.PeakRetractionForceN),
			formatFloat(m.EffectiveStiffnessNPerMM),
			formatFloat(m.StiffnessR2),
			formatFloat(m.SignalToNoiseRatio),
			strconv.FormatBool(m.DataQualityOK),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csvio: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// ReadMetricsTable is the reverse of WriteMetricsTable, for round-trip
// tests and for tooling that consumes a previously emitted table. Empty
// cells become NaN (required fields) or nil (optional fields).
func ReadMetricsTable(r io.Reader) ([]model.LayerMetrics, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csvio: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	var out []model.LayerMetrics
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvio: read row: %w", err)
		}

		layerNum, _ := strconv.ParseInt(strings.TrimSpace(row[idx["Layer_Number"]]), 10, 64)
		m := model.LayerMetrics{
			LayerNumber:              layerNum,
			StepSpeedUmPerS:          parseOptionalFloat(row, idx, "Step_Speed_um_s"),
			PeakForceN:               parseNaNFloat(row, idx, "Peak_Force_N"),
			WorkOfAdhesionMJ:         parseNaNFloat(row, idx, "Work_of_Adhesion_mJ"),
			PreInitDurationS:         parseNaNFloat(row, idx, "Time_to_Peak_s"),
			DistanceToPeakMM:         parseNaNFloat(row, idx, "Distance_to_Peak_mm"),
			PropagationDurationS:     parseNaNFloat(row, idx, "Propagation_Time_s"),
			PropagationDistanceMM:    parseNaNFloat(row, idx, "Propagation_Distance_mm"),
			TotalPeelDurationS:       parseNaNFloat(row, idx, "Total_Peel_Time_s"),
			TotalPeelDistanceMM:      parseNaNFloat(row, idx, "Total_Peel_Distance_mm"),
			PeakRetractionForceN:     parseNaNFloat(row, idx, "Peak_Retraction_Force_N"),
			EffectiveStiffnessNPerMM: parseNaNFloat(row, idx, "Effective_Stiffness_N_per_mm"),
			StiffnessR2:              parseNaNFloat(row, idx, "Stiffness_R2"),
			SignalToNoiseRatio:       parseNaNFloat(row, idx, "SNR"),
			DataQualityOK:            strings.TrimSpace(row[idx["Data_Quality_OK"]]) == "true",
		}
		out = append(out, m)
	}
	return out, nil
}

func parseNaNFloat(row []string, idx map[string]int, col string) float64 {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return math.NaN()
	}
	s := strings.TrimSpace(row[i])
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseOptionalFloat(row []string, idx map[string]int, col string) *float64 {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return nil
	}
	s := strings.TrimSpace(row[i])
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
