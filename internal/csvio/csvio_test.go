package csvio

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhesion-metrics/internal/model"
)

func TestLoadSampleRecordParsesRequiredColumns(t *testing.T) {
	csvData := "Elapsed Time (s),Position (mm),Force (N),Phase\n" +
		"0.00,0.0,0.01,Unknown\n" +
		"0.02,-0.1,0.05,Lift\n" +
		"0.04,-0.2,0.09,Lift\n"

	res, err := LoadSampleRecord(strings.NewReader(csvData), 50)
	require.NoError(t, err)
	require.Len(t, res.Record.Samples, 3)
	assert.Equal(t, 0, res.RejectedRows)
	assert.InDelta(t, -0.2, res.Record.Samples[2].PositionMM, 1e-9)
}

func TestLoadSampleRecordRejectsMalformedRows(t *testing.T) {
	csvData := "Time (s),Position (mm),Force (N)\n" +
		"0.00,0.0,0.01\n" +
		"bad,0.0,0.02\n" +
		"0.04,,0.03\n" +
		"0.06,-0.3,0.04\n"

	res, err := LoadSampleRecord(strings.NewReader(csvData), 50)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RejectedRows)
	require.Len(t, res.Record.Samples, 2)
}

func TestLoadSampleRecordMissingColumnErrors(t *testing.T) {
	csvData := "Time (s),Force (N)\n0,1\n"
	_, err := LoadSampleRecord(strings.NewReader(csvData), 50)
	assert.Error(t, err)
}

func TestMetricsTableRoundTrip(t *testing.T) {
	speed := 12.5
	rows := []model.LayerMetrics{
		{
			LayerNumber:              1,
			StepSpeedUmPerS:          &speed,
			PeakForceN:               4.321,
			WorkOfAdhesionMJ:         0.789,
			PreInitDurationS:         0.12,
			DistanceToPeakMM:         1.5,
			PropagationDurationS:     0.2,
			PropagationDistanceMM:    0.8,
			TotalPeelDurationS:       0.32,
			TotalPeelDistanceMM:      2.3,
			PeakRetractionForceN:     -0.05,
			EffectiveStiffnessNPerMM: 10.1,
			StiffnessR2:              0.98,
			SignalToNoiseRatio:       22.4,
			DataQualityOK:            true,
		},
		model.NaNMetrics(2),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMetricsTable(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "Layer_Number,Step_Speed_um_s,Peak_Force_N")
	// NaN fields must serialize as empty cells, never the literal "NaN".
	assert.NotContains(t, out, "NaN")

	parsed, err := ReadMetricsTable(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	assert.InDelta(t, 4.321, parsed[0].PeakForceN, 1e-9)
	require.NotNil(t, parsed[0].StepSpeedUmPerS)
	assert.InDelta(t, 12.5, *parsed[0].StepSpeedUmPerS, 1e-9)
	assert.True(t, parsed[0].DataQualityOK)

	assert.True(t, math.IsNaN(parsed[1].PeakForceN))
	assert.Nil(t, parsed[1].StepSpeedUmPerS)
	assert.False(t, parsed[1].DataQualityOK)
}
