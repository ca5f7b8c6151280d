package telemetry

import (
	"encoding/binary"
	"math"

	"adhesion-metrics/internal/model"
)

// encodeMetrics hand-packs a LayerMetrics into a MessagePack fixarray of
// 15 float64/int64/bool elements, mirroring the metrics table's column
// order (internal/csvio) so one wire format serves both file and stream
// consumers. Adapted from the teacher's broadcast encoder, which packed
// Snapshot the same way: no reflection, no external msgpack dependency,
// just the handful of type markers the payload actually needs.
func encodeMetrics(m model.LayerMetrics) []byte {
	buf := make([]byte, 0, 256)
	buf = appendFixArrayHeader(buf, 15)
	buf = appendInt(buf, m.LayerNumber)
	buf = appendOptionalFloat(buf, m.StepSpeedUmPerS)
	buf = appendFloat(buf, m.PeakForceN)
	buf = appendFloat(buf, m.WorkOfAdhesionMJ)
	buf = appendFloat(buf, m.PreInitDurationS)
	buf = appendFloat(buf, m.DistanceToPeakMM)
	buf = appendFloat(buf, m.PropagationDurationS)
	buf = appendFloat(buf, m.PropagationDistanceMM)
	buf = appendFloat(buf, m.TotalPeelDurationS)
	buf = appendFloat(buf, m.TotalPeelDistanceMM)
	buf = appendFloat(buf, m.PeakRetractionForceN)
	buf = appendFloat(buf, m.EffectiveStiffnessNPerMM)
	buf = appendFloat(buf, m.StiffnessR2)
	buf = appendFloat(buf, m.SignalToNoiseRatio)
	buf = appendBool(buf, m.DataQualityOK)
	return buf
}

const (
	mpFixArrayMask = 0x90
	mpFloat64      = 0xcb
	mpInt64        = 0xd3
	mpNil          = 0xc0
	mpTrue         = 0xc3
	mpFalse        = 0xc2
)

func appendFixArrayHeader(buf []byte, n int) []byte {
	return append(buf, byte(mpFixArrayMask|n))
}

func appendFloat(buf []byte, v float64) []byte {
	if math.IsNaN(v) {
		return append(buf, mpNil)
	}
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
	buf = append(buf, mpFloat64)
	return append(buf, tmp[:]...)
}

func appendOptionalFloat(buf []byte, v *float64) []byte {
	if v == nil {
		return append(buf, mpNil)
	}
	return appendFloat(buf, *v)
}

func appendInt(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	buf = append(buf, mpInt64)
	return append(buf, tmp[:]...)
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, mpTrue)
	}
	return append(buf, mpFalse)
}
