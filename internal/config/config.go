// Package config defines the pipeline's sole tuning surface:
// PipelineConfig. There are no environment variables and no implicit
// global state — every threshold used by smoothing, segmentation, and
// event detection flows from one of these values, loaded once and passed
// by the caller.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PipelineConfig holds every tunable constant in spec.md §3/§6. Field
// names mirror the spec's snake_case keys via yaml tags so a config file
// only needs to name the thresholds it wants to override; Load merges
// onto Default().
type PipelineConfig struct {
	ExpectedLiftMM   float64 `yaml:"expected_lift_mm"`
	LiftToleranceMM  float64 `yaml:"lift_tolerance_mm"`

	MedianKernel int `yaml:"median_kernel"`
	SavgolWindow int `yaml:"savgol_window"`
	SavgolOrder  int `yaml:"savgol_order"`

	PropagationEndThresholdFraction float64 `yaml:"propagation_end_threshold_fraction"`
	PreInitRelativeThreshold        float64 `yaml:"pre_init_relative_threshold"`

	MotionEndStabilityStddevMM float64 `yaml:"motion_end_stability_stddev_mm"`
	MotionEndStabilityPoints   int     `yaml:"motion_end_stability_points"`
	MotionEndMaxSearch         int     `yaml:"motion_end_max_search"`

	StationaryPositionThresholdMM float64 `yaml:"stationary_position_threshold_mm"`
	StationaryCountThreshold      int     `yaml:"stationary_count_threshold"`

	SandwichMaxDistanceMM float64 `yaml:"sandwich_max_distance_mm"`
}

// Default returns the defaults tabulated in spec.md §3.
func Default() PipelineConfig {
	return PipelineConfig{
		ExpectedLiftMM:  6.0,
		LiftToleranceMM: 0.5,

		MedianKernel: 5,
		SavgolWindow: 9,
		SavgolOrder:  2,

		PropagationEndThresholdFraction: 0.10,
		PreInitRelativeThreshold:        0.02,

		MotionEndStabilityStddevMM: 0.02,
		MotionEndStabilityPoints:   3,
		MotionEndMaxSearch:         500,

		StationaryPositionThresholdMM: 0.002,
		StationaryCountThreshold:      3,

		SandwichMaxDistanceMM: 1.0,
	}
}

// Load reads a YAML file and merges its fields onto Default(). A zero
// value in the YAML document (including an absent key) keeps the
// default, so a config file only needs to name the overrides it wants.
func Load(path string) (PipelineConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	var overrides PipelineConfig
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	mergeNonZero(&cfg, overrides)
	return cfg, nil
}

func mergeNonZero(dst *PipelineConfig, src PipelineConfig) {
	if src.ExpectedLiftMM != 0 {
		dst.ExpectedLiftMM = src.ExpectedLiftMM
	}
	if src.LiftToleranceMM != 0 {
		dst.LiftToleranceMM = src.LiftToleranceMM
	}
	if src.MedianKernel != 0 {
		dst.MedianKernel = src.MedianKernel
	}
	if src.SavgolWindow != 0 {
		dst.SavgolWindow = src.SavgolWindow
	}
	if src.SavgolOrder != 0 {
		dst.SavgolOrder = src.SavgolOrder
	}
	if src.PropagationEndThresholdFraction != 0 {
		dst.PropagationEndThresholdFraction = src.PropagationEndThresholdFraction
	}
	if src.PreInitRelativeThreshold != 0 {
		dst.PreInitRelativeThreshold = src.PreInitRelativeThreshold
	}
	if src.MotionEndStabilityStddevMM != 0 {
		dst.MotionEndStabilityStddevMM = src.MotionEndStabilityStddevMM
	}
	if src.MotionEndStabilityPoints != 0 {
		dst.MotionEndStabilityPoints = src.MotionEndStabilityPoints
	}
	if src.MotionEndMaxSearch != 0 {
		dst.MotionEndMaxSearch = src.MotionEndMaxSearch
	}
	if src.StationaryPositionThresholdMM != 0 {
		dst.StationaryPositionThresholdMM = src.StationaryPositionThresholdMM
	}
	if src.StationaryCountThreshold != 0 {
		dst.StationaryCountThreshold = src.StationaryCountThreshold
	}
	if src.SandwichMaxDistanceMM != 0 {
		dst.SandwichMaxDistanceMM = src.SandwichMaxDistanceMM
	}
}
