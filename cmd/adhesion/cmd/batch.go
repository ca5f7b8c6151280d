package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"adhesion-metrics/internal/batch"
	"adhesion-metrics/internal/config"
	"adhesion-metrics/internal/csvio"
	"adhesion-metrics/internal/diagnostics"
)

var (
	batchInputPath  string
	batchOutputPath string
	batchConfigPath string
	batchNominalHz  float64
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the offline pipeline over a recorded sample file",
	Run: func(cmd *cobra.Command, args []string) {
		runBatch()
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInputPath, "input", "", "Path to the input sample CSV (required)")
	batchCmd.Flags().StringVar(&batchOutputPath, "output", "metrics.csv", "Path to write the output metrics CSV")
	batchCmd.Flags().StringVar(&batchConfigPath, "config", "", "Optional YAML PipelineConfig override")
	batchCmd.Flags().Float64Var(&batchNominalHz, "nominal-hz", 50, "Nominal acquisition rate hint")
	batchCmd.MarkFlagRequired("input")
}

func runBatch() {
	log := logrus.StandardLogger()

	cfg := config.Default()
	if batchConfigPath != "" {
		loaded, err := config.Load(batchConfigPath)
		if err != nil {
			log.Fatalf("batch: loading config: %v", err)
		}
		cfg = loaded
	}

	in, err := os.Open(batchInputPath)
	if err != nil {
		log.Fatalf("batch: opening input: %v", err)
	}
	defer in.Close()

	loadResult, err := csvio.LoadSampleRecord(in, batchNominalHz)
	if err != nil {
		log.Fatalf("batch: loading samples: %v", err)
	}
	if loadResult.RejectedRows > 0 {
		log.Warnf("batch: rejected %d malformed rows", loadResult.RejectedRows)
	}

	counters := &diagnostics.Counters{}
	result := batch.Run(loadResult.Record, cfg, nil, log, counters)
	if result.NoLayersFound {
		log.Warn("batch: no layers found in record")
	}
	if n := counters.UnpairedTailMotions.Load(); n > 0 {
		log.Warnf("batch: %d unpaired trailing motion(s) in segmentation", n)
	}

	out, err := os.Create(batchOutputPath)
	if err != nil {
		log.Fatalf("batch: creating output: %v", err)
	}
	defer out.Close()

	if err := csvio.WriteMetricsTable(out, result.Metrics); err != nil {
		log.Fatalf("batch: writing metrics: %v", err)
	}
	log.Infof("batch: wrote %d layer metrics to %s", len(result.Metrics), batchOutputPath)
}
