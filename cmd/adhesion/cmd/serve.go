package cmd

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"adhesion-metrics/internal/collector"
	"adhesion-metrics/internal/config"
	"adhesion-metrics/internal/diagnostics"
	"adhesion-metrics/internal/model"
	"adhesion-metrics/internal/telemetry"
)

var (
	serveAddr              string
	serveConfigPath        string
	serveNominalHz         float64
	serveMaxLayerDurationS float64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live collector and stream completed layer metrics over websocket",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8089", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Optional YAML PipelineConfig override")
	serveCmd.Flags().Float64Var(&serveNominalHz, "nominal-hz", 50, "Nominal acquisition rate hint")
	serveCmd.Flags().Float64Var(&serveMaxLayerDurationS, "max-layer-duration", 120, "Per-layer ring buffer sizing horizon, seconds")
}

// sampleRequest is the JSON body for POST /samples, the host-facing
// equivalent of the abstract add_sample Live API entry point.
type sampleRequest struct {
	TimeS      float64 `json:"time_s"`
	PositionMM float64 `json:"position_mm"`
	ForceN     float64 `json:"force_N"`
}

type layerRequest struct {
	LayerNumber int64 `json:"layer_number"`
}

func runServe() {
	log := logrus.StandardLogger()

	cfg := config.Default()
	if serveConfigPath != "" {
		loaded, err := config.Load(serveConfigPath)
		if err != nil {
			log.Fatalf("serve: loading config: %v", err)
		}
		cfg = loaded
	}

	counters := &diagnostics.Counters{}
	bus := diagnostics.NewBus()
	hub := telemetry.NewHub(log)

	col := collector.New(cfg, serveMaxLayerDurationS, serveNominalHz,
		collector.WithDiagnostics(counters, bus),
		collector.WithLogger(log),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/layers/start", func(w http.ResponseWriter, r *http.Request) {
		var req layerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		col.StartLayer(req.LayerNumber)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/samples", func(w http.ResponseWriter, r *http.Request) {
		var req sampleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		col.AddSample(req.TimeS, req.PositionMM, req.ForceN)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/layers/finish", func(w http.ResponseWriter, r *http.Request) {
		col.FinishLayer(func(m model.LayerMetrics) {
			hub.Publish(m)
		})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("/ws", hub)

	log.Infof("serve: listening on %s", serveAddr)
	if err := http.ListenAndServe(serveAddr, mux); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
