// Package metrics records build metrics for one packaging run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Build holds the metrics of a single build. A nil *Build discards observations.
type Build struct {
	registry *prometheus.Registry

	functionsScanned prometheus.Gauge
	aboutEntries     prometheus.Gauge
	artifactBytes    prometheus.Gauge
	bundlesTotal     prometheus.Counter
	phaseDuration    *prometheus.GaugeVec
}

// NewBuild creates a build with its own registry.
func NewBuild() *Build {
	b := &Build{
		registry: prometheus.NewRegistry(),
		functionsScanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slsabout_functions_scanned",
			Help: "Number of declared functions scanned for about annotations",
		}),
		aboutEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slsabout_about_entries",
			Help: "Number of about annotations found",
		}),
		artifactBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slsabout_artifact_bytes",
			Help: "Size of the generated about handler in bytes",
		}),
		bundlesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slsabout_bundles_total",
			Help: "Number of deployment bundles written",
		}),
		phaseDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "slsabout_phase_duration_seconds",
				Help: "Duration of each lifecycle phase in seconds",
			},
			[]string{"phase"},
		),
	}

	b.registry.MustRegister(
		b.functionsScanned,
		b.aboutEntries,
		b.artifactBytes,
		b.bundlesTotal,
		b.phaseDuration,
	)

	return b
}

// ObserveScan records the scanner results.
func (b *Build) ObserveScan(functions, entries int) {
	if b == nil {
		return
	}
	b.functionsScanned.Set(float64(functions))
	b.aboutEntries.Set(float64(entries))
}

// ObserveArtifact records the generated artifact size.
func (b *Build) ObserveArtifact(size int) {
	if b == nil {
		return
	}
	b.artifactBytes.Set(float64(size))
}

// IncBundles counts a written bundle.
func (b *Build) IncBundles() {
	if b == nil {
		return
	}
	b.bundlesTotal.Inc()
}

// ObservePhase records how long a lifecycle phase took.
func (b *Build) ObservePhase(phase string, d time.Duration) {
	if b == nil {
		return
	}
	b.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
}

// Registry returns the build's registry.
func (b *Build) Registry() *prometheus.Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

// WriteTextfile writes the metrics in the text exposition format, for the node
// exporter textfile collector.
func (b *Build) WriteTextfile(path string) error {
	if b == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, b.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
