// Package telemetry defines the Prometheus collectors for hosted stages and
// exposes them for scraping.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StagesActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "zoompan",
		Name:      "stages_active",
		Help:      "Stages currently hosted.",
	})

	Gestures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zoompan",
		Name:      "gestures_total",
		Help:      "Gesture commands applied, by command type and outcome.",
	}, []string{"type", "result"})

	TransformsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zoompan",
		Name:      "transforms_emitted_total",
		Help:      "Transforms handed to stage subscribers.",
	})

	ClientsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "zoompan",
		Name:      "ws_clients",
		Help:      "Websocket clients connected across all stages.",
	})
)

func init() {
	prometheus.MustRegister(StagesActive, Gestures, TransformsEmitted, ClientsConnected)
}

// ObserveGesture counts one gesture command.
func ObserveGesture(typ string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	Gestures.WithLabelValues(typ, result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
