package lighting

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lightingFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lighting_frames_total",
		Help: "The number of illumination frames computed.",
	})

	lightingAppliedLights = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lighting_applied_lights_total",
		Help: "The number of lights applied over all frames.",
	})

	lightingFrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lighting_frame_duration_seconds",
		Help:    "The time spent resetting and marking the illumination of a frame.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	lightingLights = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lighting_lights",
		Help: "The number of registered lights.",
	})
)

func instrumentFrame(appliedLights int, duration time.Duration) {
	lightingFrames.Inc()
	lightingAppliedLights.Add(float64(appliedLights))
	lightingFrameDuration.Observe(duration.Seconds())
}

func instrumentRegisterLight() {
	lightingLights.Inc()
}

func instrumentUnregisterLight() {
	lightingLights.Dec()
}
