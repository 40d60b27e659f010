package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_debug_stream_clients",
		Help: "The number of connected debug stream clients.",
	})

	wsSentMsgs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_debug_stream_sent_msgs",
		Help: "The number of debug frames sent to WebSocket connections.",
	})

	wsSentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_debug_stream_sent_bytes",
		Help: "The number of bytes sent to WebSocket connections.",
	})

	wsSendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_debug_stream_send_errors",
		Help: "The errors that occured while sending a debug frame.",
	})

	wsDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_debug_stream_dropped_frames",
		Help: "The number of frames skipped because a client was still busy.",
	})
)

func instrumentConnect() {
	wsConnectedClients.Inc()
}

func instrumentDisconnect() {
	wsConnectedClients.Dec()
}

func instrumentSentMsg(size int) {
	wsSentMsgs.Inc()
	wsSentBytes.Add(float64(size))
}

func instrumentSendError() {
	wsSendErrors.Inc()
}

func instrumentDroppedFrame() {
	wsDroppedFrames.Inc()
}
