package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lumen/featureflag"
	lumenhttp "github.com/aukilabs/lumen/http"
	"github.com/aukilabs/lumen/models"
	"github.com/aukilabs/lumen/quadtree"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// FrameMsg is the message pushed to debug stream clients after each frame.
type FrameMsg struct {
	SceneID   uint32             `json:"scene_id"`
	SceneUUID string             `json:"scene_uuid"`
	Frame     uint64             `json:"frame"`
	Timestamp time.Time          `json:"timestamp"`
	Lights    int                `json:"lights"`
	Tree      quadtree.DebugInfo `json:"tree"`
}

// DebugStream pushes the node geometry and illumination of a scene to
// websocket clients once per dispatched frame. Clients that do not keep up
// skip frames.
type DebugStream struct {
	// The store that contains all the server scenes.
	Scenes *models.SceneStore

	FeatureFlags featureflag.FeatureFlag
}

// ServeHTTP serves the stream of the scene designated by the {id} path
// value.
func (s *DebugStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.FeatureFlags.IsSet(featureflag.FlagDisableDebugStream) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	scene, err := lumenhttp.SceneFromRequest(s.Scenes, r)
	if err != nil {
		w.WriteHeader(lumenhttp.StatusCode(err))
		return
	}

	websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()
			s.stream(context.Background(), conn, scene)
		},
	}.ServeHTTP(w, r)
}

func (s *DebugStream) stream(ctx context.Context, conn *websocket.Conn, scene *models.Scene) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	instrumentConnect()
	defer instrumentDisconnect()

	logs.WithTag("scene_id", scene.ID).
		WithTag("remote_addr", conn.Request().RemoteAddr).
		Info("debug stream client connected")

	frames := make(chan struct{}, 1)
	stopFrameHandling := scene.HandleFrame(func() {
		select {
		case frames <- struct{}{}:
		default:
			instrumentDroppedFrame()
		}
	})
	defer stopFrameHandling()

	// Clients are not expected to send anything. Reading is only done to
	// notice disconnections.
	go func() {
		defer cancel()

		var discard []byte
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	var frame uint64
	for {
		select {
		case <-ctx.Done():
			logs.WithTag("scene_id", scene.ID).Info("debug stream client disconnected")
			return

		case <-scene.Done():
			logs.WithTag("scene_id", scene.ID).Info("debug stream scene closed")
			return

		case <-frames:
			frame++
			if err := sendFrame(conn, scene, frame); err != nil {
				instrumentSendError()
				logs.WithTag("scene_id", scene.ID).
					Warn(errors.New("sending debug frame failed").Wrap(err))
				return
			}
		}
	}
}

func sendFrame(conn *websocket.Conn, scene *models.Scene, frame uint64) error {
	lights, tree := scene.Snapshot()
	msg := FrameMsg{
		SceneID:   scene.ID,
		SceneUUID: scene.SceneUUID,
		Frame:     frame,
		Timestamp: time.Now().UTC(),
		Lights:    len(lights),
		Tree:      tree,
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return errors.New("encoding debug frame failed").Wrap(err)
	}

	if err := websocket.Message.Send(conn, string(b)); err != nil {
		return err
	}

	instrumentSentMsg(len(b))
	return nil
}
