package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lumen/featureflag"
	"github.com/aukilabs/lumen/models"
	"github.com/aukilabs/lumen/quadtree"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// Creates a testing environement to unit test the debug stream. It returns
// the scene store, a function that dials the stream of a scene, and a function
// that releases the environment.
func NewTestingEnv(t *testing.T, flags ...string) (*models.SceneStore, func(sceneID string) (*websocket.Conn, error), func()) {
	var mutex sync.Mutex
	logger := t.Log

	logs.Encoder = func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}

	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()

		if logger != nil {
			logger(e)
		}
	})

	errors.Encoder = json.Marshal

	scenes := &models.SceneStore{}

	var mux http.ServeMux
	mux.Handle("GET /scenes/{id}/stream", &DebugStream{
		Scenes:       scenes,
		FeatureFlags: featureflag.New(flags),
	})
	server := httptest.NewServer(&mux)

	dial := func(sceneID string) (*websocket.Conn, error) {
		config, err := websocket.NewConfig(
			strings.ReplaceAll(server.URL, "http://", "ws://")+"/scenes/"+sceneID+"/stream",
			"http://localhost",
		)
		if err != nil {
			t.Fatalf("error initializing web socket: %s", err)
		}

		config.Header.Set("User-Agent", "ted")
		config.Header.Set("X-Client-ID", uuid.NewString())
		return websocket.DialConfig(config)
	}

	return scenes, dial, func() {
		scenes.Close()
		server.Close()

		mutex.Lock()
		defer mutex.Unlock()
		logger = nil
	}
}

func newTestScene(t *testing.T, scenes *models.SceneStore) *models.Scene {
	scene, err := models.NewScene(scenes.NewID(), models.SceneConfig{
		Tree: quadtree.Config{
			Size:     quadtree.Vector2{X: 100, Y: 100},
			Capacity: 4,
			MaxDepth: 2,
			PreSplit: true,
		},
		FrameDuration: time.Millisecond * 10,
	})
	if err != nil {
		t.Fatalf("error creating scene: %s", err)
	}

	scenes.Add(scene)
	go scene.StartDispatchFrames()
	return scene
}
