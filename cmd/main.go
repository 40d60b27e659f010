package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/lumen/featureflag"
	lumenhttp "github.com/aukilabs/lumen/http"
	"github.com/aukilabs/lumen/models"
	"github.com/aukilabs/lumen/quadtree"
	lumenwebsocket "github.com/aukilabs/lumen/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The Lumen version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "lumen_info",
		Help:        "Lumen information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr          string        `cli:""        env:"LUMEN_ADDR"           help:"Listening address for client connections."`
	AdminAddr     string        `cli:""        env:"LUMEN_ADMIN_ADDR"     help:"Admin listening address."`
	LogLevel      string        `cli:""        env:"LUMEN_LOG_LEVEL"      help:"Log level (debug|info|warning|error)."`
	LogIndent     bool          `cli:""        env:"LUMEN_LOG_INDENT"     help:"Indent logs."`
	FrameDuration time.Duration `cli:",hidden" env:"LUMEN_FRAME_DURATION" help:"The default duration of a scene frame."`
	Scene         sceneConfig   `cli:",hidden" env:"-"                    help:"Default scene configuration."`
	Events        eventsConfig  `cli:",hidden" env:"-"                    help:"Event pusher configuration."`
	FeatureFlags  []string      `cli:",hidden" env:"LUMEN_FEATURE_FLAGS"  help:"Comma separated feature flags"`
	Version       bool          `cli:""        env:"-"                    help:"Show version."`
	Help          bool          `cli:""        env:"-"                    help:"Show help."`
}

type sceneConfig struct {
	Size     int `cli:",hidden" env:"LUMEN_SCENE_SIZE"      help:"The side length of the square covered by a scene."`
	Capacity int `cli:",hidden" env:"LUMEN_SCENE_CAPACITY"  help:"The number of objects a leaf holds before it splits."`
	MaxDepth int `cli:",hidden" env:"LUMEN_SCENE_MAX_DEPTH" help:"The depth at which scene nodes stop splitting."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"LUMEN_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"LUMEN_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"LUMEN_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"LUMEN_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:          ":4000",
		AdminAddr:     ":18190",
		LogLevel:      logs.InfoLevel.String(),
		FrameDuration: time.Millisecond * 15,
		Scene: sceneConfig{
			Size:     1000,
			Capacity: 4,
			MaxDepth: 4,
		},
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts Lumen server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	defaultSceneConfig := newDefaultSceneConfig(conf)
	if err := validateConfig(conf, defaultSceneConfig); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "lumen",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	featureFlags := featureflag.New(conf.FeatureFlags)

	var scenes models.SceneStore
	defer scenes.Close()

	var api http.ServeMux
	sceneHandler := lumenhttp.SceneHandler{
		Scenes:        &scenes,
		DefaultConfig: defaultSceneConfig,
		FeatureFlags:  featureFlags,
	}
	sceneHandler.Register(&api)
	api.Handle("GET /scenes/{id}/stream", &lumenwebsocket.DebugStream{
		Scenes:       &scenes,
		FeatureFlags: featureFlags,
	})

	readinessCheck := func() bool {
		return ctx.Err() == nil
	}

	var service http.ServeMux
	service.Handle("/scenes", lumenhttp.HandleWithCORS(&api))
	service.Handle("/scenes/", lumenhttp.HandleWithCORS(&api))
	service.Handle("/health", lumenhttp.HandleWithCORS(http.HandlerFunc(lumenhttp.HandleHealthCheck)))
	service.Handle("/version", lumenhttp.HandleWithCORS(http.HandlerFunc(lumenhttp.HandleVersion(version))))
	service.Handle("/ready", lumenhttp.HandleWithCORS(http.HandlerFunc(lumenhttp.HandleReadyCheck(readinessCheck))))
	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", lumenhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", lumenhttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("addr", conf.Addr).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting lumen server")

	lumenhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			lumenhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func newDefaultSceneConfig(conf config) models.SceneConfig {
	size := float32(conf.Scene.Size)

	return models.SceneConfig{
		Tree: quadtree.Config{
			Size:     quadtree.Vector2{X: size, Y: size},
			Capacity: conf.Scene.Capacity,
			MaxDepth: conf.Scene.MaxDepth,
		},
		FrameDuration: conf.FrameDuration,
	}
}

func validateConfig(conf config, sceneConf models.SceneConfig) error {
	if conf.Addr == "" {
		return errors.New("listening address is empty")
	}

	if err := sceneConf.Validate(); err != nil {
		return errors.New("invalid default scene configuration").Wrap(err)
	}

	if featureflag.New(conf.FeatureFlags).IsSet(featureflag.FlagPreSplitScenes) &&
		conf.Scene.MaxDepth > quadtree.MaxPreSplitDepth {
		return errors.New("scene max depth is too deep to pre-split").
			WithTag("max_depth", conf.Scene.MaxDepth).
			WithTag("limit", quadtree.MaxPreSplitDepth)
	}

	return nil
}
