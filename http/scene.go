package http

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lumen/featureflag"
	"github.com/aukilabs/lumen/lighting"
	"github.com/aukilabs/lumen/models"
	"github.com/aukilabs/lumen/quadtree"
	"github.com/segmentio/encoding/json"
)

const (
	maxRequestBodySize = 1 << 20

	errTypeBadRequest = "bad_request"
)

// SceneHandler serves the scene API.
type SceneHandler struct {
	// The store that contains all the server scenes.
	Scenes *models.SceneStore

	// The configuration of scenes created without an explicit one. Its max
	// depth also bounds the trees requested by clients.
	DefaultConfig models.SceneConfig

	FeatureFlags featureflag.FeatureFlag
}

// Register registers the scene API routes on the given mux.
func (h *SceneHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /scenes", h.HandleSceneCreate)
	mux.HandleFunc("GET /scenes", h.HandleSceneList)
	mux.HandleFunc("GET /scenes/{id}", h.HandleSceneGet)
	mux.HandleFunc("DELETE /scenes/{id}", h.HandleSceneDelete)
	mux.HandleFunc("GET /scenes/{id}/debug", h.HandleSceneDebug)
	mux.HandleFunc("POST /scenes/{id}/query", h.HandleSceneQuery)

	mux.HandleFunc("GET /scenes/{id}/objects", h.HandleObjectList)
	mux.HandleFunc("POST /scenes/{id}/objects", h.HandleObjectAdd)
	mux.HandleFunc("PUT /scenes/{id}/objects/{objectID}", h.HandleObjectMove)
	mux.HandleFunc("DELETE /scenes/{id}/objects/{objectID}", h.HandleObjectDelete)
	mux.HandleFunc("GET /scenes/{id}/objects/{objectID}/lit", h.HandleObjectLit)

	mux.HandleFunc("GET /scenes/{id}/lights", h.HandleLightList)
	mux.HandleFunc("POST /scenes/{id}/lights", h.HandleLightAdd)
	mux.HandleFunc("PUT /scenes/{id}/lights/{lightID}", h.HandleLightUpdate)
	mux.HandleFunc("DELETE /scenes/{id}/lights/{lightID}", h.HandleLightDelete)
}

type createSceneRequest struct {
	Tree          *quadtree.Config `json:"tree,omitempty"`
	FrameDuration string           `json:"frame_duration,omitempty"`
}

type sceneResponse struct {
	ID          uint32             `json:"id"`
	UUID        string             `json:"uuid"`
	Config      models.SceneConfig `json:"config"`
	ObjectCount int                `json:"object_count"`
	LightCount  int                `json:"light_count"`
}

func newSceneResponse(s *models.Scene) sceneResponse {
	return sceneResponse{
		ID:          s.ID,
		UUID:        s.SceneUUID,
		Config:      s.Config,
		ObjectCount: s.ObjectCount(),
		LightCount:  len(s.Lights()),
	}
}

type objectRequest struct {
	Name     string           `json:"name"`
	Position quadtree.Vector3 `json:"position"`
}

type moveObjectRequest struct {
	Position quadtree.Vector3 `json:"position"`
}

type lightRequest struct {
	Position quadtree.Vector3 `json:"position"`
	Radius   float32          `json:"radius"`
}

type queryRequest struct {
	Center quadtree.Vector3 `json:"center"`
	Size   quadtree.Vector3 `json:"size"`
}

type litResponse struct {
	ObjectID uint32 `json:"object_id"`
	Lit      bool   `json:"lit"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *SceneHandler) HandleSceneCreate(w http.ResponseWriter, r *http.Request) {
	var req createSceneRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	config := h.DefaultConfig
	h.FeatureFlags.IfSet(featureflag.FlagPreSplitScenes, func() {
		config.Tree.PreSplit = true
	})
	h.FeatureFlags.IfSet(featureflag.FlagDisableLighting, func() {
		config.DisableLighting = true
	})

	if req.Tree != nil {
		if limit := h.DefaultConfig.Tree.MaxDepth; req.Tree.MaxDepth > limit {
			writeError(w, r, errors.New("requested max depth exceeds the server limit").
				WithType(errTypeBadRequest).
				WithTag("max_depth", req.Tree.MaxDepth).
				WithTag("limit", limit))
			return
		}
		config.Tree = *req.Tree
	}

	if req.FrameDuration != "" {
		d, err := time.ParseDuration(req.FrameDuration)
		if err != nil {
			writeError(w, r, errors.New("invalid frame duration").
				WithType(errTypeBadRequest).
				WithTag("frame_duration", req.FrameDuration).
				Wrap(err))
			return
		}
		config.FrameDuration = d
	}

	id := h.Scenes.NewID()
	scene, err := models.NewScene(id, config)
	if err != nil {
		h.Scenes.ReuseID(id)
		writeError(w, r, err)
		return
	}
	h.Scenes.Add(scene)
	go scene.StartDispatchFrames()

	logs.WithTag("scene_id", scene.ID).
		WithTag("scene_uuid", scene.SceneUUID).
		WithTag("config", config).
		Info("scene created")

	writeJSON(w, r, http.StatusCreated, newSceneResponse(scene))
}

func (h *SceneHandler) HandleSceneList(w http.ResponseWriter, r *http.Request) {
	scenes := h.Scenes.List()

	res := make([]sceneResponse, len(scenes))
	for i, s := range scenes {
		res[i] = newSceneResponse(s)
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *SceneHandler) HandleSceneGet(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scene(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newSceneResponse(scene))
}

func (h *SceneHandler) HandleSceneDelete(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scene(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Scenes.Remove(scene)
	logs.WithTag("scene_id", scene.ID).
		WithTag("scene_uuid", scene.SceneUUID).
		Info("scene deleted")

	w.WriteHeader(http.StatusNoContent)
}

func (h *SceneHandler) HandleSceneDebug(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scene(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, scene.DebugInfo())
}

func (h *SceneHandler) HandleSceneQuery(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scene(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req queryRequest
	if err := decodeRequiredBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	objects := scene.Query(quadtree.NewBounds(req.Center, req.Size))
	writeJSON(w, r, http.StatusOK, objects)
}

func (h *SceneHandler) HandleObjectList(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scene(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, scene.Objects())
}

func (h *SceneHandler) HandleObjectAdd(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scene(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req objectRequest
	if err := decodeRequiredBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	obj, err := scene.AddObject(req.Name, req.Position)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, obj)
}

func (h *SceneHandler) HandleObjectMove(w http.ResponseWriter, r *http.Request) {
	scene, id, err := h.sceneAndID(r, "objectID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req moveObjectRequest
	if err := decodeRequiredBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	obj, err := scene.MoveObject(id, req.Position)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, obj)
}

func (h *SceneHandler) HandleObjectDelete(w http.ResponseWriter, r *http.Request) {
	scene, id, err := h.sceneAndID(r, "objectID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := scene.RemoveObject(id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SceneHandler) HandleObjectLit(w http.ResponseWriter, r *http.Request) {
	scene, id, err := h.sceneAndID(r, "objectID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	lit, err := scene.IsLit(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, litResponse{
		ObjectID: id,
		Lit:      lit,
	})
}

func (h *SceneHandler) HandleLightList(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scene(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, scene.Lights())
}

func (h *SceneHandler) HandleLightAdd(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scene(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req lightRequest
	if err := decodeRequiredBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	l, err := scene.AddLight(req.Position, req.Radius)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, l)
}

func (h *SceneHandler) HandleLightUpdate(w http.ResponseWriter, r *http.Request) {
	scene, id, err := h.sceneAndID(r, "lightID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req lightRequest
	if err := decodeRequiredBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	l, err := scene.UpdateLight(id, req.Position, req.Radius)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, l)
}

func (h *SceneHandler) HandleLightDelete(w http.ResponseWriter, r *http.Request) {
	scene, id, err := h.sceneAndID(r, "lightID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := scene.RemoveLight(id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SceneHandler) scene(r *http.Request) (*models.Scene, error) {
	return SceneFromRequest(h.Scenes, r)
}

func (h *SceneHandler) sceneAndID(r *http.Request, name string) (*models.Scene, uint32, error) {
	scene, err := h.scene(r)
	if err != nil {
		return nil, 0, err
	}

	id, err := pathID(r, name)
	if err != nil {
		return nil, 0, err
	}
	return scene, id, nil
}

// SceneFromRequest returns the scene designated by the {id} path value of the
// given request.
func SceneFromRequest(scenes *models.SceneStore, r *http.Request) (*models.Scene, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}

	scene, ok := scenes.Get(id)
	if !ok {
		return nil, errors.New("scene not found").
			WithType(models.ErrTypeNotFound).
			WithTag("scene_id", id)
	}
	return scene, nil
}

func pathID(r *http.Request, name string) (uint32, error) {
	v := r.PathValue(name)

	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, errors.New("invalid id").
			WithType(errTypeBadRequest).
			WithTag(name, v).
			Wrap(err)
	}
	return uint32(id), nil
}

// decodeBody decodes the JSON request body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	return decode(r, v, false)
}

func decodeRequiredBody(r *http.Request, v any) error {
	return decode(r, v, true)
}

func decode(r *http.Request, v any, required bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return errors.New("reading request body failed").
			WithType(errTypeBadRequest).
			Wrap(err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if required {
			return errors.New("request body is empty").
				WithType(errTypeBadRequest)
		}
		return nil
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("decoding request body failed").
			WithType(errTypeBadRequest).
			Wrap(err)
	}
	return nil
}

// StatusCode returns the HTTP status code that matches the given error.
func StatusCode(err error) int {
	switch {
	case errors.IsType(err, models.ErrTypeNotFound):
		return http.StatusNotFound

	case errors.IsType(err, errTypeBadRequest),
		errors.IsType(err, models.ErrTypeOutOfBounds),
		errors.IsType(err, lighting.ErrTypeInvalidRadius),
		errors.IsType(err, quadtree.ErrTypeInvalidConfig):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := StatusCode(err)

	entry := logs.WithTag("method", r.Method).
		WithTag("path", r.URL.Path).
		WithTag("status_code", statusCode)
	if statusCode >= http.StatusInternalServerError {
		entry.Error(err)
	} else {
		entry.Debug(err)
	}

	writeJSON(w, r, statusCode, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logs.WithTag("method", r.Method).
			WithTag("path", r.URL.Path).
			Error(errors.New("encoding response failed").Wrap(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(b)
}
