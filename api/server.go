package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/matt-g-everett/ledanim/anim"
	"github.com/matt-g-everett/ledanim/scene"
)

// Api serves read-only views of a scene's animation over HTTP.
type Api struct {
	scene     *scene.Scene
	evaluator *anim.Evaluator
	logger    *slog.Logger
	router    chi.Router
	started   time.Time
}

// NewApi creates an Api for s.
func NewApi(s *scene.Scene, evaluator *anim.Evaluator, logger *slog.Logger) *Api {
	a := new(Api)
	a.scene = s
	a.evaluator = evaluator
	a.logger = logger.With("component", "api")
	a.started = time.Now()
	a.router = a.routes()
	return a
}

func (a *Api) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(loggingMiddleware(a.logger))

	r.Get("/health", a.health)
	r.Get("/outputs", a.listOutputs)
	r.Route("/lights/{name}", func(r chi.Router) {
		r.Get("/evaluate", a.evaluateLight)
		r.Get("/curve", a.findCurve)
	})
	r.Handle("/*", http.FileServer(http.Dir("client/dist")))

	return r
}

// Handler returns the Api's router.
func (a *Api) Handler() http.Handler {
	return a.router
}

// Serve listens on addr until the server fails.
func (a *Api) Serve(addr string) error {
	a.logger.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, a.router)
}

type healthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_s"`
}

type outputResponse struct {
	StableIndex int    `json:"stable_index"`
	Name        string `json:"name"`
	IDType      string `json:"id_type"`
	Bound       bool   `json:"bound"`
}

type evaluateResponse struct {
	Light  string             `json:"light"`
	Time   float64            `json:"time"`
	Values map[string]float64 `json:"values"`
}

type keyframeResponse struct {
	Time          float64 `json:"time"`
	Value         float64 `json:"value"`
	Interpolation string  `json:"interpolation"`
}

type curveResponse struct {
	Path      string             `json:"path"`
	Index     int                `json:"index"`
	Time      float64            `json:"time"`
	Value     *float64           `json:"value,omitempty"`
	Keyframes []keyframeResponse `json:"keyframes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *Api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		UptimeS: int64(time.Since(a.started).Seconds()),
	})
}

func (a *Api) listOutputs(w http.ResponseWriter, r *http.Request) {
	resp := []outputResponse{}
	a.scene.Read(func() {
		for _, out := range a.scene.Animation.Outputs() {
			resp = append(resp, outputResponse{
				StableIndex: out.StableIndex,
				Name:        out.FallbackName,
				IDType:      out.IDType,
				Bound:       out.ID() != nil,
			})
		}
	})
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) evaluateLight(w http.ResponseWriter, r *http.Request) {
	l := a.scene.Light(chi.URLParam(r, "name"))
	if l == nil {
		writeError(w, http.StatusNotFound, "light not found")
		return
	}
	frameTime, err := floatParam(r, "time")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time")
		return
	}

	resp := evaluateResponse{Light: l.Name(), Time: frameTime, Values: map[string]float64{}}
	a.scene.Read(func() {
		result := a.evaluator.EvaluateAnimation(l, a.scene.Animation, anim.EvalContext{EvalTime: frameTime})
		for _, id := range result.Identifiers() {
			p, _ := result.Lookup(id)
			resp.Values[id.String()] = p.Value
		}
	})
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) findCurve(w http.ResponseWriter, r *http.Request) {
	l := a.scene.Light(chi.URLParam(r, "name"))
	if l == nil {
		writeError(w, http.StatusNotFound, "light not found")
		return
	}
	frameTime, err := floatParam(r, "time")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time")
		return
	}
	path := r.URL.Query().Get("path")
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if path == "" || err != nil {
		writeError(w, http.StatusBadRequest, "path and index are required")
		return
	}

	var resp *curveResponse
	a.scene.Read(func() {
		c := anim.FindCurveForProperty(a.scene.Animation, l.AnimID(), frameTime, path, index)
		if c == nil {
			return
		}
		resp = &curveResponse{Path: c.Path, Index: c.Index, Time: frameTime, Keyframes: []keyframeResponse{}}
		if v, err := c.Evaluate(frameTime); err == nil {
			resp.Value = &v
		}
		for _, k := range c.Keyframes() {
			resp.Keyframes = append(resp.Keyframes, keyframeResponse{
				Time:          k.Time,
				Value:         k.Value,
				Interpolation: k.Interpolation.String(),
			})
		}
	})

	if resp == nil {
		writeError(w, http.StatusNotFound, "no curve animates this property")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// floatParam parses a query parameter, defaulting to 0 when it is absent.
func floatParam(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
