package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/mittwald/authprobe/internal/config"
	"github.com/mittwald/authprobe/pkg/probe"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const contextKeyTarget contextKey = "target"

type target struct {
	cfg    *config.Target
	prober *probe.Prober
}

type Handler struct {
	cfg      *config.Config
	targets  map[string]*target
	upgrader websocket.Upgrader
}

func NewHandler(cfg *config.Config) (*Handler, error) {
	h := &Handler{
		cfg:     cfg,
		targets: make(map[string]*target, len(cfg.Targets)),
	}

	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		p, err := t.Prober()
		if err != nil {
			return nil, err
		}
		h.targets[t.Name] = &target{cfg: t, prober: p}
	}

	return h, nil
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Path("/status").Methods(http.MethodGet).HandlerFunc(h.HandleStatus)
	r.Path("/v1/targets").Methods(http.MethodGet).HandlerFunc(h.HandleTargets)

	v1 := r.PathPrefix("/v1/targets/{target}").Subrouter()
	v1.Use(h.targetMiddleware)
	v1.Path("/probe").Methods(http.MethodGet).HandlerFunc(h.HandleProbe)
	v1.Path("/stream").Methods(http.MethodGet).HandlerFunc(h.HandleStream)

	return r
}

func (h *Handler) targetMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		name := mux.Vars(req)["target"]

		t, ok := h.targets[name]
		if !ok {
			http.Error(w, fmt.Sprintf("target %q not found", name), http.StatusNotFound)
			return
		}

		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), contextKeyTarget, t)))
	})
}

// HandleStatus probes every target with its configured token.
func (h *Handler) HandleStatus(res http.ResponseWriter, req *http.Request) {
	response := StatusResponse{
		Targets: make(map[string]*TargetStatus, len(h.targets)),
	}

	results := make(chan *TargetStatus, len(h.targets))

	for name, t := range h.targets {
		go func(name string, t *target) {
			r := t.prober.Probe(t.cfg.Token)
			results <- &TargetStatus{Name: name, OK: r.AllOK(), Results: r}
		}(name, t)
	}

	success := true

	for i := 0; i < len(h.targets); i++ {
		result := <-results
		response.Targets[result.Name] = result
		success = success && result.OK

		if !result.OK {
			log.WithFields(log.Fields{"kind": "status", "target": result.Name}).Warn("target is not healthy")
		}
	}

	status := http.StatusOK
	if !success {
		status = http.StatusServiceUnavailable
	}

	writeJSON(res, status, &response)
}

func (h *Handler) HandleTargets(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, http.StatusOK, h.cfg.TargetNames())
}

func (h *Handler) HandleProbe(res http.ResponseWriter, req *http.Request) {
	t := req.Context().Value(contextKeyTarget).(*target)

	results := t.prober.Probe(tokenFor(t, req))
	writeJSON(res, http.StatusOK, results)
}

// HandleStream sends one websocket message per probed resource and closes
// the connection once every resource was probed.
func (h *Handler) HandleStream(res http.ResponseWriter, req *http.Request) {
	t := req.Context().Value(contextKeyTarget).(*target)

	conn, err := h.upgrader.Upgrade(res, req, nil)
	if err != nil {
		log.WithError(err).Error("failed to upgrade connection")
		return
	}
	defer conn.Close()

	var writeErr error
	t.prober.ProbeEach(tokenFor(t, req), func(r probe.Result) {
		if writeErr != nil {
			return
		}
		writeErr = conn.WriteJSON(r)
	})

	if writeErr != nil {
		log.WithFields(log.Fields{"kind": "stream", "target": t.cfg.Name}).WithError(writeErr).Warn("client went away")
		return
	}

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second),
	)
}

func tokenFor(t *target, req *http.Request) string {
	if strings.ToLower(req.FormValue("anonymous")) == "true" {
		return ""
	}
	return t.cfg.Token
}

func writeJSON(res http.ResponseWriter, status int, body interface{}) {
	out, err := json.Marshal(body)
	if err != nil {
		http.Error(res, "failed to encode response", http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	_, _ = res.Write(out)
}
