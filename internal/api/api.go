package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/gorilla/mux"
)

// ErrNotFound marks a request for a track that does not exist.
var ErrNotFound = errors.New("not found")

type TrackInfo struct {
	Name  string  `json:"name"`
	Rate  float64 `json:"rate"`
	Gain  float64 `json:"gain"`
	Muted bool    `json:"muted"`
	Notes int64   `json:"notes"`
}

type Status struct {
	Running        bool    `json:"running"`
	Now            float64 `json:"now"`
	Producers      int     `json:"producers"`
	Pending        int     `json:"pending"`
	Dispatched     int64   `json:"dispatched"`
	Rejected       int64   `json:"rejected"`
	LastDispatched float64 `json:"last_dispatched"`
	Dropped        int64   `json:"dropped"`
	ActiveVoices   int     `json:"active_voices"`
}

type Callbacks interface {
	Status() Status
	Tracks() []TrackInfo
	SetTrackRate(name string, rate float64) error
	SetTrackGain(name string, gain float64) error
	SetTrackMuted(name string, muted bool) error
}

type handler struct {
	callbacks Callbacks
	logger    *slog.Logger
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusBadRequest
	if errors.Is(err, ErrNotFound) {
		code = http.StatusNotFound
	}
	h.logger.Warn("api request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	http.Error(w, err.Error(), code)
}

func (h *handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("api encode failed", "err", err)
	}
}

func (h *handler) handleStatusGet(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.callbacks.Status())
}

func (h *handler) handleTracksGet(w http.ResponseWriter, r *http.Request) {
	tracks := h.callbacks.Tracks()
	if tracks == nil {
		tracks = []TrackInfo{}
	}
	h.writeJSON(w, tracks)
}

// decodeNumber reads a bare JSON number body.
func decodeNumber(r *http.Request) (float64, error) {
	var v float64
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("value must be finite")
	}
	return v, nil
}

func (h *handler) handleRatePut(w http.ResponseWriter, r *http.Request) {
	v, err := decodeNumber(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if v <= 0 {
		h.fail(w, r, errors.New("rate must be positive"))
		return
	}
	if err := h.callbacks.SetTrackRate(mux.Vars(r)["name"], v); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleGainPut(w http.ResponseWriter, r *http.Request) {
	v, err := decodeNumber(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if v < 0 {
		h.fail(w, r, errors.New("gain must not be negative"))
		return
	}
	if err := h.callbacks.SetTrackGain(mux.Vars(r)["name"], v); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleMutePut(w http.ResponseWriter, r *http.Request) {
	var muted bool
	if err := json.NewDecoder(r.Body).Decode(&muted); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.callbacks.SetTrackMuted(mux.Vars(r)["name"], muted); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS, PUT")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func NewHandler(cb Callbacks, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{callbacks: cb, logger: logger}

	sr := mux.NewRouter()
	sr.HandleFunc("/status", h.handleStatusGet).Methods(http.MethodGet)
	sr.HandleFunc("/tracks", h.handleTracksGet).Methods(http.MethodGet)
	sr.HandleFunc("/tracks/{name}/rate", h.handleRatePut).Methods(http.MethodPut)
	sr.HandleFunc("/tracks/{name}/gain", h.handleGainPut).Methods(http.MethodPut)
	sr.HandleFunc("/tracks/{name}/mute", h.handleMutePut).Methods(http.MethodPut)

	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.PathPrefix("/").Handler(sr)
	return r
}
