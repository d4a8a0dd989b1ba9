// Package server exposes a synthesis session over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cienet/speakctl/tts"
)

// Session is the part of the controller the server drives.
type Session interface {
	SpeakUtterance(id, text string) tts.Outcome
	SynthesizeUtterance(id, text string) tts.Outcome
	BatchSpeak(items []tts.BatchItem) tts.Outcome
	Pause() tts.Outcome
	Resume() tts.Outcome
	Stop() tts.Outcome
	SwitchVoiceModel() tts.Outcome
	State() tts.StateType
	Voice() tts.OfflineVoice
	Pending() int
}

// Server serializes HTTP commands onto one session.
type Server struct {
	session Session
	hub     *Hub
	metrics http.Handler
	logger  *log.Logger

	// mu keeps a single command in flight.
	mu sync.Mutex
}

// New creates a server. metrics may be nil.
func New(session Session, hub *Hub, metrics http.Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default().WithPrefix("server")
	}
	return &Server{
		session: session,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(api chi.Router) {
		api.Post("/speak", s.handleUtterance(s.session.SpeakUtterance))
		api.Post("/synthesize", s.handleUtterance(s.session.SynthesizeUtterance))
		api.Post("/batch", s.handleBatch)
		api.Post("/pause", s.handleCommand(s.session.Pause))
		api.Post("/resume", s.handleCommand(s.session.Resume))
		api.Post("/stop", s.handleCommand(s.session.Stop))
		api.Post("/voice/switch", s.handleCommand(s.session.SwitchVoiceModel))
		api.Get("/state", s.handleState)
		if s.hub != nil {
			api.Handle("/events", s.hub)
		}
	})
	return r
}

type utteranceRequest struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

type batchRequest struct {
	Items []tts.BatchItem `json:"items"`
}

type outcomeResponse struct {
	OK        bool   `json:"ok"`
	Command   string `json:"command"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason,omitempty"`
	Code      int    `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Utterance string `json:"utterance,omitempty"`
	State     string `json:"state"`
}

type stateResponse struct {
	State   string `json:"state"`
	Voice   string `json:"voice"`
	Pending int    `json:"pending"`
}

func (s *Server) handleUtterance(cmd func(id, text string) tts.Outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req utteranceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.run(w, func() tts.Outcome { return cmd(req.ID, req.Text) })
	}
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.run(w, func() tts.Outcome { return s.session.BatchSpeak(req.Items) })
}

func (s *Server) handleCommand(cmd func() tts.Outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.run(w, cmd)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, stateResponse{
		State:   s.session.State().String(),
		Voice:   s.session.Voice().String(),
		Pending: s.session.Pending(),
	})
}

func (s *Server) run(w http.ResponseWriter, cmd func() tts.Outcome) {
	s.mu.Lock()
	o := cmd()
	state := s.session.State()
	s.mu.Unlock()

	respondJSON(w, StatusFor(o), outcomeResponse{
		OK:        o.OK(),
		Command:   o.Command,
		Kind:      o.Kind.String(),
		Reason:    string(o.Reason),
		Code:      o.Code,
		Message:   o.Message,
		Utterance: o.Utterance,
		State:     state.String(),
	})
}

// StatusFor maps an outcome to an HTTP status.
func StatusFor(o tts.Outcome) int {
	switch o.Kind {
	case tts.KindOK:
		return http.StatusOK
	case tts.KindValidation:
		return http.StatusBadRequest
	case tts.KindState:
		return http.StatusConflict
	case tts.KindEngine:
		return http.StatusBadGateway
	case tts.KindResource:
		if o.Reason == tts.ReasonReleased {
			return http.StatusGone
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("Failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
