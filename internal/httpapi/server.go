package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/beacon-bot/beacon/internal/config"
	"github.com/beacon-bot/beacon/internal/dispatch"
	"github.com/beacon-bot/beacon/internal/gateway"
	"github.com/beacon-bot/beacon/internal/observability"
	"github.com/beacon-bot/beacon/internal/protocol"
)

var errEmptyBody = errors.New("empty request body")

type Server struct {
	cfg      config.Config
	svc      *dispatch.Service
	hub      *gateway.Hub
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, svc *dispatch.Service, hub *gateway.Hub, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		svc:     svc,
		hub:     hub,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/listings", s.handleListings)
	r.Post("/v1/events", s.handleEvent)
	r.Get("/v1/operator/ws", s.handleOperatorWS)
	r.Get("/v1/channel/ws", s.handleChannelWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"channel": s.cfg.BroadcastChannel,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleListings(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"listings": s.svc.ActiveListings(),
	})
}

// handleEvent lets transport bridges inject inbound events over plain HTTP.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev protocol.Inbound
	if err := decodeJSON(r, &ev); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.svc.Dispatch(ev); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_event", err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"status": "accepted"})
}

// handleOperatorWS attaches a private operator connection: inbound event
// frames in, rendered prompts out.
func (s *Server) handleOperatorWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "missing user_id")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("operator ws upgrade failed: %v", err)
		return
	}
	s.hub.AttachOperator(userID, conn)
	defer func() {
		s.hub.DetachOperator(userID, conn)
		_ = conn.Close()
	}()

	for {
		var ev protocol.Inbound
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("operator ws read failed for %s: %v", userID, err)
			}
			return
		}
		// The connection owns the identity; frames cannot speak for others.
		ev.UserID = userID
		if err := s.svc.Dispatch(ev); err != nil {
			s.hub.Notify(userID, protocol.Outbound{UserID: userID, Text: err.Error()})
		}
	}
}

// handleChannelWS subscribes a viewer to the broadcast feed.
func (s *Server) handleChannelWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("channel ws upgrade failed: %v", err)
		return
	}
	s.hub.Subscribe(conn)
	defer func() {
		s.hub.Unsubscribe(conn)
		_ = conn.Close()
	}()

	// Viewers only listen; drain control frames until the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("response encode failed: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
