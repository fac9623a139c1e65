// Package httpapi serves the browser-facing JSON API: identity, points,
// town snapshots, and event triggers.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"emberhollow.gg/internal/protocol"
	"emberhollow.gg/internal/state"
	"emberhollow.gg/internal/town"
)

// Notifier receives every post-mutation snapshot, typically to fan it
// out over websockets.
type Notifier interface {
	Publish(userID string, snap *protocol.Snapshot)
}

type Server struct {
	town    *town.Service
	store   *state.Store
	schemas *protocol.Schemas
	notify  Notifier
	log     *log.Logger
	cookie  string

	Metrics Metrics
}

func NewServer(t *town.Service, store *state.Store, schemas *protocol.Schemas, notify Notifier, logger *log.Logger, cookieName string) *Server {
	return &Server{
		town:    t,
		store:   store,
		schemas: schemas,
		notify:  notify,
		log:     logger,
		cookie:  cookieName,
	}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/user/me", s.handleUserMe)
	mux.HandleFunc("/v1/user/me/points", s.handleAddPoints)
	mux.HandleFunc("/v1/town", s.handleTown)
	mux.HandleFunc("/v1/town/event", s.handleTownEvent)
}

// handleUserMe gets or creates the identity bound to the session cookie.
// A request with no cookie mints one; 201 marks first contact.
func (s *Server) handleUserMe(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID := ""
	if c, err := r.Cookie(s.cookie); err == nil {
		userID = c.Value
	}
	if userID == "" {
		userID = uuid.NewString()
		http.SetCookie(rw, &http.Cookie{
			Name:     s.cookie,
			Value:    userID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	created := false
	exists, err := s.store.UserExists(r.Context(), userID)
	if err != nil {
		s.internalError(rw, "user exists", err)
		return
	}
	if !exists {
		if err := s.store.CreateUser(r.Context(), userID); err != nil {
			s.internalError(rw, "create user", err)
			return
		}
		created = true
		s.Metrics.UsersCreated.Add(1)
	}

	rec, err := s.store.UserData(r.Context(), userID)
	if err != nil {
		s.internalError(rw, "user data", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(rw, status, userView(rec))
}

func (s *Server) handleAddPoints(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := s.session(rw, r)
	if !ok {
		return
	}

	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrAmountNotInteger, nil)
		return
	}
	if err := s.schemas.AddPoints.Validate(body); err != nil {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrAmountNotInteger, nil)
		return
	}
	obj, _ := body.(map[string]any)
	amount, ok := intField(obj["amount"])
	if !ok {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrAmountNotInteger, nil)
		return
	}
	if amount <= 0 {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrAmountMustBePositive, nil)
		return
	}

	updated, err := s.store.AddPoints(r.Context(), userID, int64(amount))
	if err != nil {
		s.internalError(rw, "add points", err)
		return
	}
	if !updated {
		s.writeError(rw, http.StatusNotFound, protocol.ErrUserNotFound, nil)
		return
	}

	rec, err := s.store.UserData(r.Context(), userID)
	if err != nil {
		s.internalError(rw, "user data", err)
		return
	}
	writeJSON(rw, http.StatusOK, userView(rec))
}

func (s *Server) handleTown(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := s.session(rw, r)
	if !ok {
		return
	}
	snap, err := s.town.Snapshot(r.Context(), userID)
	if err != nil {
		s.internalError(rw, "snapshot", err)
		return
	}
	writeJSON(rw, http.StatusOK, snap)
}

func (s *Server) handleTownEvent(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := s.session(rw, r)
	if !ok {
		return
	}

	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrEventIDRequired, nil)
		return
	}
	if err := s.schemas.TriggerEvent.Validate(body); err != nil {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrEventIDRequired, nil)
		return
	}
	obj := body.(map[string]any)
	eventID := obj["event_id"].(string)

	var claimedVersion any
	if v, present := obj["version"]; present {
		claimedVersion = v
	}

	out, err := s.town.ApplyEvent(r.Context(), userID, eventID, obj, claimedVersion)
	if err != nil {
		s.internalError(rw, "apply event", err)
		return
	}
	if out.ErrorCode != "" {
		s.Metrics.EventsRejected.Add(1)
		s.writeError(rw, out.Status, out.ErrorCode, out.Snapshot)
		return
	}

	if out.Idempotent {
		s.Metrics.EventsIdempotent.Add(1)
	} else {
		s.Metrics.EventsApplied.Add(1)
		if s.notify != nil {
			s.notify.Publish(userID, out.Snapshot)
		}
	}
	writeJSON(rw, out.Status, protocol.TriggerResponse{
		EventID:     out.EventID,
		Idempotent:  out.Idempotent,
		EventResult: *out.Result,
		Snapshot:    out.Snapshot,
	})
}

// session resolves the cookie to an existing user, answering 401 itself
// when there is none.
func (s *Server) session(rw http.ResponseWriter, r *http.Request) (string, bool) {
	c, err := r.Cookie(s.cookie)
	if err != nil || c.Value == "" {
		s.writeError(rw, http.StatusUnauthorized, protocol.ErrNoSession, nil)
		return "", false
	}
	exists, err := s.store.UserExists(r.Context(), c.Value)
	if err != nil {
		s.internalError(rw, "user exists", err)
		return "", false
	}
	if !exists {
		s.writeError(rw, http.StatusUnauthorized, protocol.ErrNoSession, nil)
		return "", false
	}
	return c.Value, true
}

func (s *Server) writeError(rw http.ResponseWriter, status int, code string, snap *protocol.Snapshot) {
	writeJSON(rw, status, protocol.ErrorResponse{ErrorCode: code, Snapshot: snap})
}

func (s *Server) internalError(rw http.ResponseWriter, op string, err error) {
	if errors.Is(err, state.ErrNoUser) {
		s.writeError(rw, http.StatusNotFound, protocol.ErrUserNotFound, nil)
		return
	}
	s.log.Printf("%s: %v", op, err)
	s.writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, nil)
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func userView(rec state.UserRecord) protocol.UserView {
	v := protocol.UserView{UserID: rec.UserID, Points: rec.Points}
	if rec.Name.Valid {
		v.Name = &rec.Name.String
	}
	if rec.CreatedAt.Valid {
		v.CreatedAt = &rec.CreatedAt.String
	}
	return v
}

// intField accepts only integral JSON numbers.
func intField(v any) (int, bool) {
	n, ok := v.(float64)
	if !ok {
		return 0, false
	}
	i := int(n)
	if float64(i) != n {
		return 0, false
	}
	return i, true
}
