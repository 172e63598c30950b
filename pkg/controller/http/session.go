package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/service/assistant"
	"github.com/flowdeck-dev/flowdeck/pkg/service/media"
	"github.com/flowdeck-dev/flowdeck/pkg/usecase"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/errutil"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

const defaultUserSpeaker = types.Speaker("You")

type turnResponse struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	Speaker     string    `json:"speaker"`
	Text        string    `json:"text"`
	IsAI        bool      `json:"isAI"`
	IsStreaming bool      `json:"isStreaming"`
}

func toTurnResponse(t model.Turn) turnResponse {
	return turnResponse{
		ID:          t.ID.String(),
		Time:        t.Time,
		Speaker:     t.Speaker.String(),
		Text:        t.Text,
		IsAI:        t.IsAI,
		IsStreaming: t.IsStreaming,
	}
}

type suggestionResponse struct {
	Operation   string `json:"operation"`
	StepID      string `json:"stepID,omitempty"`
	SubStepID   string `json:"subStepID,omitempty"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Rationale   string `json:"rationale,omitempty"`
}

func toSuggestionResponse(op model.SuggestedOperation) suggestionResponse {
	return suggestionResponse{
		Operation:   op.Operation.String(),
		StepID:      op.StepID.String(),
		SubStepID:   op.SubStepID.String(),
		Priority:    op.Priority.String(),
		Description: op.Description,
		Rationale:   op.Rationale,
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

func sessionStatusCode(err error) int {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrMessageInFlight):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, usecase.ErrNoProcess):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) openSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := types.SessionID(chi.URLParam(r, "sessionID"))

	var req struct {
		EventID string `json:"eventID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid open request"), http.StatusBadRequest)
		return
	}

	session, err := s.uc.Sessions.Open(r.Context(), sessionID, types.EventID(req.EventID))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{
		"sessionID": session.ID().String(),
		"eventID":   session.EventID().String(),
	})
}

func (s *Server) closeSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := types.SessionID(chi.URLParam(r, "sessionID"))

	if err := s.uc.CloseSession(r.Context(), sessionID); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) transcriptHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.uc.Sessions.Get(types.SessionID(chi.URLParam(r, "sessionID")))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}

	turns := session.Transcript()
	resp := make([]turnResponse, len(turns))
	for i, t := range turns {
		resp[i] = toTurnResponse(t)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"turns": resp})
}

func (s *Server) suggestionsHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.uc.Sessions.Get(types.SessionID(chi.URLParam(r, "sessionID")))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}

	ops := session.Suggestions()
	resp := make([]suggestionResponse, len(ops))
	for i, op := range ops {
		resp[i] = toSuggestionResponse(op)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"suggestions": resp})
}

func (s *Server) mediaHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.uc.Sessions.Get(types.SessionID(chi.URLParam(r, "sessionID")))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}

	ctl := session.Media()
	devices := map[string]string{}
	for _, d := range []media.Device{media.DeviceCamera, media.DeviceScreen, media.DeviceMicrophone} {
		devices[string(d)] = string(ctl.State(d))
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"devices":   devices,
		"elapsedMS": ctl.Elapsed().Milliseconds(),
	})
}

// messageHandler accepts a user message and streams the assistant reply
// back as server-sent events: chunk, suggestions, done, error.
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.uc.Sessions.Get(types.SessionID(chi.URLParam(r, "sessionID")))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}

	var req struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid message request"), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("message text is required"), http.StatusBadRequest)
		return
	}
	speaker := types.Speaker(req.Speaker)
	if speaker == "" {
		speaker = defaultUserSpeaker
	}

	events, err := session.SendUserMessage(r.Context(), speaker, req.Text)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		errutil.HandleHTTP(r.Context(), w, goerr.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		if err := writeSSE(w, ev); err != nil {
			// Client went away; the session keeps applying events itself
			return
		}
		flusher.Flush()
	}
}

func writeSSE(w http.ResponseWriter, ev assistant.Event) error {
	var payload any
	switch ev.Kind {
	case assistant.EventChunk:
		payload = map[string]string{"chunk": ev.Chunk}
	case assistant.EventSuggestions:
		resp := make([]suggestionResponse, len(ev.Suggestions))
		for i, op := range ev.Suggestions {
			resp[i] = toSuggestionResponse(op)
		}
		payload = map[string]any{"suggestions": resp}
	case assistant.EventDone:
		payload = map[string]string{"text": ev.Text}
	case assistant.EventError:
		payload = map[string]string{"error": ev.Err.Error(), "partial": ev.Text}
	default:
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal SSE payload")
	}
	if _, err := w.Write([]byte("event: " + string(ev.Kind) + "\ndata: " + string(data) + "\n\n")); err != nil {
		return goerr.Wrap(err, "failed to write SSE event")
	}
	return nil
}

func (s *Server) operationHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.uc.Sessions.Get(types.SessionID(chi.URLParam(r, "sessionID")))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}

	var req struct {
		Operation   string `json:"operation"`
		StepID      string `json:"stepID"`
		SubStepID   string `json:"subStepID"`
		Priority    string `json:"priority"`
		Description string `json:"description"`
		Rationale   string `json:"rationale"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid operation request"), http.StatusBadRequest)
		return
	}

	opType, err := types.ParseOperationType(req.Operation)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	op := model.SuggestedOperation{
		Operation:   opType,
		StepID:      types.StepID(req.StepID),
		SubStepID:   types.StepID(req.SubStepID),
		Priority:    types.SuggestionPriority(req.Priority).Normalize(),
		Description: req.Description,
		Rationale:   req.Rationale,
	}

	if err := s.uc.Executor.Execute(r.Context(), session, op); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.uc.Sessions.Get(types.SessionID(chi.URLParam(r, "sessionID")))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid status request"), http.StatusBadRequest)
		return
	}

	newStatus := types.EventStatus(req.Status)
	if !newStatus.IsValid() {
		errutil.HandleHTTP(r.Context(), w, goerr.New("invalid event status"), http.StatusBadRequest)
		return
	}

	if err := s.uc.Executor.ChangeStatus(r.Context(), session, newStatus); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, sessionStatusCode(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
