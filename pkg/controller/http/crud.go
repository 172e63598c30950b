package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/interfaces"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/errutil"
	"github.com/go-chi/chi/v5"
)

func repoStatusCode(err error) int {
	if errors.Is(err, interfaces.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type stepResponse struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	Completed   bool           `json:"completed"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	SubSteps    []stepResponse `json:"subSteps,omitempty"`
}

func toStepResponses(steps []model.Step) []stepResponse {
	resp := make([]stepResponse, len(steps))
	for i, s := range steps {
		resp[i] = stepResponse{
			ID:          s.ID.String(),
			Content:     s.Content,
			Completed:   s.Completed,
			CompletedAt: s.CompletedAt,
		}
		for _, sub := range s.SubSteps {
			resp[i].SubSteps = append(resp[i].SubSteps, stepResponse{
				ID:          sub.ID.String(),
				Content:     sub.Content,
				Completed:   sub.Completed,
				CompletedAt: sub.CompletedAt,
			})
		}
	}
	return resp
}

func (s *Server) getEventHandler(w http.ResponseWriter, r *http.Request) {
	id := types.EventID(chi.URLParam(r, "eventID"))

	event, err := s.uc.Repository().Event().Get(r.Context(), id)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, repoStatusCode(err))
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"id":          event.ID.String(),
		"title":       event.Title,
		"description": event.Description,
		"status":      event.Status.Normalize().String(),
		"processID":   event.ProcessID.String(),
		"startTime":   event.StartTime,
		"endTime":     event.EndTime,
		"steps":       toStepResponses(event.Steps),
	})
}

func (s *Server) getProcessHandler(w http.ResponseWriter, r *http.Request) {
	id := types.ProcessID(chi.URLParam(r, "processID"))

	process, err := s.uc.Repository().Process().Get(r.Context(), id)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, repoStatusCode(err))
		return
	}

	done, total := process.Progress()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"id":              process.ID.String(),
		"title":           process.Title,
		"steps":           toStepResponses(process.Steps),
		"completedSteps":  done,
		"totalSteps":      total,
		"progressPercent": process.ProgressPercent(),
	})
}

func (s *Server) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	id := types.EventID(chi.URLParam(r, "eventID"))

	posts, err := s.uc.Repository().Post().ListByEvent(r.Context(), id)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, repoStatusCode(err))
		return
	}

	type postResponse struct {
		ID        string    `json:"id"`
		Body      string    `json:"body"`
		CreatedAt time.Time `json:"createdAt"`
	}
	resp := make([]postResponse, len(posts))
	for i, p := range posts {
		resp[i] = postResponse{
			ID:        p.ID.String(),
			Body:      p.Body,
			CreatedAt: p.CreatedAt,
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"posts": resp})
}
