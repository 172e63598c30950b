package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpctrl "github.com/flowdeck-dev/flowdeck/pkg/controller/http"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/repository/memory"
	"github.com/flowdeck-dev/flowdeck/pkg/usecase"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
	generateStreamFn  func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{`{"operations": []}`}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	if s.generateStreamFn != nil {
		return s.generateStreamFn(ctx, input...)
	}
	ch := make(chan *gollem.Response, 1)
	ch <- &gollem.Response{Texts: []string{"mock reply"}}
	close(ch)
	return ch, nil
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func setupServer(t *testing.T, client gollem.LLMClient) (*httpctrl.Server, *memory.Memory, *usecase.UseCases) {
	t.Helper()
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.Process().Create(ctx, &model.ProcessContext{
		ID:    "proc-1",
		Title: "Release checklist",
		Steps: []model.Step{
			{ID: "s1", Content: "Freeze the branch", Completed: true},
			{ID: "s2", Content: "Run the regression suite"},
		},
	})
	gt.NoError(t, err).Required()

	_, err = repo.Event().Create(ctx, &model.Event{
		ID:        "ev-1",
		Title:     "Release 2.4 go/no-go",
		Status:    types.EventStatusInProgress,
		ProcessID: "proc-1",
	})
	gt.NoError(t, err).Required()

	uc := usecase.New(repo, client)
	t.Cleanup(uc.Sessions.CloseAll)
	return httpctrl.New(uc), repo, uc
}

func openSession(t *testing.T, srv *httpctrl.Server, uc *usecase.UseCases, sessionID, eventID string) {
	t.Helper()
	body := bytes.NewBufferString(`{"eventID": "` + eventID + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/open", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	session, err := uc.Sessions.Get(types.SessionID(sessionID))
	gt.NoError(t, err).Required()
	select {
	case <-session.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("session start sequence did not finish")
	}
}

func TestOpenAndTranscript(t *testing.T) {
	srv, _, uc := setupServer(t, &mockLLMClient{})
	openSession(t, srv, uc, "sess-1", "ev-1")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/sess-1/transcript", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Turns []struct {
			Speaker     string `json:"speaker"`
			Text        string `json:"text"`
			IsAI        bool   `json:"isAI"`
			IsStreaming bool   `json:"isStreaming"`
		} `json:"turns"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Array(t, resp.Turns).Length(3)
	gt.Bool(t, strings.Contains(resp.Turns[1].Text, "Release 2.4 go/no-go")).True()
}

func TestTranscriptUnknownSession(t *testing.T) {
	srv, _, _ := setupServer(t, &mockLLMClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope/transcript", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}

func TestMessageStreamsSSE(t *testing.T) {
	client := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
					ch := make(chan *gollem.Response, 2)
					ch <- &gollem.Response{Texts: []string{"Run the "}}
					ch <- &gollem.Response{Texts: []string{"regression suite."}}
					close(ch)
					return ch, nil
				},
			}, nil
		},
	}
	srv, _, uc := setupServer(t, client)
	openSession(t, srv, uc, "sess-2", "ev-1")

	body := bytes.NewBufferString(`{"text": "what now?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/sess-2/messages", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, rec.Header().Get("Content-Type")).Equal("text/event-stream")

	out := rec.Body.String()
	gt.Bool(t, strings.Contains(out, "event: chunk")).True()
	gt.Bool(t, strings.Contains(out, `{"chunk":"Run the "}`)).True()
	gt.Bool(t, strings.Contains(out, "event: done")).True()
	gt.Bool(t, strings.Contains(out, `"text":"Run the regression suite."`)).True()
}

func TestMessageRequiresText(t *testing.T) {
	srv, _, uc := setupServer(t, &mockLLMClient{})
	openSession(t, srv, uc, "sess-3", "ev-1")

	body := bytes.NewBufferString(`{"speaker": "You"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/sess-3/messages", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestMessageConflictWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	client := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
					ch := make(chan *gollem.Response)
					go func() {
						<-release
						close(ch)
					}()
					return ch, nil
				},
			}, nil
		},
	}
	srv, _, uc := setupServer(t, client)
	openSession(t, srv, uc, "sess-4", "ev-1")

	session, err := uc.Sessions.Get("sess-4")
	gt.NoError(t, err).Required()
	events, err := session.SendUserMessage(context.Background(), "You", "first")
	gt.NoError(t, err).Required()

	body := bytes.NewBufferString(`{"text": "second"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/sess-4/messages", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusConflict)

	close(release)
	for range events {
	}
}

func TestOperationEndpointMutatesProcess(t *testing.T) {
	srv, repo, uc := setupServer(t, &mockLLMClient{})
	openSession(t, srv, uc, "sess-5", "ev-1")

	body := bytes.NewBufferString(`{"operation": "complete_step", "stepID": "s2", "description": "Finish the suite"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/sess-5/operations", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusNoContent)

	process, err := repo.Process().Get(context.Background(), "proc-1")
	gt.NoError(t, err).Required()
	gt.Bool(t, process.Steps[1].Completed).True()
}

func TestOperationRejectsUnknownType(t *testing.T) {
	srv, _, uc := setupServer(t, &mockLLMClient{})
	openSession(t, srv, uc, "sess-6", "ev-1")

	body := bytes.NewBufferString(`{"operation": "teleport_step", "stepID": "s2"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/sess-6/operations", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestStatusEndpoint(t *testing.T) {
	srv, repo, uc := setupServer(t, &mockLLMClient{})
	openSession(t, srv, uc, "sess-7", "ev-1")

	body := bytes.NewBufferString(`{"status": "COMPLETED"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/sess-7/status", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusNoContent)

	event, err := repo.Event().Get(context.Background(), "ev-1")
	gt.NoError(t, err).Required()
	gt.Value(t, event.Status).Equal(types.EventStatusCompleted)

	// Unknown status values never reach the executor
	body = bytes.NewBufferString(`{"status": "PAUSED"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/sessions/sess-7/status", body)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestCloseSessionLifecycle(t *testing.T) {
	srv, _, uc := setupServer(t, &mockLLMClient{})
	openSession(t, srv, uc, "sess-8", "ev-1")

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/sess-8/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusNoContent)

	// Closed sessions are gone from the manager
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/sess-8/transcript", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}

func TestMediaStateEndpoint(t *testing.T) {
	srv, _, uc := setupServer(t, &mockLLMClient{})
	openSession(t, srv, uc, "sess-9", "ev-1")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/sess-9/media", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Devices   map[string]string `json:"devices"`
		ElapsedMS int64             `json:"elapsedMS"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()

	// Without a configured media factory every device reports off
	gt.Value(t, resp.Devices["camera"]).Equal("OFF")
	gt.Value(t, resp.Devices["screen"]).Equal("OFF")
	gt.Value(t, resp.Devices["microphone"]).Equal("OFF")
}

func TestGetEventAndProcess(t *testing.T) {
	srv, _, _ := setupServer(t, &mockLLMClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var event struct {
		Title  string `json:"title"`
		Status string `json:"status"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event)).Required()
	gt.Value(t, event.Title).Equal("Release 2.4 go/no-go")
	gt.Value(t, event.Status).Equal("IN_PROGRESS")

	req = httptest.NewRequest(http.MethodGet, "/api/processes/proc-1", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var process struct {
		CompletedSteps  int `json:"completedSteps"`
		TotalSteps      int `json:"totalSteps"`
		ProgressPercent int `json:"progressPercent"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &process)).Required()
	gt.Value(t, process.CompletedSteps).Equal(1)
	gt.Value(t, process.TotalSteps).Equal(2)
	gt.Value(t, process.ProgressPercent).Equal(50)

	req = httptest.NewRequest(http.MethodGet, "/api/events/no-such-event", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}
