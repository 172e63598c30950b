package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

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

func seedEventWithProcess(t *testing.T, repo *memory.Memory) (*model.Event, *model.ProcessContext) {
	t.Helper()
	ctx := context.Background()

	process, err := repo.Process().Create(ctx, &model.ProcessContext{
		ID:    "proc-1",
		Title: "Release checklist",
		Steps: []model.Step{
			{ID: "s1", Content: "Freeze the branch", Completed: true},
			{ID: "s2", Content: "Run the regression suite"},
		},
	})
	gt.NoError(t, err).Required()

	event, err := repo.Event().Create(ctx, &model.Event{
		ID:        "ev-1",
		Title:     "Release 2.4 go/no-go",
		Status:    types.EventStatusInProgress,
		ProcessID: process.ID,
		StartTime: time.Now(),
	})
	gt.NoError(t, err).Required()
	return event, process
}

func waitReady(t *testing.T, s *usecase.Session) {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("session start sequence did not finish")
	}
}

func TestSessionStartSequence(t *testing.T) {
	repo := memory.New()
	seedEventWithProcess(t, repo)

	uc := usecase.New(repo, &mockLLMClient{})
	session, err := uc.Sessions.Open(context.Background(), "sess-1", "ev-1")
	gt.NoError(t, err).Required()
	waitReady(t, session)

	turns := session.Transcript()
	gt.Array(t, turns).Length(3)

	// Welcome always lands first, then the event, then the process
	gt.Value(t, turns[0].Speaker).Equal(types.SpeakerSystem)
	gt.Bool(t, strings.Contains(turns[1].Text, "Release 2.4 go/no-go")).True()
	gt.Bool(t, strings.Contains(turns[2].Text, "Release checklist")).True()
	gt.Bool(t, strings.Contains(turns[2].Text, "Progress: 50% (1/2 steps complete)")).True()
	gt.Bool(t, strings.Contains(turns[2].Text, "Run the regression suite")).True()
}

func TestSessionStartWithoutProcess(t *testing.T) {
	repo := memory.New()
	_, err := repo.Event().Create(context.Background(), &model.Event{
		ID:     "ev-2",
		Title:  "Ad-hoc retro",
		Status: types.EventStatusScheduled,
	})
	gt.NoError(t, err).Required()

	uc := usecase.New(repo, &mockLLMClient{})
	session, err := uc.Sessions.Open(context.Background(), "sess-2", "ev-2")
	gt.NoError(t, err).Required()
	waitReady(t, session)

	// No process fetch, no process announcement
	turns := session.Transcript()
	gt.Array(t, turns).Length(2)
	gt.Value(t, session.Process()).Nil()
}

func TestSessionStartEventLoadFailure(t *testing.T) {
	repo := memory.New()

	uc := usecase.New(repo, &mockLLMClient{})
	session, err := uc.Sessions.Open(context.Background(), "sess-3", "ev-missing")
	gt.NoError(t, err).Required()
	waitReady(t, session)

	// Welcome still lands; the failed fetch never disrupts the transcript
	turns := session.Transcript()
	gt.Array(t, turns).Length(1)
	gt.Value(t, session.Event()).Nil()
}

func TestSessionReopenIsIdempotent(t *testing.T) {
	repo := memory.New()
	seedEventWithProcess(t, repo)

	uc := usecase.New(repo, &mockLLMClient{})
	s1, err := uc.Sessions.Open(context.Background(), "sess-4", "ev-1")
	gt.NoError(t, err).Required()
	waitReady(t, s1)

	s2, err := uc.Sessions.Open(context.Background(), "sess-4", "ev-1")
	gt.NoError(t, err).Required()
	gt.Value(t, s2).Equal(s1)

	// One-shot announcements do not repeat on reopen
	gt.Array(t, s2.Transcript()).Length(3)

	_, err = uc.Sessions.Open(context.Background(), "sess-4", "ev-other")
	gt.Value(t, err).NotNil()
}

func TestSendUserMessageStreamsIntoTranscript(t *testing.T) {
	repo := memory.New()
	seedEventWithProcess(t, repo)

	client := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
					ch := make(chan *gollem.Response, 2)
					ch <- &gollem.Response{Texts: []string{"Run the "}}
					ch <- &gollem.Response{Texts: []string{"regression suite next."}}
					close(ch)
					return ch, nil
				},
			}, nil
		},
	}

	uc := usecase.New(repo, client)
	session, err := uc.Sessions.Open(context.Background(), "sess-5", "ev-1")
	gt.NoError(t, err).Required()
	waitReady(t, session)

	events, err := session.SendUserMessage(context.Background(), "You", "what now?")
	gt.NoError(t, err).Required()
	for range events {
	}

	turns := session.Transcript()
	last := turns[len(turns)-1]
	gt.Value(t, last.Speaker).Equal(types.SpeakerAssistant)
	gt.Value(t, last.Text).Equal("Run the regression suite next.")
	gt.Value(t, last.IsStreaming).Equal(false)

	user := turns[len(turns)-2]
	gt.Value(t, user.Text).Equal("what now?")
	gt.Value(t, user.IsAI).Equal(false)
}

func TestSendUserMessageRejectsWhileInFlight(t *testing.T) {
	repo := memory.New()
	seedEventWithProcess(t, repo)

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

	uc := usecase.New(repo, client)
	session, err := uc.Sessions.Open(context.Background(), "sess-6", "ev-1")
	gt.NoError(t, err).Required()
	waitReady(t, session)

	events, err := session.SendUserMessage(context.Background(), "You", "first")
	gt.NoError(t, err).Required()

	_, err = session.SendUserMessage(context.Background(), "You", "second")
	gt.Value(t, err).NotNil()
	gt.Bool(t, errors.Is(err, usecase.ErrMessageInFlight)).True()

	// The rejected message leaves no trace in the transcript
	for _, turn := range session.Transcript() {
		gt.Value(t, turn.Text).NotEqual("second")
	}

	close(release)
	for range events {
	}
}

func TestSessionCloseStopsUpdates(t *testing.T) {
	repo := memory.New()
	seedEventWithProcess(t, repo)

	uc := usecase.New(repo, &mockLLMClient{})
	session, err := uc.Sessions.Open(context.Background(), "sess-7", "ev-1")
	gt.NoError(t, err).Required()
	waitReady(t, session)

	gt.NoError(t, uc.Sessions.Close("sess-7"))
	gt.Bool(t, session.Closed()).True()

	_, err = session.SendUserMessage(context.Background(), "You", "anyone there?")
	gt.Bool(t, errors.Is(err, usecase.ErrSessionClosed)).True()

	_, err = uc.Sessions.Get("sess-7")
	gt.Bool(t, errors.Is(err, usecase.ErrSessionNotFound)).True()

	// Double close is reported
	gt.Value(t, uc.Sessions.Close("sess-7")).NotNil()
}
