package usecase

import (
	"context"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/interfaces"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/service/archive"
	"github.com/flowdeck-dev/flowdeck/pkg/service/assistant"
	"github.com/flowdeck-dev/flowdeck/pkg/service/cache"
	"github.com/flowdeck-dev/flowdeck/pkg/service/feed"
	"github.com/flowdeck-dev/flowdeck/pkg/service/media"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/gollem"
	"golang.org/x/sync/errgroup"
)

// UseCases wires the session orchestration: context loading, session
// management, and operation execution over one repository.
type UseCases struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient

	contextCache cache.ContextCache
	feedSvc      feed.Service
	archiveSvc   *archive.Archive
	mediaFactory func() media.Controller
	pacing       Pacing
	welcomeText  string
	language     string

	Loader   *ContextLoader
	Sessions *SessionManager
	Executor *Executor
}

type Option func(*UseCases)

// WithCache sets the context cache backend
func WithCache(c cache.ContextCache) Option {
	return func(uc *UseCases) {
		uc.contextCache = c
	}
}

// WithFeed sets the feed service for status change notes
func WithFeed(f feed.Service) Option {
	return func(uc *UseCases) {
		uc.feedSvc = f
	}
}

// WithArchive enables transcript archival on session close
func WithArchive(a *archive.Archive) Option {
	return func(uc *UseCases) {
		uc.archiveSvc = a
	}
}

// WithMediaFactory sets the media controller constructor used per session
func WithMediaFactory(f func() media.Controller) Option {
	return func(uc *UseCases) {
		uc.mediaFactory = f
	}
}

// WithPacing sets the opening-sequence pacing delays
func WithPacing(p Pacing) Option {
	return func(uc *UseCases) {
		uc.pacing = p
	}
}

// WithWelcomeText overrides the default welcome message
func WithWelcomeText(text string) Option {
	return func(uc *UseCases) {
		uc.welcomeText = text
	}
}

// WithLanguage sets the assistant response language
func WithLanguage(language string) Option {
	return func(uc *UseCases) {
		uc.language = language
	}
}

func New(repo interfaces.Repository, llmClient gollem.LLMClient, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		llmClient: llmClient,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Loader = NewContextLoader(repo, uc.contextCache)
	uc.Sessions = newSessionManager(func(ctx context.Context, id types.SessionID, eventID types.EventID) *Session {
		var adapterOpts []assistant.Option
		if uc.language != "" {
			adapterOpts = append(adapterOpts, assistant.WithLanguage(uc.language))
		}
		adapter := assistant.New(uc.llmClient, adapterOpts...)

		var mediaCtl media.Controller
		if uc.mediaFactory != nil {
			mediaCtl = uc.mediaFactory()
		}
		return newSession(ctx, id, eventID, uc.Loader, adapter, mediaCtl, uc.pacing, uc.welcomeText)
	})
	uc.Executor = NewExecutor(repo, uc.Loader, uc.feedSvc)

	return uc
}

// Repository exposes the backing repository for read-only API surfaces
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}

// CloseSession archives the session (when an archive is configured) and
// then closes it. Archival is best-effort; a failed save never blocks
// the close.
func (uc *UseCases) CloseSession(ctx context.Context, id types.SessionID) error {
	s, err := uc.Sessions.Get(id)
	if err != nil {
		return err
	}

	if uc.archiveSvc != nil {
		if err := uc.archiveSession(ctx, s); err != nil {
			logging.From(ctx).Warn("failed to archive session transcript",
				"sessionID", id,
				"error", err.Error(),
			)
		}
	}

	return uc.Sessions.Close(id)
}

// archiveSession snapshots the transcript and fetches the event and its
// feed posts in parallel, then writes one archive record.
func (uc *UseCases) archiveSession(ctx context.Context, s *Session) error {
	var (
		event *model.Event
		posts []*model.Post
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		event, err = uc.repo.Event().Get(egCtx, s.EventID())
		return err
	})
	eg.Go(func() error {
		var err error
		posts, err = uc.repo.Post().ListByEvent(egCtx, s.EventID())
		return err
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	return uc.archiveSvc.Save(ctx, &archive.Record{
		SessionID: s.ID(),
		Event:     event,
		Turns:     s.Transcript(),
		Posts:     posts,
	})
}
