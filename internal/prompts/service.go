package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/internal/tags"
	"github.com/JaimeStill/promptdex/internal/users"
	"github.com/JaimeStill/promptdex/pkg/cache"
	"github.com/JaimeStill/promptdex/pkg/pagination"
)

const maxCommentLength = 5000

type service struct {
	store      Store
	cache      cache.System
	group      singleflight.Group
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the prompt catalog System backed by PostgreSQL.
func New(
	db *sql.DB,
	cache cache.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return NewService(NewStore(db), cache, logger, pagination)
}

// NewService creates the prompt catalog System over an arbitrary Store.
func NewService(
	store Store,
	cache cache.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &service{
		store:      store,
		cache:      cache,
		logger:     logger.With("system", "prompts"),
		pagination: pagination,
	}
}

func (s *service) Handler(maxBodyBytes int64) *Handler {
	return NewHandler(s, s.logger, s.pagination, maxBodyBytes)
}

func (s *service) Search(ctx context.Context, req SearchRequest, caller identity.Caller) (*pagination.PageResult[Summary], error) {
	if err := req.PageRequest.Validate(s.pagination); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	sq := SearchQuery{
		Page:   req.PageRequest,
		Search: strings.TrimSpace(req.Search),
		Tags:   tags.FilterNames(req.Tags),
		Author: strings.TrimSpace(req.Author),
	}

	var (
		viewer  *users.User
		prompts []Prompt
		total   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		viewer, err = s.resolveUser(gctx, caller)
		return err
	})
	g.Go(func() (err error) {
		prompts, total, err = s.store.SearchPrompts(gctx, sq)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v, err := s.viewer(ctx, viewer, prompts...)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(toSummaries(prompts, v), total, sq.Page.Page, sq.Page.PageSize)
	return &result, nil
}

func (s *service) Find(ctx context.Context, id uuid.UUID, caller identity.Caller) (*Summary, error) {
	var (
		viewer *users.User
		p      *Prompt
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		viewer, err = s.resolveUser(gctx, caller)
		return err
	})
	g.Go(func() (err error) {
		p, err = s.load(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.summarize(ctx, p, viewer)
}

func (s *service) Create(ctx context.Context, cmd CreateCommand, caller identity.Caller) (*Summary, error) {
	actor, err := s.requireUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	names, err := canonicalTags(cmd.Tags)
	if err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.store.InTx(ctx, func(st Store) error {
		var err error
		if id, err = st.InsertPrompt(ctx, actor.ID, cmd.fields()); err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}
		return replaceTags(ctx, st, id, names)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("prompt created", "id", id, "author", actor.Username, "tags", len(names))
	return s.reload(ctx, id, actor)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand, caller identity.Caller) (*Summary, error) {
	actor, err := s.resolveUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(st Store) error {
		if err := authorizeAuthor(ctx, st, id, actor); err != nil {
			return err
		}
		return st.UpdatePrompt(ctx, id, cmd.fields())
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, id)
	s.logger.Info("prompt updated", "id", id, "author", actor.Username)
	return s.reload(ctx, id, actor)
}

func (s *service) UpdateTags(ctx context.Context, id uuid.UUID, names []string, caller identity.Caller) (*Summary, error) {
	actor, err := s.resolveUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	canonical, err := canonicalTags(names)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(st Store) error {
		if err := authorizeAuthor(ctx, st, id, actor); err != nil {
			return err
		}
		return replaceTags(ctx, st, id, canonical)
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, id)
	s.logger.Info("prompt tags replaced", "id", id, "tags", canonical)
	return s.reload(ctx, id, actor)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, caller identity.Caller) error {
	actor, err := s.resolveUser(ctx, caller)
	if err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(st Store) error {
		if err := authorizeAuthor(ctx, st, id, actor); err != nil {
			return err
		}
		return st.DeletePrompt(ctx, id)
	})
	if err != nil {
		return err
	}

	s.evict(ctx, id)
	s.logger.Info("prompt deleted", "id", id, "author", actor.Username)
	return nil
}

func (s *service) AddReview(ctx context.Context, id uuid.UUID, cmd ReviewCommand, caller identity.Caller) (*Summary, error) {
	if err := validateReview(cmd); err != nil {
		return nil, err
	}

	actor, err := s.requireUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.FindPrompt(ctx, id); err != nil {
		return nil, err
	}

	var reviewID uuid.UUID
	err = s.store.InTx(ctx, func(st Store) (err error) {
		reviewID, err = st.InsertReview(ctx, id, actor.ID, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, id)
	s.logger.Info("review added", "id", id, "review_id", reviewID, "reviewer", actor.Username, "rating", cmd.Rating)
	return s.reload(ctx, id, actor)
}

func (s *service) DeleteReview(ctx context.Context, id, reviewID uuid.UUID, caller identity.Caller) (*Summary, error) {
	actor, err := s.resolveUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.FindPrompt(ctx, id); err != nil {
		return nil, err
	}

	review, err := s.store.FindReview(ctx, id, reviewID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.ID != review.Reviewer.ID {
		return nil, fmt.Errorf("%w: review %s", ErrPermissionDenied, reviewID)
	}

	err = s.store.InTx(ctx, func(st Store) error {
		return st.DeleteReview(ctx, reviewID)
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, id)
	s.logger.Info("review deleted", "id", id, "review_id", reviewID, "reviewer", actor.Username)
	return s.reload(ctx, id, actor)
}

func (s *service) AddBookmark(ctx context.Context, id uuid.UUID, username string) error {
	user, err := s.bookmarkTarget(ctx, id, username)
	if err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(st Store) error {
		return st.AddBookmark(ctx, user.ID, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("bookmark added", "id", id, "user", user.Username)
	return nil
}

func (s *service) RemoveBookmark(ctx context.Context, id uuid.UUID, username string) error {
	user, err := s.bookmarkTarget(ctx, id, username)
	if err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(st Store) error {
		return st.RemoveBookmark(ctx, user.ID, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("bookmark removed", "id", id, "user", user.Username)
	return nil
}

func (s *service) Bookmarked(ctx context.Context, username string, page pagination.PageRequest) (*pagination.PageResult[Summary], error) {
	if err := page.Validate(s.pagination); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	user, err := s.store.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}

	prompts, total, err := s.store.SearchPrompts(ctx, SearchQuery{
		Page:         page,
		BookmarkedBy: &user.ID,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(prompts))
	for i, p := range prompts {
		ids[i] = p.ID
	}
	v := NewViewer(user.ID, user.Username, ids...)

	result := pagination.NewPageResult(toSummaries(prompts, v), total, page.Page, page.PageSize)
	return &result, nil
}

// resolveUser returns the registered user behind caller, or nil for an
// anonymous or unregistered caller.
func (s *service) resolveUser(ctx context.Context, caller identity.Caller) (*users.User, error) {
	if caller.IsAnonymous() {
		return nil, nil
	}

	u, err := s.store.FindUser(ctx, caller.Username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	return u, err
}

func (s *service) requireUser(ctx context.Context, caller identity.Caller) (*users.User, error) {
	u, err := s.resolveUser(ctx, caller)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, caller.Username)
	}
	return u, nil
}

// authorizeAuthor loads the prompt through st and rejects callers other than
// its author. Mutations call it inside their transaction so the check and
// the write observe the same row.
func authorizeAuthor(ctx context.Context, st Store, id uuid.UUID, actor *users.User) error {
	p, err := st.FindPrompt(ctx, id)
	if err != nil {
		return err
	}
	return authorize(p, actor)
}

func (s *service) bookmarkTarget(ctx context.Context, id uuid.UUID, username string) (*users.User, error) {
	user, err := s.store.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

// load reads a prompt through the cache. Concurrent misses for the same id
// share one store read, detached from any single caller's cancellation;
// each caller still stops waiting when its own ctx ends.
func (s *service) load(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	key := cacheKey(id)

	if s.cache.Enabled() {
		var cached Prompt
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("cache read failed", "key", key, "error", err)
		}
		if found {
			return &cached, nil
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		p, err := s.store.FindPrompt(shared, id)
		if err != nil {
			return nil, err
		}
		if s.cache.Enabled() {
			if err := s.cache.Set(shared, key, p); err != nil {
				s.logger.Warn("cache write failed", "key", key, "error", err)
			}
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*Prompt)
		return &p, nil
	}
}

func (s *service) reload(ctx context.Context, id uuid.UUID, actor *users.User) (*Summary, error) {
	p, err := s.store.FindPrompt(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, p, actor)
}

func (s *service) evict(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("cache evict failed", "id", id, "error", err)
	}
}

func (s *service) summarize(ctx context.Context, p *Prompt, user *users.User) (*Summary, error) {
	v, err := s.viewer(ctx, user, *p)
	if err != nil {
		return nil, err
	}
	summary := ToSummary(*p, v)
	return &summary, nil
}

// viewer builds the Viewer for user scoped to prompts. A nil user yields a
// nil (anonymous) Viewer.
func (s *service) viewer(ctx context.Context, user *users.User, prompts ...Prompt) (*Viewer, error) {
	if user == nil {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(prompts))
	for i, p := range prompts {
		ids[i] = p.ID
	}

	marked, err := s.store.BookmarkedAmong(ctx, user.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve bookmarks: %w", err)
	}
	return NewViewer(user.ID, user.Username, marked...), nil
}

func cacheKey(id uuid.UUID) string {
	return "prompt:" + id.String()
}

func canonicalTags(names []string) ([]string, error) {
	canonical, err := tags.Canonicalize(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return canonical, nil
}

func replaceTags(ctx context.Context, st Store, id uuid.UUID, names []string) error {
	resolved, err := tags.FindOrCreate(ctx, st, names)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, len(resolved))
	for i, t := range resolved {
		ids[i] = t.ID
	}
	return st.ReplaceTags(ctx, id, ids)
}

func validateReview(cmd ReviewCommand) error {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return fmt.Errorf("%w: rating %d must be between 1 and 5", ErrInvalidArgument, cmd.Rating)
	}
	if strings.TrimSpace(cmd.Comment) == "" {
		return fmt.Errorf("%w: comment is required", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(cmd.Comment) > maxCommentLength {
		return fmt.Errorf("%w: comment exceeds %d characters", ErrInvalidArgument, maxCommentLength)
	}
	return nil
}
