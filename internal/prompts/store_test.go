package prompts_test

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/promptdex/internal/prompts"
	"github.com/JaimeStill/promptdex/internal/tags"
	"github.com/JaimeStill/promptdex/internal/users"
)

type bookmark struct {
	user   uuid.UUID
	prompt uuid.UUID
}

type storedReview struct {
	prompt uuid.UUID
	review prompts.Review
}

type memState struct {
	users      map[string]users.User
	prompts    map[uuid.UUID]prompts.Prompt
	tags       map[string]tags.Tag
	promptTags map[uuid.UUID][]uuid.UUID
	reviews    map[uuid.UUID]storedReview
	bookmarks  map[bookmark]struct{}
}

func (s memState) clone() memState {
	pt := make(map[uuid.UUID][]uuid.UUID, len(s.promptTags))
	for k, v := range s.promptTags {
		pt[k] = slices.Clone(v)
	}
	return memState{
		users:      maps.Clone(s.users),
		prompts:    maps.Clone(s.prompts),
		tags:       maps.Clone(s.tags),
		promptTags: pt,
		reviews:    maps.Clone(s.reviews),
		bookmarks:  maps.Clone(s.bookmarks),
	}
}

// memStore is an in-memory prompts.Store. InTx restores the prior state
// when fn fails.
type memStore struct {
	mu    sync.Mutex
	state memState
	clock time.Time

	failReplaceTags bool
	findPromptCalls int
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			users:      make(map[string]users.User),
			prompts:    make(map[uuid.UUID]prompts.Prompt),
			tags:       make(map[string]tags.Tag),
			promptTags: make(map[uuid.UUID][]uuid.UUID),
			reviews:    make(map[uuid.UUID]storedReview),
			bookmarks:  make(map[bookmark]struct{}),
		},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) now() *time.Time {
	m.clock = m.clock.Add(time.Second)
	t := m.clock
	return &t
}

func (m *memStore) addUser(username string) users.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := users.User{ID: uuid.New(), Username: username, CreatedAt: m.now()}
	m.state.users[username] = u
	return u
}

func (m *memStore) counts() (prompts, reviews, tagCount, bookmarks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.prompts), len(m.state.reviews), len(m.state.tags), len(m.state.bookmarks)
}

func (m *memStore) InTx(ctx context.Context, fn func(prompts.Store) error) error {
	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) FindTagByName(_ context.Context, name string) (*tags.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.tags[name]
	if !ok {
		return nil, tags.ErrNotFound
	}
	return &t, nil
}

func (m *memStore) InsertTag(_ context.Context, name string) (*tags.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.tags[name]; ok {
		return nil, tags.ErrConflict
	}
	t := tags.Tag{ID: uuid.New(), Name: name}
	m.state.tags[name] = t
	return &t, nil
}

func (m *memStore) aggregate(p prompts.Prompt) prompts.Prompt {
	p.Tags = []tags.Tag{}
	for _, id := range m.state.promptTags[p.ID] {
		for _, t := range m.state.tags {
			if t.ID == id {
				p.Tags = append(p.Tags, t)
			}
		}
	}
	slices.SortFunc(p.Tags, func(a, b tags.Tag) int { return strings.Compare(a.Name, b.Name) })

	p.Reviews = []prompts.Review{}
	for _, r := range m.state.reviews {
		if r.prompt == p.ID {
			p.Reviews = append(p.Reviews, r.review)
		}
	}
	slices.SortFunc(p.Reviews, func(a, b prompts.Review) int {
		return a.CreatedAt.Compare(*b.CreatedAt)
	})
	return p
}

func (m *memStore) FindPrompt(_ context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findPromptCalls++
	p, ok := m.state.prompts[id]
	if !ok {
		return nil, prompts.ErrNotFound
	}
	agg := m.aggregate(p)
	return &agg, nil
}

func (m *memStore) SearchPrompts(_ context.Context, q prompts.SearchQuery) ([]prompts.Prompt, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := strings.ToLower(q.Search)
	var matched []prompts.Prompt
	for _, p := range m.state.prompts {
		agg := m.aggregate(p)
		if needle != "" &&
			!strings.Contains(strings.ToLower(agg.Title), needle) &&
			!strings.Contains(strings.ToLower(agg.Description), needle) &&
			!strings.Contains(strings.ToLower(agg.Text), needle) {
			continue
		}
		if len(q.Tags) > 0 && !slices.ContainsFunc(agg.Tags, func(t tags.Tag) bool {
			return slices.Contains(q.Tags, t.Name)
		}) {
			continue
		}
		if q.Author != "" && agg.Author.Username != q.Author {
			continue
		}
		if q.BookmarkedBy != nil {
			if _, ok := m.state.bookmarks[bookmark{*q.BookmarkedBy, p.ID}]; !ok {
				continue
			}
		}
		matched = append(matched, agg)
	}

	slices.SortFunc(matched, func(a, b prompts.Prompt) int {
		if c := b.CreatedAt.Compare(*a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})

	total := len(matched)
	start := min(q.Page.Offset(), total)
	end := min(start+q.Page.PageSize, total)
	return matched[start:end], total, nil
}

func (m *memStore) FindUser(_ context.Context, username string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.state.users[username]
	if !ok {
		return nil, prompts.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) BookmarkedAmong(_ context.Context, userID uuid.UUID, promptIDs []uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for _, id := range promptIDs {
		if _, ok := m.state.bookmarks[bookmark{userID, id}]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memStore) authorOf(id uuid.UUID) (prompts.Author, bool) {
	for _, u := range m.state.users {
		if u.ID == id {
			return prompts.Author{ID: u.ID, Username: u.Username}, true
		}
	}
	return prompts.Author{}, false
}

func (m *memStore) InsertPrompt(_ context.Context, authorID uuid.UUID, f prompts.Fields) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	author, ok := m.authorOf(authorID)
	if !ok {
		return uuid.Nil, prompts.ErrUserNotFound
	}
	p := prompts.Prompt{
		ID:          uuid.New(),
		Title:       f.Title,
		Text:        f.Text,
		Description: f.Description,
		Model:       f.Model,
		Category:    f.Category,
		Author:      author,
		CreatedAt:   m.now(),
	}
	m.state.prompts[p.ID] = p
	return p.ID, nil
}

func (m *memStore) UpdatePrompt(_ context.Context, id uuid.UUID, f prompts.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.prompts[id]
	if !ok {
		return prompts.ErrNotFound
	}
	p.Title, p.Text, p.Description, p.Model, p.Category = f.Title, f.Text, f.Description, f.Model, f.Category
	p.UpdatedAt = m.now()
	m.state.prompts[id] = p
	return nil
}

func (m *memStore) ReplaceTags(_ context.Context, id uuid.UUID, tagIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReplaceTags {
		return errors.New("link failed")
	}
	if _, ok := m.state.prompts[id]; !ok {
		return prompts.ErrNotFound
	}
	m.state.promptTags[id] = slices.Clone(tagIDs)
	return nil
}

func (m *memStore) DeletePrompt(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.prompts[id]; !ok {
		return prompts.ErrNotFound
	}
	delete(m.state.prompts, id)
	delete(m.state.promptTags, id)
	for rid, r := range m.state.reviews {
		if r.prompt == id {
			delete(m.state.reviews, rid)
		}
	}
	for b := range m.state.bookmarks {
		if b.prompt == id {
			delete(m.state.bookmarks, b)
		}
	}
	return nil
}

func (m *memStore) InsertReview(_ context.Context, promptID, reviewerID uuid.UUID, cmd prompts.ReviewCommand) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.prompts[promptID]; !ok {
		return uuid.Nil, prompts.ErrNotFound
	}
	reviewer, ok := m.authorOf(reviewerID)
	if !ok {
		return uuid.Nil, prompts.ErrUserNotFound
	}
	r := prompts.Review{
		ID:        uuid.New(),
		Rating:    cmd.Rating,
		Comment:   cmd.Comment,
		Reviewer:  reviewer,
		CreatedAt: m.now(),
	}
	m.state.reviews[r.ID] = storedReview{prompt: promptID, review: r}
	return r.ID, nil
}

func (m *memStore) FindReview(_ context.Context, promptID, reviewID uuid.UUID) (*prompts.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reviews[reviewID]
	if !ok || r.prompt != promptID {
		return nil, prompts.ErrReviewNotFound
	}
	return &r.review, nil
}

func (m *memStore) DeleteReview(_ context.Context, reviewID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.reviews[reviewID]; !ok {
		return prompts.ErrReviewNotFound
	}
	delete(m.state.reviews, reviewID)
	return nil
}

func (m *memStore) AddBookmark(_ context.Context, userID, promptID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.prompts[promptID]; !ok {
		return prompts.ErrNotFound
	}
	m.state.bookmarks[bookmark{userID, promptID}] = struct{}{}
	return nil
}

func (m *memStore) RemoveBookmark(_ context.Context, userID, promptID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.bookmarks, bookmark{userID, promptID})
	return nil
}
