package prompts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/internal/prompts"
	"github.com/JaimeStill/promptdex/internal/tags"
	"github.com/JaimeStill/promptdex/pkg/cache"
	"github.com/JaimeStill/promptdex/pkg/lifecycle"
	"github.com/JaimeStill/promptdex/pkg/pagination"
)

var (
	discard  = slog.New(slog.NewTextHandler(io.Discard, nil))
	pageCfg  = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	firstPag = pagination.PageRequest{Page: 0, PageSize: 20}
)

func as(username string) identity.Caller {
	return identity.Caller{Username: username}
}

func newService(t *testing.T) (*memStore, prompts.System) {
	t.Helper()
	store := newMemStore()
	store.addUser("alice")
	store.addUser("bob")
	store.addUser("carol")
	return store, prompts.NewService(store, cache.New(&cache.Config{}, discard), discard, pageCfg)
}

func create(t *testing.T, sys prompts.System, author, title string, tagNames ...string) *prompts.Summary {
	t.Helper()
	s, err := sys.Create(context.Background(), prompts.CreateCommand{
		Title:    title,
		Text:     "text of " + title,
		Category: "gen",
		Tags:     tagNames,
	}, as(author))
	if err != nil {
		t.Fatalf("Create(%q) error = %v", title, err)
	}
	return s
}

func TestAverageRatingScenario(t *testing.T) {
	_, sys := newService(t)
	ctx := context.Background()

	p, err := sys.Create(ctx, prompts.CreateCommand{Title: "T", Text: "X", Category: "gen"}, as("alice"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := sys.Find(ctx, p.ID, identity.Anonymous())
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.AverageRating != 0.0 {
		t.Errorf("AverageRating = %v, want 0", got.AverageRating)
	}
	if got.Reviews == nil || len(got.Reviews) != 0 {
		t.Errorf("Reviews = %v, want empty slice", got.Reviews)
	}
	if got.AuthorUsername != "alice" {
		t.Errorf("AuthorUsername = %q, want alice", got.AuthorUsername)
	}

	steps := []struct {
		reviewer string
		rating   int
		want     float64
	}{
		{"bob", 4, 4.0},
		{"carol", 2, 3.0},
	}

	for _, step := range steps {
		if _, err := sys.AddReview(ctx, p.ID, prompts.ReviewCommand{Rating: step.rating, Comment: "ok"}, as(step.reviewer)); err != nil {
			t.Fatalf("AddReview(%s) error = %v", step.reviewer, err)
		}
		got, err := sys.Find(ctx, p.ID, identity.Anonymous())
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if got.AverageRating != step.want {
			t.Errorf("after %s: AverageRating = %v, want %v", step.reviewer, got.AverageRating, step.want)
		}
	}
}

func TestCreate(t *testing.T) {
	t.Run("unregistered caller", func(t *testing.T) {
		_, sys := newService(t)
		_, err := sys.Create(context.Background(), prompts.CreateCommand{Title: "T", Text: "X"}, as("mallory"))
		if !errors.Is(err, prompts.ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("anonymous caller", func(t *testing.T) {
		_, sys := newService(t)
		_, err := sys.Create(context.Background(), prompts.CreateCommand{Title: "T", Text: "X"}, identity.Anonymous())
		if !errors.Is(err, prompts.ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("with tags", func(t *testing.T) {
		_, sys := newService(t)
		s := create(t, sys, "alice", "T", "Go", " SQL ", "go")
		if len(s.Tags) != 2 || s.Tags[0] != "go" || s.Tags[1] != "sql" {
			t.Errorf("Tags = %v, want [go sql]", s.Tags)
		}
	})

	t.Run("failure leaves no prompt behind", func(t *testing.T) {
		store, sys := newService(t)
		store.failReplaceTags = true

		_, err := sys.Create(context.Background(), prompts.CreateCommand{Title: "T", Text: "X", Tags: []string{"go"}}, as("alice"))
		if err == nil {
			t.Fatal("Create() should fail when linking tags fails")
		}
		if n, _, tagCount, _ := store.counts(); n != 0 || tagCount != 0 {
			t.Errorf("prompts = %d, tags = %d; want both 0 after rollback", n, tagCount)
		}
	})
}

func TestUpdateAuthorization(t *testing.T) {
	store, sys := newService(t)
	ctx := context.Background()
	p := create(t, sys, "alice", "original")
	cmd := prompts.UpdateCommand{Title: "changed", Text: "changed"}

	tests := []struct {
		name   string
		caller identity.Caller
		id     uuid.UUID
		want   error
	}{
		{"other user", as("bob"), p.ID, prompts.ErrPermissionDenied},
		{"anonymous", identity.Anonymous(), p.ID, prompts.ErrPermissionDenied},
		{"unregistered", as("mallory"), p.ID, prompts.ErrPermissionDenied},
		{"missing prompt", as("alice"), uuid.New(), prompts.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.Update(ctx, tt.id, cmd, tt.caller)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			stored, _ := store.FindPrompt(ctx, p.ID)
			if stored.Title != "original" {
				t.Errorf("Title = %q, want unchanged", stored.Title)
			}
		})
	}

	t.Run("author", func(t *testing.T) {
		got, err := sys.Update(ctx, p.ID, cmd, as("alice"))
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Title != "changed" || got.UpdatedAt == nil {
			t.Errorf("got title %q updated_at %v, want changed and set", got.Title, got.UpdatedAt)
		}
	})
}

func TestUpdateTags(t *testing.T) {
	store, sys := newService(t)
	ctx := context.Background()
	p := create(t, sys, "alice", "T", "old")

	t.Run("collapses case and whitespace", func(t *testing.T) {
		got, err := sys.UpdateTags(ctx, p.ID, []string{"Foo", "foo", " FOO "}, as("alice"))
		if err != nil {
			t.Fatalf("UpdateTags() error = %v", err)
		}
		if len(got.Tags) != 1 || got.Tags[0] != "foo" {
			t.Errorf("Tags = %v, want [foo]", got.Tags)
		}
		if _, _, tagCount, _ := store.counts(); tagCount != 2 {
			t.Errorf("tag count = %d, want 2 (old tag is kept)", tagCount)
		}
	})

	t.Run("reuses existing tags", func(t *testing.T) {
		other := create(t, sys, "bob", "U", "foo")
		if _, _, tagCount, _ := store.counts(); tagCount != 2 {
			t.Errorf("tag count = %d, want 2", tagCount)
		}
		if len(other.Tags) != 1 || other.Tags[0] != "foo" {
			t.Errorf("Tags = %v, want [foo]", other.Tags)
		}
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := sys.UpdateTags(ctx, p.ID, []string{"ok", "  "}, as("alice"))
		if !errors.Is(err, prompts.ErrInvalidArgument) || !errors.Is(err, tags.ErrInvalidName) {
			t.Errorf("error = %v, want ErrInvalidArgument wrapping ErrInvalidName", err)
		}
	})

	t.Run("non author", func(t *testing.T) {
		_, err := sys.UpdateTags(ctx, p.ID, []string{"x"}, as("bob"))
		if !errors.Is(err, prompts.ErrPermissionDenied) {
			t.Errorf("error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("clear", func(t *testing.T) {
		got, err := sys.UpdateTags(ctx, p.ID, nil, as("alice"))
		if err != nil {
			t.Fatalf("UpdateTags() error = %v", err)
		}
		if len(got.Tags) != 0 {
			t.Errorf("Tags = %v, want none", got.Tags)
		}
	})
}

func TestDelete(t *testing.T) {
	store, sys := newService(t)
	ctx := context.Background()

	p := create(t, sys, "alice", "doomed", "keep")
	other := create(t, sys, "alice", "survivor")

	sys.AddReview(ctx, p.ID, prompts.ReviewCommand{Rating: 5, Comment: "great"}, as("bob"))
	sys.AddBookmark(ctx, p.ID, "bob")
	sys.AddBookmark(ctx, other.ID, "bob")

	if err := sys.Delete(ctx, p.ID, as("bob")); !errors.Is(err, prompts.ErrPermissionDenied) {
		t.Fatalf("Delete() by non-author = %v, want ErrPermissionDenied", err)
	}

	if err := sys.Delete(ctx, p.ID, as("alice")); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := sys.Find(ctx, p.ID, identity.Anonymous()); !errors.Is(err, prompts.ErrNotFound) {
		t.Errorf("Find() after delete = %v, want ErrNotFound", err)
	}

	n, reviews, tagCount, bookmarks := store.counts()
	if n != 1 || reviews != 0 || tagCount != 1 || bookmarks != 1 {
		t.Errorf("prompts=%d reviews=%d tags=%d bookmarks=%d; want 1 0 1 1", n, reviews, tagCount, bookmarks)
	}
}

func TestReviews(t *testing.T) {
	_, sys := newService(t)
	ctx := context.Background()
	p := create(t, sys, "alice", "T")

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name string
			cmd  prompts.ReviewCommand
		}{
			{"rating zero", prompts.ReviewCommand{Rating: 0, Comment: "x"}},
			{"rating six", prompts.ReviewCommand{Rating: 6, Comment: "x"}},
			{"blank comment", prompts.ReviewCommand{Rating: 3, Comment: "  "}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := sys.AddReview(ctx, p.ID, tt.cmd, as("bob"))
				if !errors.Is(err, prompts.ErrInvalidArgument) {
					t.Errorf("error = %v, want ErrInvalidArgument", err)
				}
			})
		}
	})

	t.Run("missing prompt", func(t *testing.T) {
		_, err := sys.AddReview(ctx, uuid.New(), prompts.ReviewCommand{Rating: 3, Comment: "x"}, as("bob"))
		if !errors.Is(err, prompts.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unregistered reviewer", func(t *testing.T) {
		_, err := sys.AddReview(ctx, p.ID, prompts.ReviewCommand{Rating: 3, Comment: "x"}, as("mallory"))
		if !errors.Is(err, prompts.ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s, err := sys.AddReview(ctx, p.ID, prompts.ReviewCommand{Rating: 2, Comment: "meh"}, as("bob"))
		if err != nil {
			t.Fatalf("AddReview() error = %v", err)
		}
		reviewID := s.Reviews[len(s.Reviews)-1].ID

		if _, err := sys.DeleteReview(ctx, p.ID, reviewID, as("carol")); !errors.Is(err, prompts.ErrPermissionDenied) {
			t.Errorf("DeleteReview() by other = %v, want ErrPermissionDenied", err)
		}
		if _, err := sys.DeleteReview(ctx, p.ID, uuid.New(), as("bob")); !errors.Is(err, prompts.ErrReviewNotFound) {
			t.Errorf("DeleteReview() unknown = %v, want ErrReviewNotFound", err)
		}

		got, err := sys.DeleteReview(ctx, p.ID, reviewID, as("bob"))
		if err != nil {
			t.Fatalf("DeleteReview() error = %v", err)
		}
		if len(got.Reviews) != 0 || got.AverageRating != 0 {
			t.Errorf("reviews = %d avg = %v, want 0 and 0", len(got.Reviews), got.AverageRating)
		}
	})
}

func TestBookmarks(t *testing.T) {
	store, sys := newService(t)
	ctx := context.Background()
	p := create(t, sys, "alice", "T")
	q := create(t, sys, "alice", "U")

	t.Run("add is idempotent", func(t *testing.T) {
		for range 2 {
			if err := sys.AddBookmark(ctx, p.ID, "bob"); err != nil {
				t.Fatalf("AddBookmark() error = %v", err)
			}
		}
		if _, _, _, n := store.counts(); n != 1 {
			t.Errorf("bookmarks = %d, want 1", n)
		}
	})

	t.Run("remove non-member succeeds", func(t *testing.T) {
		if err := sys.RemoveBookmark(ctx, q.ID, "bob"); err != nil {
			t.Errorf("RemoveBookmark() error = %v", err)
		}
		if _, _, _, n := store.counts(); n != 1 {
			t.Errorf("bookmarks = %d, want 1", n)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if err := sys.AddBookmark(ctx, p.ID, "mallory"); !errors.Is(err, prompts.ErrUserNotFound) {
			t.Errorf("AddBookmark() = %v, want ErrUserNotFound", err)
		}
		if _, err := sys.Bookmarked(ctx, "mallory", firstPag); !errors.Is(err, prompts.ErrUserNotFound) {
			t.Errorf("Bookmarked() = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("unknown prompt", func(t *testing.T) {
		if err := sys.AddBookmark(ctx, uuid.New(), "bob"); !errors.Is(err, prompts.ErrNotFound) {
			t.Errorf("AddBookmark() = %v, want ErrNotFound", err)
		}
	})

	t.Run("viewer flag", func(t *testing.T) {
		tests := []struct {
			caller identity.Caller
			want   bool
		}{
			{as("bob"), true},
			{as("carol"), false},
			{identity.Anonymous(), false},
			{as("mallory"), false},
		}
		for _, tt := range tests {
			got, err := sys.Find(ctx, p.ID, tt.caller)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if got.Bookmarked != tt.want {
				t.Errorf("Bookmarked for %q = %v, want %v", tt.caller.Username, got.Bookmarked, tt.want)
			}
		}
	})

	t.Run("listing", func(t *testing.T) {
		sys.AddBookmark(ctx, q.ID, "bob")

		result, err := sys.Bookmarked(ctx, "bob", firstPag)
		if err != nil {
			t.Fatalf("Bookmarked() error = %v", err)
		}
		if result.Total != 2 || len(result.Data) != 2 {
			t.Fatalf("total = %d len = %d, want 2 2", result.Total, len(result.Data))
		}
		if result.Data[0].ID != q.ID {
			t.Error("newest prompt should come first")
		}
		for _, s := range result.Data {
			if !s.Bookmarked {
				t.Errorf("prompt %s should be marked bookmarked", s.ID)
			}
		}
	})

	t.Run("listing invalid page", func(t *testing.T) {
		_, err := sys.Bookmarked(ctx, "bob", pagination.PageRequest{Page: 0, PageSize: 0})
		if !errors.Is(err, prompts.ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestSearch(t *testing.T) {
	_, sys := newService(t)
	ctx := context.Background()

	create(t, sys, "alice", "Go concurrency", "go", "x")
	create(t, sys, "alice", "SQL joins", "sql")
	create(t, sys, "bob", "Go and SQL", "go", "sql")
	create(t, sys, "bob", "Untagged notes")

	search := func(t *testing.T, f prompts.Filters, page pagination.PageRequest) *pagination.PageResult[prompts.Summary] {
		t.Helper()
		res, err := sys.Search(ctx, prompts.SearchRequest{PageRequest: page, Filters: f}, identity.Anonymous())
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		return res
	}

	t.Run("empty filters return everything", func(t *testing.T) {
		if res := search(t, prompts.Filters{}, firstPag); res.Total != 4 {
			t.Errorf("Total = %d, want 4", res.Total)
		}
	})

	t.Run("tag filter", func(t *testing.T) {
		res := search(t, prompts.Filters{Tags: []string{" GO ", "x", ""}}, firstPag)
		if res.Total != 2 || len(res.Data) != 2 {
			t.Fatalf("Total = %d len = %d, want 2 2", res.Total, len(res.Data))
		}
		seen := make(map[uuid.UUID]bool)
		for _, s := range res.Data {
			if seen[s.ID] {
				t.Errorf("prompt %s returned twice", s.ID)
			}
			seen[s.ID] = true
			hasGoOrX := false
			for _, name := range s.Tags {
				if name == "go" || name == "x" {
					hasGoOrX = true
				}
			}
			if !hasGoOrX {
				t.Errorf("prompt %q lacks a filter tag: %v", s.Title, s.Tags)
			}
		}
	})

	t.Run("text search", func(t *testing.T) {
		if res := search(t, prompts.Filters{Search: "sql"}, firstPag); res.Total != 2 {
			t.Errorf("Total = %d, want 2", res.Total)
		}
	})

	t.Run("author", func(t *testing.T) {
		if res := search(t, prompts.Filters{Author: "bob"}, firstPag); res.Total != 2 {
			t.Errorf("Total = %d, want 2", res.Total)
		}
	})

	t.Run("paging", func(t *testing.T) {
		res := search(t, prompts.Filters{}, pagination.PageRequest{Page: 1, PageSize: 3})
		if res.Total != 4 || len(res.Data) != 1 || res.TotalPages != 2 {
			t.Errorf("total=%d len=%d pages=%d, want 4 1 2", res.Total, len(res.Data), res.TotalPages)
		}
		if res.Data[0].Title != "Go concurrency" {
			t.Errorf("last page holds %q, want the oldest prompt", res.Data[0].Title)
		}
	})

	t.Run("invalid page", func(t *testing.T) {
		tests := []pagination.PageRequest{
			{Page: -1, PageSize: 10},
			{Page: 0, PageSize: 0},
			{Page: 0, PageSize: 101},
		}
		for _, page := range tests {
			_, err := sys.Search(ctx, prompts.SearchRequest{PageRequest: page}, identity.Anonymous())
			if !errors.Is(err, prompts.ErrInvalidArgument) || !errors.Is(err, pagination.ErrInvalidPage) {
				t.Errorf("Search(%+v) error = %v, want ErrInvalidArgument", page, err)
			}
		}
	})
}

func TestFindReadsThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := cache.Config{Addr: mr.Addr(), Prefix: "test:", TTL: "1m"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	store := newMemStore()
	store.addUser("alice")
	store.addUser("bob")
	sys := prompts.NewService(store, cache.New(&cfg, discard), discard, pageCfg)
	ctx := context.Background()

	p := create(t, sys, "alice", "cached")
	key := "test:prompt:" + p.ID.String()

	for range 3 {
		if _, err := sys.Find(ctx, p.ID, identity.Anonymous()); err != nil {
			t.Fatalf("Find() error = %v", err)
		}
	}
	if !mr.Exists(key) {
		t.Fatal("Find() should populate the cache")
	}

	before := store.findPromptCalls
	if _, err := sys.Find(ctx, p.ID, identity.Anonymous()); err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if store.findPromptCalls != before {
		t.Error("cached Find() should not hit the store")
	}

	if _, err := sys.AddReview(ctx, p.ID, prompts.ReviewCommand{Rating: 5, Comment: "x"}, as("bob")); err != nil {
		t.Fatalf("AddReview() error = %v", err)
	}
	if mr.Exists(key) {
		t.Error("mutation should evict the cache entry")
	}

	got, err := sys.Find(ctx, p.ID, identity.Anonymous())
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.AverageRating != 5 {
		t.Errorf("AverageRating = %v, want 5 after eviction", got.AverageRating)
	}
}

// gatedStore holds FindPrompt until release closes or the read's own ctx ends.
type gatedStore struct {
	*memStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	reads   atomic.Int32
}

func (g *gatedStore) FindPrompt(ctx context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	g.reads.Add(1)
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.memStore.FindPrompt(ctx, id)
}

func TestFindSharedLoadSurvivesCallerCancel(t *testing.T) {
	store, sys := newService(t)
	p := create(t, sys, "alice", "shared")

	gated := &gatedStore{
		memStore: store,
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	shared := prompts.NewService(gated, cache.New(&cache.Config{}, discard), discard, pageCfg)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := shared.Find(ctx, p.ID, identity.Anonymous())
		first <- err
	}()
	<-gated.entered

	second := make(chan error, 1)
	go func() {
		_, err := shared.Find(context.Background(), p.ID, identity.Anonymous())
		second <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-first:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled Find() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled Find() kept waiting on the shared read")
	}

	close(gated.release)
	select {
	case err := <-second:
		if err != nil {
			t.Fatalf("uncancelled Find() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("uncancelled Find() did not return")
	}

	if n := gated.reads.Load(); n != 1 {
		t.Errorf("store reads = %d, want 1 shared read", n)
	}
}

// txTrackingStore counts FindPrompt calls made through the transaction's Store.
type txTrackingStore struct {
	*memStore
	inTx    bool
	txReads int
}

func (s *txTrackingStore) InTx(ctx context.Context, fn func(prompts.Store) error) error {
	return s.memStore.InTx(ctx, func(prompts.Store) error {
		s.inTx = true
		defer func() { s.inTx = false }()
		return fn(s)
	})
}

func (s *txTrackingStore) FindPrompt(ctx context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	if s.inTx {
		s.txReads++
	}
	return s.memStore.FindPrompt(ctx, id)
}

func TestAuthorCheckRunsInsideTransaction(t *testing.T) {
	mutations := []struct {
		name string
		run  func(prompts.System, uuid.UUID, identity.Caller) error
	}{
		{"update", func(sys prompts.System, id uuid.UUID, c identity.Caller) error {
			_, err := sys.Update(context.Background(), id, prompts.UpdateCommand{Title: "new", Text: "new"}, c)
			return err
		}},
		{"update tags", func(sys prompts.System, id uuid.UUID, c identity.Caller) error {
			_, err := sys.UpdateTags(context.Background(), id, []string{"go"}, c)
			return err
		}},
		{"delete", func(sys prompts.System, id uuid.UUID, c identity.Caller) error {
			return sys.Delete(context.Background(), id, c)
		}},
	}

	callers := []struct {
		name   string
		caller identity.Caller
		want   error
	}{
		{"author", as("alice"), nil},
		{"other user", as("bob"), prompts.ErrPermissionDenied},
	}

	for _, m := range mutations {
		for _, c := range callers {
			t.Run(m.name+"/"+c.name, func(t *testing.T) {
				store, sys := newService(t)
				p := create(t, sys, "alice", "guarded", "draft")

				tracked := &txTrackingStore{memStore: store}
				guarded := prompts.NewService(tracked, cache.New(&cache.Config{}, discard), discard, pageCfg)

				err := m.run(guarded, p.ID, c.caller)
				if !errors.Is(err, c.want) {
					t.Fatalf("error = %v, want %v", err, c.want)
				}
				if tracked.txReads != 1 {
					t.Errorf("FindPrompt inside transaction = %d, want 1", tracked.txReads)
				}
				if c.want != nil {
					stored, err := store.FindPrompt(context.Background(), p.ID)
					if err != nil {
						t.Fatalf("denied mutation removed the prompt: %v", err)
					}
					if stored.Title != "guarded" {
						t.Errorf("Title = %q, want unchanged", stored.Title)
					}
				}
			})
		}
	}
}

func TestSearchRejectsOverflowingPage(t *testing.T) {
	_, sys := newService(t)
	create(t, sys, "alice", "only")

	req := prompts.SearchRequest{PageRequest: pagination.PageRequest{Page: math.MaxInt / 50, PageSize: 100}}
	_, err := sys.Search(context.Background(), req, identity.Anonymous())
	if !errors.Is(err, prompts.ErrInvalidArgument) {
		t.Fatalf("Search() error = %v, want ErrInvalidArgument", err)
	}
}

// countingCache records reads and writes while reporting the given state.
type countingCache struct {
	enabled     bool
	gets, sets  atomic.Int32
	deleteCalls atomic.Int32
}

func (c *countingCache) Enabled() bool { return c.enabled }

func (c *countingCache) Get(context.Context, string, any) (bool, error) {
	c.gets.Add(1)
	return false, nil
}

func (c *countingCache) Set(context.Context, string, any) error {
	c.sets.Add(1)
	return nil
}

func (c *countingCache) Delete(context.Context, ...string) error {
	c.deleteCalls.Add(1)
	return nil
}

func (c *countingCache) Ping(context.Context) error         { return nil }
func (c *countingCache) Start(*lifecycle.Coordinator) error { return nil }

func TestFindSkipsDisabledCache(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    int32
	}{
		{"disabled", false, 0},
		{"enabled", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, sys := newService(t)
			p := create(t, sys, "alice", "cache gate")

			c := &countingCache{enabled: tt.enabled}
			gated := prompts.NewService(store, c, discard, pageCfg)
			if _, err := gated.Find(context.Background(), p.ID, identity.Anonymous()); err != nil {
				t.Fatalf("Find() error = %v", err)
			}

			if got := c.gets.Load(); got != tt.want {
				t.Errorf("cache reads = %d, want %d", got, tt.want)
			}
			if got := c.sets.Load(); got != tt.want {
				t.Errorf("cache writes = %d, want %d", got, tt.want)
			}
		})
	}
}
