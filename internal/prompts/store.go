package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/promptdex/internal/tags"
	"github.com/JaimeStill/promptdex/internal/users"
	"github.com/JaimeStill/promptdex/pkg/pagination"
)

// SearchQuery is a validated, normalized prompt query.
type SearchQuery struct {
	Page pagination.PageRequest
	// Search is matched case-insensitively against title, description, and text.
	Search string
	// Tags are canonical names; a prompt matches when it has any of them.
	Tags   []string
	Author string
	// BookmarkedBy restricts results to prompts the user bookmarked.
	BookmarkedBy *uuid.UUID
}

// Store is the persistence contract of the catalog. Lookups that find
// nothing return ErrNotFound, ErrUserNotFound, or ErrReviewNotFound.
// Prompts are returned with author, tags, and reviews loaded.
type Store interface {
	tags.Store

	FindPrompt(ctx context.Context, id uuid.UUID) (*Prompt, error)
	// SearchPrompts returns one page ordered newest first and the total
	// number of matches, read from one snapshot.
	SearchPrompts(ctx context.Context, q SearchQuery) ([]Prompt, int, error)
	FindUser(ctx context.Context, username string) (*users.User, error)
	// BookmarkedAmong returns the subset of promptIDs bookmarked by userID.
	BookmarkedAmong(ctx context.Context, userID uuid.UUID, promptIDs []uuid.UUID) ([]uuid.UUID, error)

	InsertPrompt(ctx context.Context, authorID uuid.UUID, f Fields) (uuid.UUID, error)
	UpdatePrompt(ctx context.Context, id uuid.UUID, f Fields) error
	// ReplaceTags sets the prompt's tags to exactly tagIDs.
	ReplaceTags(ctx context.Context, id uuid.UUID, tagIDs []uuid.UUID) error
	DeletePrompt(ctx context.Context, id uuid.UUID) error

	InsertReview(ctx context.Context, promptID, reviewerID uuid.UUID, cmd ReviewCommand) (uuid.UUID, error)
	FindReview(ctx context.Context, promptID, reviewID uuid.UUID) (*Review, error)
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error

	// AddBookmark is idempotent. RemoveBookmark of a missing bookmark succeeds.
	AddBookmark(ctx context.Context, userID, promptID uuid.UUID) error
	RemoveBookmark(ctx context.Context, userID, promptID uuid.UUID) error

	// InTx runs fn against a Store bound to one transaction, committing
	// when fn returns nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error
}
