package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/pkg/pagination"
)

// System defines the public contract for prompt catalog operations.
// Reads accept any caller; mutations require a registered caller and,
// where noted, ownership.
type System interface {
	Handler(maxBodyBytes int64) *Handler

	Search(ctx context.Context, req SearchRequest, caller identity.Caller) (*pagination.PageResult[Summary], error)
	Find(ctx context.Context, id uuid.UUID, caller identity.Caller) (*Summary, error)

	Create(ctx context.Context, cmd CreateCommand, caller identity.Caller) (*Summary, error)
	// Update, UpdateTags, and Delete are restricted to the prompt's author.
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand, caller identity.Caller) (*Summary, error)
	UpdateTags(ctx context.Context, id uuid.UUID, names []string, caller identity.Caller) (*Summary, error)
	Delete(ctx context.Context, id uuid.UUID, caller identity.Caller) error

	AddReview(ctx context.Context, id uuid.UUID, cmd ReviewCommand, caller identity.Caller) (*Summary, error)
	// DeleteReview is restricted to the review's author.
	DeleteReview(ctx context.Context, id, reviewID uuid.UUID, caller identity.Caller) (*Summary, error)

	AddBookmark(ctx context.Context, id uuid.UUID, username string) error
	RemoveBookmark(ctx context.Context, id uuid.UUID, username string) error
	Bookmarked(ctx context.Context, username string, page pagination.PageRequest) (*pagination.PageResult[Summary], error)
}
