package users

import (
	"context"

	"github.com/JaimeStill/promptdex/internal/identity"
)

// System defines the public contract for user operations.
type System interface {
	Handler() *Handler

	Find(ctx context.Context, username string) (*User, error)
	Register(ctx context.Context, caller identity.Caller) (*User, error)
}
