package users

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/pkg/query"
	"github.com/JaimeStill/promptdex/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "users", "u").
	Project("id", "ID").
	Project("username", "Username").
	Project("created_at", "CreatedAt")

func scanUser(s repository.Scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Username, &u.CreatedAt)
	return u, err
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a user repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "users"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Find(ctx context.Context, username string) (*User, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Username", username)

	u, err := repository.QueryOne(ctx, r.db, q, args, scanUser)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &u, nil
}

func (r *repo) Register(ctx context.Context, caller identity.Caller) (*User, error) {
	if caller.Username == "" || utf8.RuneCountInString(caller.Username) > MaxUsernameLength {
		return nil, fmt.Errorf("%w: must be 1-%d characters", ErrInvalidUsername, MaxUsernameLength)
	}

	q := `
		INSERT INTO users(username)
		VALUES ($1)
		RETURNING id, username, created_at`

	u, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (User, error) {
		return repository.QueryOne(ctx, tx, q, []any{caller.Username}, scanUser)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("user registered", "id", u.ID, "username", u.Username)
	return &u, nil
}
