package prompts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/promptdex/internal/tags"
	"github.com/JaimeStill/promptdex/internal/users"
	"github.com/JaimeStill/promptdex/pkg/query"
	"github.com/JaimeStill/promptdex/pkg/repository"
)

var userProjection = query.
	NewProjectionMap("public", "users", "u").
	Project("id", "ID").
	Project("username", "Username").
	Project("created_at", "CreatedAt")

type pgStore struct {
	db   *sql.DB
	conn repository.Conn
	tx   *sql.Tx
}

// NewStore creates a PostgreSQL-backed Store.
func NewStore(db *sql.DB) Store {
	return &pgStore{db: db, conn: db}
}

func (s *pgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, fn(&pgStore{db: s.db, conn: tx, tx: tx})
	})
	return err
}

func (s *pgStore) FindTagByName(ctx context.Context, name string) (*tags.Tag, error) {
	if s.tx == nil {
		var t *tags.Tag
		err := s.InTx(ctx, func(st Store) (err error) {
			t, err = st.FindTagByName(ctx, name)
			return err
		})
		return t, err
	}
	return tags.TxStore(s.tx).FindTagByName(ctx, name)
}

func (s *pgStore) InsertTag(ctx context.Context, name string) (*tags.Tag, error) {
	if s.tx == nil {
		var t *tags.Tag
		err := s.InTx(ctx, func(st Store) (err error) {
			t, err = st.InsertTag(ctx, name)
			return err
		})
		return t, err
	}
	return tags.TxStore(s.tx).InsertTag(ctx, name)
}

func (s *pgStore) FindPrompt(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, s.conn, q, args, scanPrompt)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrInvalidArgument)
	}
	return &p, nil
}

type searchPage struct {
	prompts []Prompt
	total   int
}

func (s *pgStore) SearchPrompts(ctx context.Context, sq SearchQuery) ([]Prompt, int, error) {
	qb := sq.apply(query.NewBuilder(projection, defaultSort...))

	run := func(q repository.Querier) (searchPage, error) {
		var res searchPage

		countSQL, countArgs := qb.BuildCount()
		if err := q.QueryRowContext(ctx, countSQL, countArgs...).Scan(&res.total); err != nil {
			return res, fmt.Errorf("count prompts: %w", err)
		}

		pageSQL, pageArgs := qb.BuildPage(sq.Page)
		prompts, err := repository.QueryMany(ctx, q, pageSQL, pageArgs, scanPrompt)
		if err != nil {
			return res, fmt.Errorf("query prompts: %w", err)
		}
		res.prompts = prompts
		return res, nil
	}

	var (
		res searchPage
		err error
	)
	if s.tx != nil {
		res, err = run(s.tx)
	} else {
		res, err = repository.WithReadOnlyTx(ctx, s.db, func(tx *sql.Tx) (searchPage, error) {
			return run(tx)
		})
	}
	if err != nil {
		return nil, 0, err
	}
	return res.prompts, res.total, nil
}

func (s *pgStore) FindUser(ctx context.Context, username string) (*users.User, error) {
	q, args := query.NewBuilder(userProjection).BuildSingle("Username", username)

	u, err := repository.QueryOne(ctx, s.conn, q, args, func(sc repository.Scanner) (users.User, error) {
		var u users.User
		err := sc.Scan(&u.ID, &u.Username, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, repository.MapError(err, ErrUserNotFound, ErrInvalidArgument)
	}
	return &u, nil
}

func (s *pgStore) BookmarkedAmong(ctx context.Context, userID uuid.UUID, promptIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(promptIDs) == 0 {
		return nil, nil
	}

	q, args := bookmarkedAmongQuery(userID, promptIDs)
	return repository.QueryMany(ctx, s.conn, q, args, func(sc repository.Scanner) (uuid.UUID, error) {
		var id uuid.UUID
		err := sc.Scan(&id)
		return id, err
	})
}

// bookmarkedAmongQuery compares prompt_id against a uuid[] so the
// bookmarks primary key serves the lookup.
func bookmarkedAmongQuery(userID uuid.UUID, promptIDs []uuid.UUID) (string, []any) {
	q := `
		SELECT prompt_id FROM bookmarks
		WHERE user_id = $1 AND prompt_id = ANY($2::uuid[])`
	return q, []any{userID, promptIDs}
}

func (s *pgStore) InsertPrompt(ctx context.Context, authorID uuid.UUID, f Fields) (uuid.UUID, error) {
	q := `
		INSERT INTO prompts(title, prompt_text, description, target_ai_model, category, author_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id uuid.UUID
	err := s.conn.QueryRowContext(ctx, q,
		f.Title, f.Text, f.Description, f.Model, f.Category, authorID,
	).Scan(&id)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("insert prompt: %w", err)
	}
	return id, nil
}

func (s *pgStore) UpdatePrompt(ctx context.Context, id uuid.UUID, f Fields) error {
	q := `
		UPDATE prompts
		SET title = $1, prompt_text = $2, description = $3,
			target_ai_model = $4, category = $5, updated_at = now()
		WHERE id = $6`

	err := repository.ExecExpectOne(ctx, s.conn, q,
		f.Title, f.Text, f.Description, f.Model, f.Category, id,
	)
	return repository.MapError(err, ErrNotFound, ErrInvalidArgument)
}

func (s *pgStore) ReplaceTags(ctx context.Context, id uuid.UUID, tagIDs []uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, s.conn, "UPDATE prompts SET updated_at = now() WHERE id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrInvalidArgument)
	}

	if _, err := s.conn.ExecContext(ctx, "DELETE FROM prompt_tags WHERE prompt_id = $1", id); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}

	for _, tagID := range tagIDs {
		_, err := s.conn.ExecContext(ctx,
			"INSERT INTO prompt_tags(prompt_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			id, tagID,
		)
		if err != nil {
			return fmt.Errorf("link tag %s: %w", tagID, err)
		}
	}
	return nil
}

func (s *pgStore) DeletePrompt(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, s.conn, "DELETE FROM prompts WHERE id = $1", id)
	return repository.MapError(err, ErrNotFound, ErrInvalidArgument)
}

func (s *pgStore) InsertReview(ctx context.Context, promptID, reviewerID uuid.UUID, cmd ReviewCommand) (uuid.UUID, error) {
	q := `
		INSERT INTO reviews(prompt_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id uuid.UUID
	err := s.conn.QueryRowContext(ctx, q, promptID, reviewerID, cmd.Rating, cmd.Comment).Scan(&id)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("insert review: %w", err)
	}
	return id, nil
}

func (s *pgStore) FindReview(ctx context.Context, promptID, reviewID uuid.UUID) (*Review, error) {
	q := `
		SELECT r.id, r.rating, r.comment, u.id, u.username, r.created_at, r.updated_at
		FROM public.reviews r JOIN public.users u ON u.id = r.user_id
		WHERE r.id = $1 AND r.prompt_id = $2`

	r, err := repository.QueryOne(ctx, s.conn, q, []any{reviewID, promptID}, func(sc repository.Scanner) (Review, error) {
		var r Review
		err := sc.Scan(&r.ID, &r.Rating, &r.Comment, &r.Reviewer.ID, &r.Reviewer.Username, &r.CreatedAt, &r.UpdatedAt)
		return r, err
	})
	if err != nil {
		return nil, repository.MapError(err, ErrReviewNotFound, ErrInvalidArgument)
	}
	return &r, nil
}

func (s *pgStore) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, s.conn, "DELETE FROM reviews WHERE id = $1", reviewID)
	return repository.MapError(err, ErrReviewNotFound, ErrInvalidArgument)
}

func (s *pgStore) AddBookmark(ctx context.Context, userID, promptID uuid.UUID) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO bookmarks(user_id, prompt_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, promptID,
	)
	if repository.IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

func (s *pgStore) RemoveBookmark(ctx context.Context, userID, promptID uuid.UUID) error {
	_, err := s.conn.ExecContext(ctx,
		"DELETE FROM bookmarks WHERE user_id = $1 AND prompt_id = $2",
		userID, promptID,
	)
	if err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}
