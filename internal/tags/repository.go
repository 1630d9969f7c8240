package tags

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/promptdex/pkg/pagination"
	"github.com/JaimeStill/promptdex/pkg/query"
	"github.com/JaimeStill/promptdex/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "tags", "t").
	Project("id", "ID").
	Project("name", "Name")

var defaultSort = query.SortField{Field: "Name"}

func scanTag(s repository.Scanner) (Tag, error) {
	var t Tag
	err := s.Scan(&t.ID, &t.Name)
	return t, err
}

type txStore struct {
	tx *sql.Tx
}

// TxStore returns a Store bound to tx. Inserts run inside a savepoint so a
// unique violation leaves tx usable for the follow-up lookup.
func TxStore(tx *sql.Tx) Store {
	return &txStore{tx: tx}
}

func (s *txStore) FindTagByName(ctx context.Context, name string) (*Tag, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Name", name)
	t, err := repository.QueryOne(ctx, s.tx, q, args, scanTag)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &t, nil
}

func (s *txStore) InsertTag(ctx context.Context, name string) (*Tag, error) {
	var t Tag
	err := repository.WithSavepoint(ctx, s.tx, "insert_tag", func() error {
		var err error
		t, err = repository.QueryOne(
			ctx, s.tx,
			"INSERT INTO tags(name) VALUES ($1) RETURNING id, name",
			[]any{name}, scanTag,
		)
		return err
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &t, nil
}

// System defines the public contract for tag browsing.
type System interface {
	Handler() *Handler
	List(ctx context.Context, page pagination.PageRequest, search string) (*pagination.PageResult[Tag], error)
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the tag browsing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "tags"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, search string) (*pagination.PageResult[Tag], error) {
	if err := page.Validate(r.pagination); err != nil {
		return nil, err
	}

	needle := Normalize(search)
	qb := query.NewBuilder(projection, defaultSort).WhereContains("Name", &needle)

	type listing struct {
		tags  []Tag
		total int
	}

	res, err := repository.WithReadOnlyTx(ctx, r.db, func(tx *sql.Tx) (listing, error) {
		var l listing
		countSQL, countArgs := qb.BuildCount()
		if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&l.total); err != nil {
			return l, fmt.Errorf("count tags: %w", err)
		}

		pageSQL, pageArgs := qb.BuildPage(page)
		tags, err := repository.QueryMany(ctx, tx, pageSQL, pageArgs, scanTag)
		if err != nil {
			return l, fmt.Errorf("query tags: %w", err)
		}
		l.tags = tags
		return l, nil
	})
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(res.tags, res.total, page.Page, page.PageSize)
	return &result, nil
}
