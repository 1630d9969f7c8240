package prompts

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/JaimeStill/promptdex/pkg/pagination"
	"github.com/JaimeStill/promptdex/pkg/query"
	"github.com/JaimeStill/promptdex/pkg/repository"
)

const tagsExpr = `COALESCE((
	SELECT json_agg(json_build_object('id', t.id, 'name', t.name) ORDER BY t.name)
	FROM public.prompt_tags pt JOIN public.tags t ON t.id = pt.tag_id
	WHERE pt.prompt_id = p.id), '[]'::json)`

const reviewsExpr = `COALESCE((
	SELECT json_agg(json_build_object(
		'id', r.id,
		'rating', r.rating,
		'comment', r.comment,
		'reviewer', json_build_object('id', ru.id, 'username', ru.username),
		'created_at', r.created_at,
		'updated_at', r.updated_at
	) ORDER BY r.created_at, r.id)
	FROM public.reviews r JOIN public.users ru ON ru.id = r.user_id
	WHERE r.prompt_id = p.id), '[]'::json)`

const (
	tagFilter      = "SELECT 1 FROM public.prompt_tags ft JOIN public.tags fn ON fn.id = ft.tag_id WHERE ft.prompt_id = p.id AND fn.name = ANY($%d)"
	bookmarkFilter = "SELECT 1 FROM public.bookmarks b WHERE b.prompt_id = p.id AND b.user_id = $%d"
)

var projection = query.
	NewProjectionMap("public", "prompts", "p").
	Project("id", "ID").
	Project("title", "Title").
	Project("prompt_text", "Text").
	Project("description", "Description").
	Project("target_ai_model", "Model").
	Project("category", "Category").
	Join("public", "users", "u", "JOIN", "u.id = p.author_id").
	Project("id", "AuthorID").
	Project("username", "AuthorUsername").
	ProjectExpr("p.created_at", "CreatedAt").
	ProjectExpr("p.updated_at", "UpdatedAt").
	ProjectExpr(tagsExpr, "Tags").
	ProjectExpr(reviewsExpr, "Reviews")

var defaultSort = []query.SortField{
	{Field: "CreatedAt", Descending: true, NullsLast: true},
	{Field: "ID", Descending: true},
}

// Filters contains optional filtering criteria for prompt searches.
// Empty fields are ignored.
type Filters struct {
	Search string   `json:"search,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Author string   `json:"author,omitempty"`
}

// SearchRequest combines pagination and filter criteria.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// FiltersFromQuery extracts filter values from URL query parameters. Tags
// may repeat or be comma separated.
func FiltersFromQuery(values url.Values) Filters {
	f := Filters{
		Search: strings.TrimSpace(values.Get("search")),
		Author: strings.TrimSpace(values.Get("author")),
	}

	for _, v := range values["tags"] {
		f.Tags = append(f.Tags, strings.Split(v, ",")...)
	}

	return f
}

// apply adds the query's conditions to b.
func (q SearchQuery) apply(b *query.Builder) *query.Builder {
	b.WhereSearch(&q.Search, "Title", "Description", "Text")

	if len(q.Tags) > 0 {
		b.WhereExists(tagFilter, q.Tags)
	}
	if q.Author != "" {
		b.WhereEquals("AuthorUsername", q.Author)
	}
	if q.BookmarkedBy != nil {
		b.WhereExists(bookmarkFilter, *q.BookmarkedBy)
	}
	return b
}

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var (
		p           Prompt
		tagsJSON    []byte
		reviewsJSON []byte
	)

	err := s.Scan(
		&p.ID,
		&p.Title,
		&p.Text,
		&p.Description,
		&p.Model,
		&p.Category,
		&p.Author.ID,
		&p.Author.Username,
		&p.CreatedAt,
		&p.UpdatedAt,
		&tagsJSON,
		&reviewsJSON,
	)
	if err != nil {
		return p, err
	}

	if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
		return p, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(reviewsJSON, &p.Reviews); err != nil {
		return p, fmt.Errorf("decode reviews: %w", err)
	}
	return p, nil
}
