// Package prompts implements the prompt catalog: searchable prompts with
// author-scoped mutation, shared tags, reviews with a computed average
// rating, and per-user bookmarks.
package prompts

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/promptdex/internal/tags"
)

// Author identifies the user that owns a prompt or wrote a review.
type Author struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Review is a rating left on a prompt. It is owned by the prompt and
// removed with it.
type Review struct {
	ID        uuid.UUID  `json:"id"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment"`
	Reviewer  Author     `json:"reviewer"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Prompt is the stored aggregate: the prompt row with its author, tags, and
// reviews ordered by creation time. Timestamps may be absent.
type Prompt struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	Description string     `json:"description"`
	Model       string     `json:"model"`
	Category    string     `json:"category"`
	Author      Author     `json:"author"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	Tags        []tags.Tag `json:"tags"`
	Reviews     []Review   `json:"reviews"`
}

// Fields are the author-editable columns of a prompt.
type Fields struct {
	Title       string
	Text        string
	Description string
	Model       string
	Category    string
}

// CreateCommand carries the data needed to create a prompt.
type CreateCommand struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Text        string   `json:"text" validate:"required"`
	Description string   `json:"description" validate:"max=1000"`
	Model       string   `json:"model" validate:"max=100"`
	Category    string   `json:"category" validate:"max=100"`
	Tags        []string `json:"tags" validate:"omitempty,dive,required,max=50"`
}

// UpdateCommand carries the replacement field values for a prompt.
type UpdateCommand struct {
	Title       string `json:"title" validate:"required,max=255"`
	Text        string `json:"text" validate:"required"`
	Description string `json:"description" validate:"max=1000"`
	Model       string `json:"model" validate:"max=100"`
	Category    string `json:"category" validate:"max=100"`
}

// TagsCommand replaces the full tag set of a prompt.
type TagsCommand struct {
	Tags []string `json:"tags" validate:"dive,required,max=50"`
}

// ReviewCommand carries a new review.
type ReviewCommand struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=5000"`
}

func (c CreateCommand) fields() Fields {
	return Fields{
		Title:       c.Title,
		Text:        c.Text,
		Description: c.Description,
		Model:       c.Model,
		Category:    c.Category,
	}
}

func (c UpdateCommand) fields() Fields {
	return Fields{
		Title:       c.Title,
		Text:        c.Text,
		Description: c.Description,
		Model:       c.Model,
		Category:    c.Category,
	}
}
