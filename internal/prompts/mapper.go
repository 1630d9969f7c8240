package prompts

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/promptdex/internal/tags"
)

// ReviewSummary is the outward form of a review.
type ReviewSummary struct {
	ID             uuid.UUID  `json:"id"`
	Rating         int        `json:"rating"`
	Comment        string     `json:"comment"`
	AuthorUsername string     `json:"author_username"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// Summary is the outward form of a prompt as seen by a particular viewer.
type Summary struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Text           string          `json:"prompt_text"`
	Description    string          `json:"description"`
	Model          string          `json:"target_ai_model"`
	Category       string          `json:"category"`
	AuthorUsername string          `json:"author_username"`
	CreatedAt      *time.Time      `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at"`
	AverageRating  float64         `json:"average_rating"`
	Tags           []string        `json:"tags"`
	Reviews        []ReviewSummary `json:"reviews"`
	Bookmarked     bool            `json:"bookmarked"`
}

// Viewer is the registered user a summary is assembled for.
type Viewer struct {
	UserID    uuid.UUID
	Username  string
	bookmarks map[uuid.UUID]struct{}
}

// NewViewer creates a Viewer that has bookmarked the given prompt ids.
func NewViewer(userID uuid.UUID, username string, bookmarked ...uuid.UUID) *Viewer {
	v := &Viewer{
		UserID:    userID,
		Username:  username,
		bookmarks: make(map[uuid.UUID]struct{}, len(bookmarked)),
	}
	for _, id := range bookmarked {
		v.bookmarks[id] = struct{}{}
	}
	return v
}

// HasBookmarked reports whether the viewer bookmarked the prompt.
// A nil Viewer is anonymous and has bookmarked nothing.
func (v *Viewer) HasBookmarked(promptID uuid.UUID) bool {
	if v == nil {
		return false
	}
	_, ok := v.bookmarks[promptID]
	return ok
}

// AverageRating is the mean rating of reviews, or 0 when there are none.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// ToSummary assembles the outward form of p for v, which may be nil.
func ToSummary(p Prompt, v *Viewer) Summary {
	reviews := make([]ReviewSummary, len(p.Reviews))
	for i, r := range p.Reviews {
		reviews[i] = ReviewSummary{
			ID:             r.ID,
			Rating:         r.Rating,
			Comment:        r.Comment,
			AuthorUsername: r.Reviewer.Username,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
		}
	}

	return Summary{
		ID:             p.ID,
		Title:          p.Title,
		Text:           p.Text,
		Description:    p.Description,
		Model:          p.Model,
		Category:       p.Category,
		AuthorUsername: p.Author.Username,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		AverageRating:  AverageRating(p.Reviews),
		Tags:           tags.Names(p.Tags),
		Reviews:        reviews,
		Bookmarked:     v.HasBookmarked(p.ID),
	}
}

func toSummaries(ps []Prompt, v *Viewer) []Summary {
	out := make([]Summary, len(ps))
	for i, p := range ps {
		out[i] = ToSummary(p, v)
	}
	return out
}
