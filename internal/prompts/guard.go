package prompts

import (
	"fmt"

	"github.com/JaimeStill/promptdex/internal/users"
)

// CanMutate reports whether actor owns p. A nil actor never does.
func CanMutate(p *Prompt, actor *users.User) bool {
	return actor != nil && p != nil && actor.ID == p.Author.ID
}

func authorize(p *Prompt, actor *users.User) error {
	if !CanMutate(p, actor) {
		return fmt.Errorf("%w: prompt %s", ErrPermissionDenied, p.ID)
	}
	return nil
}
