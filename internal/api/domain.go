package api

import (
	"github.com/JaimeStill/promptdex/internal/prompts"
	"github.com/JaimeStill/promptdex/internal/tags"
	"github.com/JaimeStill/promptdex/internal/users"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Tags    tags.System
	Users   users.System
	Prompts prompts.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	return &Domain{
		Tags:    tags.New(db, runtime.Logger, runtime.Pagination),
		Users:   users.New(db, runtime.Logger),
		Prompts: prompts.New(db, runtime.Cache, runtime.Logger, runtime.Pagination),
	}
}
