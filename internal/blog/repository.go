package blog

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewCategoryRecordRepository(db *bun.DB) repository.Repository[*Category] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Category]{
		NewRecord: func() *Category { return &Category{} },
		GetID: func(c *Category) uuid.UUID {
			return c.ID
		},
		SetID: func(c *Category, id uuid.UUID) {
			c.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(c *Category) string {
			return c.Name
		},
	})
}

func NewBloggerRecordRepository(db *bun.DB) repository.Repository[*Blogger] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Blogger]{
		NewRecord: func() *Blogger { return &Blogger{} },
		GetID: func(b *Blogger) uuid.UUID {
			return b.ID
		},
		SetID: func(b *Blogger, id uuid.UUID) {
			b.ID = id
		},
		GetIdentifier: func() string {
			return "short_name"
		},
		GetIdentifierValue: func(b *Blogger) string {
			return b.ShortName
		},
	})
}

// NewPostRecordRepository keys posts by route, the identifier the website
// resolves documents with.
func NewPostRecordRepository(db *bun.DB) repository.Repository[*Post] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "route"
		},
		GetIdentifierValue: func(p *Post) string {
			return p.Route
		},
	})
}
