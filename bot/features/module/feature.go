package module

import (
	"context"
	"time"

	"cgbot/bot/commands"
	"cgbot/docs"
)

// moduleName prefixes every documented object
const moduleName = "codingame"

// DocsSearcher finds documentation entries
type DocsSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]docs.Entry, error)
	BaseURL() string
}

// Feature links to the codingame Python module's GitHub, PyPI and docs
type Feature struct {
	githubURL string
	pypiURL   string
	docs      DocsSearcher
	now       func() time.Time
}

func NewFeature(githubURL, pypiURL string, docs DocsSearcher) *Feature {
	return &Feature{
		githubURL: githubURL,
		pypiURL:   pypiURL,
		docs:      docs,
		now:       time.Now,
	}
}

func (f *Feature) Commands() []*commands.Command {
	return []*commands.Command{
		{
			Name:        "github",
			Aliases:     []string{"gh"},
			Description: "Get the link to the GitHub of the module.",
			Category:    "Module",
			Handler:     f.handleGitHub,
		},
		{
			Name:        "pypi",
			Description: "Get the link to the PyPI page of the module.",
			Category:    "Module",
			Handler:     f.handlePyPI,
		},
		{
			Name:        "docs",
			Usage:       "[query...]",
			Description: "Get the link to the docs.",
			Help:        "Get the link to the docs, or search them when a query is given.",
			Category:    "Module",
			Handler:     f.handleDocs,
		},
	}
}
