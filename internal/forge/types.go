package forge

import (
	"context"
	"strings"
	"time"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// Type re-exports config.ForgeType for convenience within forge package.
type Type = config.ForgeType

const (
	TypeGitHub  Type = config.ForgeGitHub
	TypeGitLab  Type = config.ForgeGitLab
	TypeForgejo Type = config.ForgeForgejo
)

// Config is defined in the config package to avoid import cycles.
type Config = config.ForgeConfig

// Repository represents a repository hosted on a forge.
type Repository struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	FullName      string            `json:"full_name"` // namespace/name
	DefaultBranch string            `json:"default_branch"`
	Description   string            `json:"description"`
	Private       bool              `json:"private"`
	Archived      bool              `json:"archived"`
	Empty         bool              `json:"empty"`
	LastUpdated   time.Time         `json:"last_updated"`
	Metadata      map[string]string `json:"metadata"`
}

// Ref returns the repository reference, splitting FullName at its last slash.
func (r *Repository) Ref() repository.Ref {
	if idx := strings.LastIndex(r.FullName, "/"); idx > 0 {
		return repository.Ref{Namespace: r.FullName[:idx], Name: r.FullName[idx+1:]}
	}
	return repository.Ref{Name: r.Name}
}

// Client is the contract shared by forge platform clients. Content operations
// read the repository's default branch as reported by GetRepository.
type Client interface {
	GetType() Type
	GetName() string

	// ListRepositories returns the repositories of the given organizations, groups or users.
	ListRepositories(ctx context.Context, owners []string) ([]*Repository, error)

	// GetRepository returns repository metadata including its default branch.
	GetRepository(ctx context.Context, owner, name string) (*Repository, error)

	// ListRootEntries lists the root directory of the default branch.
	ListRootEntries(ctx context.Context, repo *Repository) ([]repository.Entry, error)

	// ReadFile returns a file from the default branch.
	ReadFile(ctx context.Context, repo *Repository, path string) ([]byte, error)

	// ListBranches lists all branches, flagging the default one.
	ListBranches(ctx context.Context, repo *Repository) ([]repository.Branch, error)
}
