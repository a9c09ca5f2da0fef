package forge

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// GitHubClient implements Client for GitHub.
type GitHubClient struct {
	*BaseForge
	config  *Config
	baseURL string
}

// NewGitHubClient creates a new GitHub client. A token is optional; anonymous
// requests are subject to lower rate limits.
func NewGitHubClient(fg *Config, opts ...Option) (*GitHubClient, error) {
	if fg.Type != config.ForgeGitHub {
		return nil, fmt.Errorf("invalid forge type for GitHub client: %s", fg.Type)
	}

	apiURL, baseURL := withDefaults(fg.APIURL, fg.BaseURL, "https://api.github.com", "https://github.com")

	baseForge := NewBaseForge(newHTTPClient30s(), apiURL, fg.Token())
	baseForge.SetCustomHeader("Accept", "application/vnd.github+json")
	baseForge.SetCustomHeader("X-GitHub-Api-Version", "2022-11-28")
	baseForge.apply(fg.Name, collect(opts))

	return &GitHubClient{
		BaseForge: baseForge,
		config:    fg,
		baseURL:   baseURL,
	}, nil
}

func (c *GitHubClient) GetType() Type { return TypeGitHub }

func (c *GitHubClient) GetName() string { return c.config.Name }

type githubRepo struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Private       bool      `json:"private"`
	DefaultBranch string    `json:"default_branch"`
	Archived      bool      `json:"archived"`
	UpdatedAt     time.Time `json:"updated_at"`
	Owner         struct {
		Login string `json:"login"`
		Type  string `json:"type"`
	} `json:"owner"`
}

type githubContent struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"` // file, dir, symlink, submodule
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

type githubBranch struct {
	Name string `json:"name"`
}

// ListRepositories returns repositories of organizations or, when no such
// organization exists, of users with that login.
func (c *GitHubClient) ListRepositories(ctx context.Context, owners []string) ([]*Repository, error) {
	var allRepos []*Repository
	for _, owner := range owners {
		repos, err := fetchJSONPages[githubRepo](ctx, c.BaseForge, fmt.Sprintf("/orgs/%s/repos?sort=updated", url.PathEscape(owner)), "per_page", 100)
		if errors.HasCategory(err, errors.CategoryNotFound) {
			repos, err = fetchJSONPages[githubRepo](ctx, c.BaseForge, fmt.Sprintf("/users/%s/repos?sort=updated", url.PathEscape(owner)), "per_page", 100)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get repositories for %s: %w", owner, err)
		}
		for i := range repos {
			allRepos = append(allRepos, c.convertGitHubRepo(&repos[i]))
		}
	}
	return allRepos, nil
}

func (c *GitHubClient) GetRepository(ctx context.Context, owner, name string) (*Repository, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, c.repoEndpoint(owner, name))
	if err != nil {
		return nil, err
	}
	var gRepo githubRepo
	if err := c.DoRequest(req, &gRepo); err != nil {
		return nil, err
	}
	return c.convertGitHubRepo(&gRepo), nil
}

// ListRootEntries lists the root of the default branch. GitHub answers 404 for
// the contents of an empty repository, which is reported as an empty listing.
func (c *GitHubClient) ListRootEntries(ctx context.Context, repo *Repository) ([]repository.Entry, error) {
	if repo.Empty {
		return nil, nil
	}
	owner, name := splitFullName(repo.FullName)
	endpoint := fmt.Sprintf("%s/contents?ref=%s", c.repoEndpoint(owner, name), url.QueryEscape(repo.DefaultBranch))
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}

	var contents []githubContent
	if err := c.DoRequest(req, &contents); err != nil {
		if errors.HasCategory(err, errors.CategoryNotFound) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]repository.Entry, 0, len(contents))
	for _, item := range contents {
		entries = append(entries, repository.Entry{Name: item.Name, Dir: item.Type != "file" && item.Type != "symlink"})
	}
	return entries, nil
}

func (c *GitHubClient) ReadFile(ctx context.Context, repo *Repository, path string) ([]byte, error) {
	owner, name := splitFullName(repo.FullName)
	endpoint := fmt.Sprintf("%s/contents/%s?ref=%s", c.repoEndpoint(owner, name), escapePath(path), url.QueryEscape(repo.DefaultBranch))
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}

	var content githubContent
	if err := c.DoRequest(req, &content); err != nil {
		return nil, err
	}
	if content.Type != "file" {
		return nil, errors.NotFoundError("path is not a file").
			WithContext("repository", repo.FullName).
			WithContext("file", path).
			Build()
	}
	if content.Encoding != "base64" {
		return nil, errors.NewError(errors.CategoryForge, "unsupported content encoding").
			WithContext("encoding", content.Encoding).
			WithContext("file", path).
			Build()
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, errors.NewError(errors.CategoryForge, "failed to decode file content").
			WithCause(err).
			WithContext("file", path).
			Build()
	}
	return data, nil
}

func (c *GitHubClient) ListBranches(ctx context.Context, repo *Repository) ([]repository.Branch, error) {
	owner, name := splitFullName(repo.FullName)
	branches, err := fetchJSONPages[githubBranch](ctx, c.BaseForge, c.repoEndpoint(owner, name)+"/branches", "per_page", 100)
	if err != nil {
		return nil, err
	}
	out := make([]repository.Branch, 0, len(branches))
	for _, b := range branches {
		out = append(out, repository.Branch{Name: b.Name, Default: b.Name == repo.DefaultBranch})
	}
	return out, nil
}

func (c *GitHubClient) repoEndpoint(owner, name string) string {
	return fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(name))
}

func (c *GitHubClient) convertGitHubRepo(gRepo *githubRepo) *Repository {
	return &Repository{
		ID:            strconv.Itoa(gRepo.ID),
		Name:          gRepo.Name,
		FullName:      gRepo.FullName,
		DefaultBranch: gRepo.DefaultBranch,
		Description:   gRepo.Description,
		Private:       gRepo.Private,
		Archived:      gRepo.Archived,
		Empty:         gRepo.DefaultBranch == "",
		LastUpdated:   gRepo.UpdatedAt,
		Metadata: map[string]string{
			"github_id":  strconv.Itoa(gRepo.ID),
			"owner":      gRepo.Owner.Login,
			"owner_type": gRepo.Owner.Type,
			"forge_name": c.GetName(),
			"web_url":    strings.TrimSuffix(c.baseURL, "/") + "/" + gRepo.FullName,
		},
	}
}

func splitFullName(fullName string) (owner, name string) {
	if idx := strings.LastIndex(fullName, "/"); idx > 0 {
		return fullName[:idx], fullName[idx+1:]
	}
	return "", fullName
}
