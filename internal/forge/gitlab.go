package forge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// GitLabClient implements Client for GitLab.
type GitLabClient struct {
	*BaseForge
	config  *Config
	baseURL string
}

// NewGitLabClient creates a new GitLab client.
func NewGitLabClient(fg *Config, opts ...Option) (*GitLabClient, error) {
	if fg.Type != config.ForgeGitLab {
		return nil, fmt.Errorf("invalid forge type for GitLab client: %s", fg.Type)
	}

	apiURL, baseURL := withDefaults(fg.APIURL, fg.BaseURL, "https://gitlab.com/api/v4", "https://gitlab.com")

	baseForge := NewBaseForge(newHTTPClient30s(), apiURL, fg.Token())
	baseForge.apply(fg.Name, collect(opts))

	return &GitLabClient{
		BaseForge: baseForge,
		config:    fg,
		baseURL:   baseURL,
	}, nil
}

func (c *GitLabClient) GetType() Type { return TypeGitLab }

func (c *GitLabClient) GetName() string { return c.config.Name }

type gitlabProject struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	Path              string    `json:"path"`
	PathWithNamespace string    `json:"path_with_namespace"`
	Description       string    `json:"description"`
	DefaultBranch     string    `json:"default_branch"`
	Visibility        string    `json:"visibility"`
	Archived          bool      `json:"archived"`
	EmptyRepo         bool      `json:"empty_repo"`
	WebURL            string    `json:"web_url"`
	LastActivityAt    time.Time `json:"last_activity_at"`
}

type gitlabTreeItem struct {
	Name string `json:"name"`
	Type string `json:"type"` // blob, tree, commit (submodule)
}

type gitlabBranch struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// ListRepositories returns projects of groups (subgroups included) or, when
// no such group exists, of users.
func (c *GitLabClient) ListRepositories(ctx context.Context, owners []string) ([]*Repository, error) {
	var allRepos []*Repository
	for _, owner := range owners {
		id := url.PathEscape(owner)
		projects, err := fetchJSONPages[gitlabProject](ctx, c.BaseForge, fmt.Sprintf("/groups/%s/projects?include_subgroups=true&order_by=last_activity_at", id), "per_page", 100)
		if errors.HasCategory(err, errors.CategoryNotFound) {
			projects, err = fetchJSONPages[gitlabProject](ctx, c.BaseForge, fmt.Sprintf("/users/%s/projects", id), "per_page", 100)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get projects for %s: %w", owner, err)
		}
		for i := range projects {
			allRepos = append(allRepos, c.convertGitLabProject(&projects[i]))
		}
	}
	return allRepos, nil
}

func (c *GitLabClient) GetRepository(ctx context.Context, owner, name string) (*Repository, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, "/projects/"+projectID(owner+"/"+name))
	if err != nil {
		return nil, err
	}
	var project gitlabProject
	if err := c.DoRequest(req, &project); err != nil {
		return nil, err
	}
	return c.convertGitLabProject(&project), nil
}

func (c *GitLabClient) ListRootEntries(ctx context.Context, repo *Repository) ([]repository.Entry, error) {
	if repo.Empty {
		return nil, nil
	}
	endpoint := fmt.Sprintf("/projects/%s/repository/tree?ref=%s", projectID(repo.FullName), url.QueryEscape(repo.DefaultBranch))
	items, err := fetchJSONPages[gitlabTreeItem](ctx, c.BaseForge, endpoint, "per_page", 100)
	if err != nil {
		if errors.HasCategory(err, errors.CategoryNotFound) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]repository.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, repository.Entry{Name: item.Name, Dir: item.Type != "blob"})
	}
	return entries, nil
}

func (c *GitLabClient) ReadFile(ctx context.Context, repo *Repository, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("/projects/%s/repository/files/%s/raw?ref=%s",
		projectID(repo.FullName), url.PathEscape(path), url.QueryEscape(repo.DefaultBranch))
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}
	return c.DoRaw(req)
}

// ListBranches uses GitLab's own default flag.
func (c *GitLabClient) ListBranches(ctx context.Context, repo *Repository) ([]repository.Branch, error) {
	branches, err := fetchJSONPages[gitlabBranch](ctx, c.BaseForge, fmt.Sprintf("/projects/%s/repository/branches", projectID(repo.FullName)), "per_page", 100)
	if err != nil {
		return nil, err
	}
	out := make([]repository.Branch, 0, len(branches))
	for _, b := range branches {
		out = append(out, repository.Branch{Name: b.Name, Default: b.Default})
	}
	return out, nil
}

// projectID encodes a namespace/name path the way GitLab expects in URLs.
func projectID(fullPath string) string {
	return url.PathEscape(fullPath)
}

func (c *GitLabClient) convertGitLabProject(p *gitlabProject) *Repository {
	return &Repository{
		ID:            strconv.Itoa(p.ID),
		Name:          p.Path,
		FullName:      p.PathWithNamespace,
		DefaultBranch: p.DefaultBranch,
		Description:   p.Description,
		Private:       p.Visibility != "public",
		Archived:      p.Archived,
		Empty:         p.EmptyRepo,
		LastUpdated:   p.LastActivityAt,
		Metadata: map[string]string{
			"gitlab_id":    strconv.Itoa(p.ID),
			"display_name": p.Name,
			"visibility":   p.Visibility,
			"forge_name":   c.GetName(),
			"web_url":      p.WebURL,
		},
	}
}
