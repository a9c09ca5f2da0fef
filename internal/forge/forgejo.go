package forge

import (
	"context"
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

// ForgejoClient implements Client for Forgejo (Gitea-compatible API).
type ForgejoClient struct {
	*BaseForge
	config  *Config
	baseURL string
}

// NewForgejoClient creates a new Forgejo client. Forgejo has no public default
// instance, so the API URL is required.
func NewForgejoClient(fg *Config, opts ...Option) (*ForgejoClient, error) {
	if fg.Type != config.ForgeForgejo {
		return nil, fmt.Errorf("invalid forge type for Forgejo client: %s", fg.Type)
	}
	if fg.APIURL == "" {
		return nil, errors.ConfigError("forgejo client requires api_url").
			WithContext("name", fg.Name).
			Build()
	}

	baseForge := NewBaseForge(newHTTPClient30s(), fg.APIURL, fg.Token())
	// Forgejo uses "token " auth prefix instead of "Bearer "
	baseForge.SetAuthHeaderPrefix("token ")
	baseForge.apply(fg.Name, collect(opts))

	return &ForgejoClient{
		BaseForge: baseForge,
		config:    fg,
		baseURL:   fg.BaseURL,
	}, nil
}

func (c *ForgejoClient) GetType() Type { return TypeForgejo }

func (c *ForgejoClient) GetName() string {
	if c == nil || c.config == nil {
		return ""
	}
	return c.config.Name
}

type forgejoRepo struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Private       bool      `json:"private"`
	Fork          bool      `json:"fork"`
	Empty         bool      `json:"empty"`
	DefaultBranch string    `json:"default_branch"`
	Archived      bool      `json:"archived"`
	HTMLURL       string    `json:"html_url"`
	UpdatedAt     time.Time `json:"updated_at"`
	Owner         struct {
		Username string `json:"username"`
	} `json:"owner"`
}

type forgejoContent struct {
	Name string `json:"name"`
	Type string `json:"type"` // file, dir, symlink, submodule
}

type forgejoBranch struct {
	Name string `json:"name"`
}

// ListRepositories returns repositories of organizations or, when no such
// organization exists, of users.
func (c *ForgejoClient) ListRepositories(ctx context.Context, owners []string) ([]*Repository, error) {
	var allRepos []*Repository
	for _, owner := range owners {
		repos, err := fetchJSONPages[forgejoRepo](ctx, c.BaseForge, fmt.Sprintf("/orgs/%s/repos", url.PathEscape(owner)), "limit", 50)
		if errors.HasCategory(err, errors.CategoryNotFound) {
			repos, err = fetchJSONPages[forgejoRepo](ctx, c.BaseForge, fmt.Sprintf("/users/%s/repos", url.PathEscape(owner)), "limit", 50)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get repositories for %s: %w", owner, err)
		}
		for i := range repos {
			allRepos = append(allRepos, c.convertForgejoRepo(&repos[i]))
		}
	}
	return allRepos, nil
}

func (c *ForgejoClient) GetRepository(ctx context.Context, owner, name string) (*Repository, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, c.repoEndpoint(owner, name))
	if err != nil {
		return nil, err
	}
	var fRepo forgejoRepo
	if err := c.DoRequest(req, &fRepo); err != nil {
		return nil, err
	}
	return c.convertForgejoRepo(&fRepo), nil
}

func (c *ForgejoClient) ListRootEntries(ctx context.Context, repo *Repository) ([]repository.Entry, error) {
	if repo.Empty {
		return nil, nil
	}
	owner, name := splitFullName(repo.FullName)
	endpoint := fmt.Sprintf("%s/contents?ref=%s", c.repoEndpoint(owner, name), url.QueryEscape(repo.DefaultBranch))
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}

	var contents []forgejoContent
	if err := c.DoRequest(req, &contents); err != nil {
		return nil, err
	}
	entries := make([]repository.Entry, 0, len(contents))
	for _, item := range contents {
		entries = append(entries, repository.Entry{Name: item.Name, Dir: item.Type != "file" && item.Type != "symlink"})
	}
	return entries, nil
}

func (c *ForgejoClient) ReadFile(ctx context.Context, repo *Repository, path string) ([]byte, error) {
	owner, name := splitFullName(repo.FullName)
	endpoint := fmt.Sprintf("%s/raw/%s?ref=%s", c.repoEndpoint(owner, name), escapePath(path), url.QueryEscape(repo.DefaultBranch))
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}
	return c.DoRaw(req)
}

func (c *ForgejoClient) ListBranches(ctx context.Context, repo *Repository) ([]repository.Branch, error) {
	owner, name := splitFullName(repo.FullName)
	branches, err := fetchJSONPages[forgejoBranch](ctx, c.BaseForge, c.repoEndpoint(owner, name)+"/branches", "limit", 50)
	if err != nil {
		return nil, err
	}
	out := make([]repository.Branch, 0, len(branches))
	for _, b := range branches {
		out = append(out, repository.Branch{Name: b.Name, Default: b.Name == repo.DefaultBranch})
	}
	return out, nil
}

func (c *ForgejoClient) repoEndpoint(owner, name string) string {
	return fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(name))
}

func (c *ForgejoClient) convertForgejoRepo(fRepo *forgejoRepo) *Repository {
	webURL := fRepo.HTMLURL
	if webURL == "" && c.baseURL != "" {
		webURL = strings.TrimSuffix(c.baseURL, "/") + "/" + fRepo.FullName
	}
	return &Repository{
		ID:            strconv.Itoa(fRepo.ID),
		Name:          fRepo.Name,
		FullName:      fRepo.FullName,
		DefaultBranch: fRepo.DefaultBranch,
		Description:   fRepo.Description,
		Private:       fRepo.Private,
		Archived:      fRepo.Archived,
		Empty:         fRepo.Empty,
		LastUpdated:   fRepo.UpdatedAt,
		Metadata: map[string]string{
			"forgejo_id": strconv.Itoa(fRepo.ID),
			"owner":      fRepo.Owner.Username,
			"fork":       strconv.FormatBool(fRepo.Fork),
			"forge_name": c.GetName(),
			"web_url":    webURL,
		},
	}
}
