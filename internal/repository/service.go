package repository

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
)

// Ref identifies a repository as namespace/name.
type Ref struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

func (r Ref) String() string {
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "/" + r.Name
}

// ParseRef parses "namespace/name". Nested namespaces (GitLab subgroups) keep
// everything before the last slash as the namespace.
func ParseRef(s string) (Ref, error) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	idx := strings.LastIndex(s, "/")
	if idx <= 0 || idx == len(s)-1 {
		return Ref{}, errors.ValidationError(fmt.Sprintf("invalid repository reference %q, expected namespace/name", s)).Build()
	}
	return Ref{Namespace: s[:idx], Name: s[idx+1:]}, nil
}

// Entry is a direct child of the repository root on the inspected revision.
type Entry struct {
	Name string `json:"name"`
	Dir  bool   `json:"dir"`
}

// Branch is a repository branch; at most one is expected to be the default.
type Branch struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// Service is a per-invocation handle to one repository. Implementations must be
// closed by the caller on every exit path.
type Service interface {
	// ListRootEntries lists the root of the inspected revision (the default branch).
	ListRootEntries(ctx context.Context) ([]Entry, error)

	// ReadFile returns the full content of a repository-relative file on the inspected revision.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// ListBranches returns all branches, flagging the default branch.
	ListBranches(ctx context.Context) ([]Branch, error)

	Close() error
}

// Opener creates Service handles. Implementations must be safe for concurrent use.
type Opener interface {
	Open(ctx context.Context, ref Ref) (Service, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, ref Ref) (Service, error)

// Open calls f(ctx, ref).
func (f OpenerFunc) Open(ctx context.Context, ref Ref) (Service, error) {
	return f(ctx, ref)
}
