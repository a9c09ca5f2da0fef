// Package docviewer decides whether a repository advertises a documentation
// viewer and computes the link (branch, base path, landing page) for it.
//
// The decision is driven by an optional documentation.yaml or documentation.yml
// at the root of the repository's default branch. Absence of a link is a normal
// result; only repository access failures are returned as errors.
package docviewer
