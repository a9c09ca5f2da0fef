// Package git opens local git repositories (bare or with a working tree) with
// go-git and exposes them as repository.Service handles.
//
// The inspected revision is the commit HEAD points to; the branch HEAD names
// is reported as the default branch.
package git
