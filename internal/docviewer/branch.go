package docviewer

import "git.home.luguber.info/inful/docviewer/internal/repository"

// DefaultBranch returns the name of the first branch flagged as default.
func DefaultBranch(branches []repository.Branch) (string, bool) {
	for _, b := range branches {
		if b.Default {
			return b.Name, true
		}
	}
	return "", false
}
