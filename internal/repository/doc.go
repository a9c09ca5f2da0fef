// Package repository defines the repository-access contracts the documentation
// resolver consumes (root listing, file reads, branch listing) and the glob filter
// used to select repositories for batch scans.
//
// Implementations live in internal/git (local go-git storage) and internal/forge
// (forge REST APIs).
package repository
