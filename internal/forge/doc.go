// Package forge reads repositories through the REST APIs of GitHub, GitLab and
// Forgejo. Clients share HTTP plumbing in BaseForge (authentication headers,
// classified status errors, pagination, retries of transient failures) and are
// exposed to the resolver through Opener.
package forge
