// Package server exposes repository documentation metadata over HTTP.
//
// GET /api/v1/repositories/{namespace}/{name} answers with the repository
// resource. When the caller may read the repository and the repository
// advertises a documentation viewer, the resource embeds it under
// _embedded.documentationViewer.
package server
