package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/docviewer/internal/docviewer"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/logfields"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// EmbeddedDocumentationViewer is the embed name of the documentation viewer link.
const EmbeddedDocumentationViewer = "documentationViewer"

// RepositoryResponse is the repository resource. Embedded holds the
// documentation viewer link when one is advertised and the caller may read it.
type RepositoryResponse struct {
	Namespace string                     `json:"namespace"`
	Name      string                     `json:"name"`
	Forge     string                     `json:"forge,omitempty"`
	Embedded  map[string]*docviewer.Link `json:"_embedded,omitempty"`
}

// DocumentationViewer returns the embedded link, or nil.
func (r RepositoryResponse) DocumentationViewer() *docviewer.Link {
	return r.Embedded[EmbeddedDocumentationViewer]
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleRepository(w http.ResponseWriter, r *http.Request) {
	ref, err := repository.ParseRef(chi.URLParam(r, "*"))
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}

	forgeName := r.URL.Query().Get("forge")
	if forgeName == "" {
		forgeName = s.defaultResolver
	}
	resolver, ok := s.resolvers[forgeName]
	if !ok {
		s.errors.WriteErrorResponse(w, r, errors.NotFoundError("unknown forge").
			WithContext("forge", forgeName).
			Build())
		return
	}

	resp := RepositoryResponse{Namespace: ref.Namespace, Name: ref.Name, Forge: forgeName}
	if !s.canRead(r) {
		s.logger.DebugContext(r.Context(), "Documentation viewer omitted for unauthorized caller",
			logfields.Repository(ref.String()))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	link, found, err := resolver.Resolve(r.Context(), ref)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	if found {
		resp.Embedded = map[string]*docviewer.Link{EmbeddedDocumentationViewer: &link}
	}
	writeJSON(w, http.StatusOK, resp)
}

// canRead reports whether the request carries the configured bearer token.
// Without a configured token every caller may read.
func (s *Server) canRead(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.authToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
