// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package confluencetest provides an in-memory Confluence REST API for tests.
package confluencetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// Page is a page held by the fake server.
type Page struct {
	ID      string
	Title   string
	Body    string
	Version int
}

// Attachment is an attachment held by the fake server.
type Attachment struct {
	Title   string
	Comment string
	Data    []byte
}

// Server is an httptest server speaking the subset of the Confluence REST
// API used by the client. All fields are guarded by the embedded mutex;
// use the accessor methods from tests.
type Server struct {
	*httptest.Server

	// User and Token, when set, are required as basic auth on every request.
	User, Token string

	// UpdateStatus, when non-zero, is returned for page updates instead of
	// applying them.
	UpdateStatus int

	mu          sync.Mutex
	pages       map[string]*Page
	attachments map[string][]*Attachment
	requests    []string
	uris        []string
}

// NewServer starts a fake Confluence. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		pages:       make(map[string]*Page),
		attachments: make(map[string][]*Attachment),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/content", s.searchContent)
	mux.HandleFunc("GET /rest/api/content/{id}", s.getContent)
	mux.HandleFunc("PUT /rest/api/content/{id}", s.updateContent)
	mux.HandleFunc("GET /rest/api/content/{id}/child/attachment", s.listAttachments)
	mux.HandleFunc("PUT /rest/api/content/{id}/child/attachment", s.putAttachment)

	s.Server = httptest.NewServer(s.withAuth(mux))
	return s
}

// AddPage registers a page at version 1.
func (s *Server) AddPage(id, title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[id] = &Page{ID: id, Title: title, Body: body, Version: 1}
}

// AddAttachment registers an attachment on content id.
func (s *Server) AddAttachment(id string, a Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[id] = append(s.attachments[id], &a)
}

// Page returns a copy of the page with the given id.
func (s *Server) Page(id string) (Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if !ok {
		return Page{}, false
	}
	return *p, true
}

// Attachments returns copies of the attachments on content id.
func (s *Server) Attachments(id string) []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attachment, 0, len(s.attachments[id]))
	for _, a := range s.attachments[id] {
		out = append(out, *a)
	}
	return out
}

// Requests returns "METHOD /path" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// RequestURIs returns "METHOD /path?query" for every request received.
func (s *Server) RequestURIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uris...)
}

// CountRequests returns how many received requests used method.
func (s *Server) CountRequests(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if len(r) > len(method) && r[:len(method)+1] == method+" " {
			n++
		}
	}
	return n
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.uris = append(s.uris, r.Method+" "+r.URL.RequestURI())
		s.mu.Unlock()

		if s.User != "" {
			u, p, ok := r.BasicAuth()
			if !ok || u != s.User || p != s.Token {
				http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) selfURL(id string) string {
	return s.URL + "/rest/api/content/" + id
}

func (s *Server) searchContent(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	typ := r.URL.Query().Get("type")

	s.mu.Lock()
	results := []map[string]any{}
	for _, p := range s.pages {
		if p.Title != title || (typ != "" && typ != "page") {
			continue
		}
		results = append(results, map[string]any{
			"id":     p.ID,
			"type":   "page",
			"title":  p.Title,
			"_links": map[string]string{"self": s.selfURL(p.ID)},
		})
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"results": results, "size": len(results)})
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.pages[r.PathValue("id")]
	var resp map[string]any
	if ok {
		resp = map[string]any{
			"id":      p.ID,
			"type":    "page",
			"title":   p.Title,
			"version": map[string]int{"number": p.Version},
			"body": map[string]any{
				"editor": map[string]string{"value": p.Body, "representation": "editor"},
			},
			"_links": map[string]string{"self": s.selfURL(p.ID)},
		}
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, `{"message":"no content"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) updateContent(w http.ResponseWriter, r *http.Request) {
	var update struct {
		Title   string `json:"title"`
		Type    string `json:"type"`
		Version struct {
			Number int `json:"number"`
		} `json:"version"`
		Body struct {
			Editor struct {
				Value          string `json:"value"`
				Representation string `json:"representation"`
			} `json:"editor"`
		} `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UpdateStatus != 0 {
		http.Error(w, `{"message":"update rejected"}`, s.UpdateStatus)
		return
	}
	p, ok := s.pages[r.PathValue("id")]
	if !ok {
		http.Error(w, `{"message":"no content"}`, http.StatusNotFound)
		return
	}
	if update.Version.Number != p.Version+1 {
		http.Error(w, fmt.Sprintf(`{"message":"version must be %d"}`, p.Version+1), http.StatusConflict)
		return
	}
	if update.Body.Editor.Representation != "editor" {
		http.Error(w, `{"message":"unsupported representation"}`, http.StatusBadRequest)
		return
	}
	p.Body = update.Body.Editor.Value
	p.Version = update.Version.Number
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{}`)
}

// listAttachments answers 404 for content that holds neither a page nor
// attachments, like Confluence does for unknown ids. A filename parameter
// narrows the results to that title.
func (s *Server) listAttachments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	filename := r.URL.Query().Get("filename")

	s.mu.Lock()
	_, isPage := s.pages[id]
	atts, hasAttachments := s.attachments[id]
	results := []map[string]any{}
	for i, a := range atts {
		if filename != "" && a.Title != filename {
			continue
		}
		results = append(results, map[string]any{
			"id":       "att" + id + strconv.Itoa(i),
			"title":    a.Title,
			"metadata": map[string]string{"comment": a.Comment},
			"_links":   map[string]string{"download": "/download/attachments/" + id + "/" + a.Title},
		})
	}
	s.mu.Unlock()

	if !isPage && !hasAttachments {
		http.Error(w, `{"message":"no content"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"results": results})
}

func (s *Server) putAttachment(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Atlassian-Token") != "nocheck" {
		http.Error(w, `{"message":"XSRF check failed"}`, http.StatusForbidden)
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a := &Attachment{Title: hdr.Filename, Comment: r.FormValue("comment"), Data: data}
	id := r.PathValue("id")

	s.mu.Lock()
	replaced := false
	for i, existing := range s.attachments[id] {
		if existing.Title == a.Title {
			s.attachments[id][i] = a
			replaced = true
		}
	}
	if !replaced {
		s.attachments[id] = append(s.attachments[id], a)
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"results": []map[string]string{{"title": a.Title}}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
