package templates

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warekit/warekit/pkg/response"
)

// Handle returns the templates HTTP router. Mount it on tenant-routed paths.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.handleCreateDocument)
		r.Get("/", s.handleListDocuments)
		r.Get("/{id}", s.handleGetDocument)
		r.Put("/{id}", s.handleReplaceDocument)
		r.Delete("/{id}", s.handleDeleteDocument)
	})

	r.Route("/emails", func(r chi.Router) {
		r.Post("/", s.handleCreateEmail)
		r.Get("/", s.handleListEmails)
		r.Get("/{id}", s.handleGetEmail)
		r.Put("/{id}", s.handleReplaceEmail)
		r.Delete("/{id}", s.handleDeleteEmail)
		r.Post("/{id}/test", s.handleSendTest)
	})

	return r
}

func (s *Service) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	doc, err := s.CreateDocument(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, doc)
}

func (s *Service) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	list, err := s.ListDocuments(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSONMeta(w, http.StatusOK, list, map[string]any{"count": len(list)})
}

func (s *Service) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, doc)
}

func (s *Service) handleReplaceDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	doc, err := s.ReplaceDocument(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, doc)
}

func (s *Service) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.NoContent(w)
}

func (s *Service) handleCreateEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	tpl, err := s.CreateEmail(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, tpl)
}

func (s *Service) handleListEmails(w http.ResponseWriter, r *http.Request) {
	list, err := s.ListEmails(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSONMeta(w, http.StatusOK, list, map[string]any{"count": len(list)})
}

func (s *Service) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.GetEmail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, tpl)
}

func (s *Service) handleReplaceEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	tpl, err := s.ReplaceEmail(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, tpl)
}

func (s *Service) handleDeleteEmail(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteEmail(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.NoContent(w)
}

func (s *Service) handleSendTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SendTo string `json:"send_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	if err := s.SendTest(r.Context(), chi.URLParam(r, "id"), req.SendTo); err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *Service) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var valErr response.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(w, response.ErrNotFound)
	case errors.As(err, &valErr):
		response.Error(w, valErr)
	default:
		s.log.ErrorContext(r.Context(), "templates request failed", "error", err)
		response.Error(w, err)
	}
}
