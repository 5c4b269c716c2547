package teams

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warekit/warekit/pkg/response"
)

// Handle returns the teams HTTP router. Mount it on tenant-routed paths.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.handleCreate)
	r.Get("/", s.handleList)
	r.Get("/{id}", s.handleGet)
	r.Patch("/{id}", s.handleUpdate)
	r.Delete("/{id}", s.handleDelete)

	r.Put("/{id}/members/{userID}", s.handleAddMember)
	r.Delete("/{id}/members/{userID}", s.handleRemoveMember)

	return r
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	team, err := s.Create(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, team)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.List(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSONMeta(w, http.StatusOK, list, map[string]any{"count": len(list)})
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	team, err := s.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, team)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	team, err := s.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, team)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.NoContent(w)
}

func (s *Service) handleAddMember(w http.ResponseWriter, r *http.Request) {
	team, err := s.AddMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, team)
}

func (s *Service) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	team, err := s.RemoveMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, team)
}

func (s *Service) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var valErr response.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(w, response.ErrNotFound)
	case errors.As(err, &valErr):
		response.Error(w, valErr)
	default:
		s.log.ErrorContext(r.Context(), "teams request failed", "error", err)
		response.Error(w, err)
	}
}
