package roles

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warekit/warekit/pkg/response"
)

// Handle returns the roles HTTP router. Mount it on tenant-routed paths.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.handleCreate)
	r.Get("/", s.handleList)
	r.Get("/{id}", s.handleGet)
	r.Patch("/{id}", s.handleUpdate)
	r.Delete("/{id}", s.handleDelete)

	r.Put("/{id}/users/{userID}", s.handleAssign)
	r.Delete("/{id}/users/{userID}", s.handleUnassign)
	r.Get("/users/{userID}", s.handleRolesForUser)

	return r
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	role, err := s.Create(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, role)
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
	role, err := s.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, role)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	role, err := s.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, role)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.NoContent(w)
}

func (s *Service) handleAssign(w http.ResponseWriter, r *http.Request) {
	a, err := s.Assign(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, a)
}

func (s *Service) handleUnassign(w http.ResponseWriter, r *http.Request) {
	if err := s.Unassign(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.NoContent(w)
}

func (s *Service) handleRolesForUser(w http.ResponseWriter, r *http.Request) {
	list, err := s.RolesForUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSONMeta(w, http.StatusOK, list, map[string]any{"count": len(list)})
}

func (s *Service) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var valErr response.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(w, response.ErrNotFound)
	case errors.Is(err, ErrDuplicateName):
		response.Error(w, response.ErrConflict)
	case errors.As(err, &valErr):
		response.Error(w, valErr)
	default:
		s.log.ErrorContext(r.Context(), "roles request failed", "error", err)
		response.Error(w, err)
	}
}
