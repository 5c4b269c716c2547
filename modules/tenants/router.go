package tenants

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warekit/warekit/pkg/response"
)

// Handle returns the tenants HTTP router. Mount it under a central path
// prefix — these endpoints operate on the central database.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.handleProvision)
	r.Get("/", s.handleList)
	r.Get("/{id}", s.handleGet)
	r.Patch("/{id}", s.handleUpdate)
	r.Put("/{id}/connection", s.handleUpdateConnection)
	r.Delete("/{id}", s.handleDelete)

	return r
}

func (s *Service) handleProvision(w http.ResponseWriter, r *http.Request) {
	var req ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	t, err := s.Provision(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, t)
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
	id, err := pathID(r)
	if err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	t, err := s.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	t, err := s.Update(r.Context(), id, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (s *Service) handleUpdateConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	var req ConnectionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	rec, err := s.UpdateConnection(r.Context(), id, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, rec)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	if err := s.Delete(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.NoContent(w)
}

func (s *Service) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var valErr response.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(w, response.ErrNotFound)
	case errors.As(err, &valErr):
		response.Error(w, valErr)
	default:
		s.log.ErrorContext(r.Context(), "tenants request failed", "error", err)
		response.Error(w, err)
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid tenant id")
	}
	return id, nil
}
