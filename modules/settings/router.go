package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warekit/warekit/pkg/response"
)

// Handle returns the settings HTTP router. Mount it on tenant-routed paths.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/email", s.handleGetEmail)
	r.Patch("/email", s.handleUpdateEmail)
	r.Get("/s3", s.handleGetS3)
	r.Patch("/s3", s.handleUpdateS3)
	r.Get("/ecommerce", s.handleGetEcommerce)
	r.Patch("/ecommerce", s.handleUpdateEcommerce)

	return r
}

func (s *Service) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.GetEmail(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, cfg)
}

func (s *Service) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	var patch EmailPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	cfg, err := s.UpdateEmail(r.Context(), patch)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, cfg)
}

func (s *Service) handleGetS3(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.GetS3(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, cfg)
}

func (s *Service) handleUpdateS3(w http.ResponseWriter, r *http.Request) {
	var patch S3Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	cfg, err := s.UpdateS3(r.Context(), patch)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, cfg)
}

func (s *Service) handleGetEcommerce(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.GetEcommerce(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, cfg)
}

func (s *Service) handleUpdateEcommerce(w http.ResponseWriter, r *http.Request) {
	var patch EcommercePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	cfg, err := s.UpdateEcommerce(r.Context(), patch)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, cfg)
}

func (s *Service) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var valErr response.ValidationError
	switch {
	case errors.As(err, &valErr):
		response.Error(w, valErr)
	case errors.Is(err, ErrVerificationFailed):
		response.Error(w, response.ErrUnprocessable)
	default:
		s.log.ErrorContext(r.Context(), "settings request failed", "error", err)
		response.Error(w, err)
	}
}
