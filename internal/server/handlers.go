package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookmarket/api/internal/client"
	"bookmarket/api/internal/domain"
	"bookmarket/api/internal/listing"
	"bookmarket/api/internal/repository"
	"bookmarket/api/internal/service"
	"bookmarket/api/internal/state"

	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// GET /api/books?minPrice=0&maxPrice=50&genre=Fiction&condition=New&sort=price-low&view=list
func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	query, err := parseBrowseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.service.Browse(r.Context(), query)
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /api/books/{id}
func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("book id must be an integer"))
		return
	}

	page, err := s.service.GetBook(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GET /api/categories
func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	home, err := s.service.Home(r.Context())
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, home)
}

// GET /api/listings/options
func (s *Server) listingOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListingOptions())
}

// POST /api/listings
func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	draft := domain.NewListingDraft()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid listing draft: "+err.Error()))
		return
	}

	receipt, err := s.service.CreateListing(r.Context(), draft)
	if err != nil {
		s.fail(w, r, err, http.StatusBadGateway)
		return
	}

	status := http.StatusCreated
	if receipt.Status == domain.PublishStatusPending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, receipt)
}

// GET /api/listings/{ticket}
func (s *Server) listingStatus(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.ListingStatus(r.Context(), r.PathValue("ticket"))
	if err != nil {
		s.fail(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// fail maps known errors to a status and falls back to fallback.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		log.Errorf("❌ %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, err)
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, state.ErrUnknownTicket):
		return http.StatusNotFound
	case errors.Is(err, listing.ErrTooManyImages):
		return http.StatusBadRequest
	case errors.Is(err, listing.ErrNotReviewStep),
		errors.Is(err, listing.ErrPublishInProgress),
		errors.Is(err, listing.ErrAlreadyPublished):
		return http.StatusConflict
	case errors.Is(err, client.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, client.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrStatusUnavailable):
		return http.StatusNotImplemented
	default:
		return fallback
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("❌ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
