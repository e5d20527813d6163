package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pantau/pantau/internal/domain"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains error details.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Result is the {success, message, data} envelope used by the page scripts.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PaginationMeta contains pagination metadata.
type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PaginatedResponse wraps data with pagination metadata.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// AsDomainError returns err as a DomainError, wrapping unknown errors as
// internal ones.
func AsDomainError(err error) *domain.DomainError {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de
	}
	return domain.NewInternalError(err)
}

// Status returns the HTTP status for err.
func Status(err error) int {
	return mapErrorCodeToStatus(AsDomainError(err).Code)
}

// Error sends an error response based on the domain error.
func Error(w http.ResponseWriter, err error) {
	domainErr := AsDomainError(err)
	JSON(w, mapErrorCodeToStatus(domainErr.Code), ErrorResponse{
		Error: ErrorBody{
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Context: domainErr.Context,
		},
	})
}

// Fail sends a {success:false} result with the status and message of err.
func Fail(w http.ResponseWriter, err error) {
	domainErr := AsDomainError(err)
	JSON(w, mapErrorCodeToStatus(domainErr.Code), Result{Success: false, Message: domainErr.Message})
}

// Success sends a {success:true} result.
func Success(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusOK, Result{Success: true, Message: message, Data: data})
}

// Paginated sends a paginated JSON response.
func Paginated(w http.ResponseWriter, data interface{}, page, perPage, total int) {
	totalPages := 0
	if perPage > 0 {
		totalPages = total / perPage
		if total%perPage > 0 {
			totalPages++
		}
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data: data,
		Pagination: PaginationMeta{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// OK sends a 200 OK response with JSON body.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

func mapErrorCodeToStatus(code domain.ErrorCode) int {
	switch code {
	case domain.ErrCodeNotFound, domain.ErrCodeFileNotFound:
		return http.StatusNotFound
	case domain.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
