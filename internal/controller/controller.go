// Package controller holds the helpers shared by the admin and user
// controllers: id parsing, viewer lookup and error-to-status mapping.
package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/middleware"
	"github.com/lshigami/examhall/internal/policy"
	"github.com/rs/zerolog/log"
)

// StatusFor maps an error kind to its HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	e, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as an ErrorResponse. Expected outcomes carry their
// reason and message verbatim; anything else is an opaque 500.
func RespondError(ctx *gin.Context, op string, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Error().Err(err).Str("op", op).Msg("Request failed")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
		return
	}
	log.Debug().Str("op", op).Str("kind", string(e.Kind)).Str("reason", string(e.Reason)).Msg(e.Message)
	ctx.JSON(StatusFor(err), dto.ErrorResponse{
		Message:     e.Message,
		Reason:      string(e.Reason),
		ScheduledAt: e.ScheduledAt,
	})
}

// ParseID reads a positive numeric path parameter, answering 400 otherwise.
func ParseID(ctx *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 32)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + param + " format"})
		return 0, false
	}
	return uint(id), true
}

// Viewer returns the authenticated viewer, answering 401 when absent.
func Viewer(ctx *gin.Context) (policy.Viewer, bool) {
	viewer, ok := middleware.ViewerFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Authentication required"})
		return policy.Viewer{}, false
	}
	return viewer, true
}

// BindJSON binds the request body, answering 400 with the validation errors.
func BindJSON(ctx *gin.Context, op string, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		log.Warn().Err(err).Str("op", op).Msg("Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return false
	}
	return true
}
