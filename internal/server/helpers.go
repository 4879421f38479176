package server

import (
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode"

	"pepeboard/internal/middleware"
	"pepeboard/internal/models"
	"pepeboard/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten means a helper already sent the 400. Handlers return
// nil on it so the error handler leaves the body alone.
var errResponseWritten = errors.New("response already written")

// parseID reads a positive int64 route parameter. A bad value answers 400
// with a message named after the parameter ("postId" becomes
// "Invalid post ID") and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := validation.ParseID(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return id, nil
}

// parseDateParam reads an ISO-8601 date route parameter, which clients may
// send percent-encoded.
func parseDateParam(c *fiber.Ctx, param string) (time.Time, error) {
	raw, err := url.PathUnescape(c.Params(param))
	if err != nil {
		return time.Time{}, err
	}
	return validation.ParseISODate(raw)
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "postId" -> "post ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	// Split on camelCase boundary before the trailing "Id" suffix.
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// respondWithError writes err with the status its type maps to. Server-side
// failures are logged since their cause is not echoed to the client.
func respondWithError(c *fiber.Ctx, err error) error {
	status := models.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"error", err.Error(),
		)
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}
