package search

import (
	"errors"

	"github.com/nepaledu/edusearch/internal/models"
)

// IsValidation reports whether err is a problem with the request rather than a failed search.
// Invalid stored records are a failed search even though they carry a ValidationError.
func IsValidation(err error) bool {
	var decErr *models.DecodeError
	if errors.As(err, &decErr) {
		return false
	}
	var valErr *models.ValidationError
	return errors.As(err, &valErr) || errors.Is(err, models.ErrEmptySearch)
}

// UserMessage renders a search error the way it is shown to users.
// Validation problems are shown as-is; anything else is prefixed "Search failed: ".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsValidation(err) {
		return err.Error()
	}
	return "Search failed: " + err.Error()
}
