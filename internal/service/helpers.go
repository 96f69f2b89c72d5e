package service

import (
	"strings"

	"wallet-registry/pkg/apperror"

	"github.com/google/uuid"
)

// parseID parses a path or body identifier, reporting VAL_002 for field on failure.
func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperror.ErrInvalidID(field)
	}
	return id, nil
}

// optionalString trims s and maps the empty string to nil.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
