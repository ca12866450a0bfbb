package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks an entity's required fields.
func Validate(e Entity) error {
	if err := structValidator().Struct(e); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError reports the first failing field as a ValidationError.
func formatValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		e := fieldErrs[0]
		switch e.Tag() {
		case "required":
			return NewValidationError(e.Field(), "is required")
		default:
			return NewValidationError(e.Field(), fmt.Sprintf("failed validation for %s", e.Tag()))
		}
	}
	return err
}

// NewEntity returns an empty entity of the given kind.
func NewEntity(kind EntityKind) (Entity, error) {
	switch kind {
	case KindSubject:
		return &Subject{}, nil
	case KindChapter:
		return &Chapter{}, nil
	case KindQuestion:
		return &Question{}, nil
	case KindVideo:
		return &Video{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

// DecodeEntities parses a stored JSON array of the given kind. Empty or null data yields
// an empty, non-nil slice. Malformed JSON or a record missing required fields fails the
// whole decode with a *DecodeError.
func DecodeEntities(kind EntityKind, data []byte) ([]Entity, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return []Entity{}, nil
	}
	switch kind {
	case KindSubject:
		return decodeList[Subject](kind, data)
	case KindChapter:
		return decodeList[Chapter](kind, data)
	case KindQuestion:
		return decodeList[Question](kind, data)
	case KindVideo:
		return decodeList[Video](kind, data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

func decodeList[T any, P interface {
	*T
	Entity
}](kind EntityKind, data []byte) ([]Entity, error) {
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &DecodeError{Kind: kind, Index: -1, Err: err}
	}
	out := make([]Entity, 0, len(list))
	for i := range list {
		e := P(&list[i])
		if err := Validate(e); err != nil {
			return nil, &DecodeError{Kind: kind, Index: i, Err: err}
		}
		out = append(out, e)
	}
	return out, nil
}

// EncodeEntities serializes entities of one kind as a JSON array.
func EncodeEntities(kind EntityKind, entities []Entity) ([]byte, error) {
	for i, e := range entities {
		if e.Kind() != kind {
			return nil, &DecodeError{Kind: kind, Index: i, Err: fmt.Errorf("entity of kind %s in %s", e.Kind(), kind)}
		}
		if err := Validate(e); err != nil {
			return nil, &DecodeError{Kind: kind, Index: i, Err: err}
		}
	}
	if entities == nil {
		entities = []Entity{}
	}
	return json.Marshal(entities)
}
