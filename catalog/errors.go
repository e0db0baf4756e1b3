package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("catalog: not found")
	ErrDuplicateTitle = errors.New("catalog: duplicate title")
	ErrInvalid        = errors.New("catalog: invalid value")
)

type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(kind Kind, id string) error { return &NotFoundError{Kind: kind, ID: id} }

type DuplicateTitleError struct {
	Kind  Kind
	Title string
}

func (e *DuplicateTitleError) Error() string {
	return fmt.Sprintf("%s with title %q already exists", e.Kind, e.Title)
}

func (e *DuplicateTitleError) Unwrap() error { return ErrDuplicateTitle }
