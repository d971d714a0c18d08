package todo

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// MaxTitleLength bounds the title in runes.
const MaxTitleLength = 500

// CreateInput carries the fields accepted when creating a todo.
// Completed defaults to false when nil.
type CreateInput struct {
	Title     string `json:"title"`
	Completed *bool  `json:"completed,omitempty"`
}

// Validate rejects a missing or blank title.
func (in CreateInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required,
			validation.By(notBlank),
			validation.RuneLength(1, MaxTitleLength),
		),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid create todo input")
	}
	return nil
}

// CompletedOrDefault returns the requested completion state, false if unset.
func (in CreateInput) CompletedOrDefault() bool {
	return in.Completed != nil && *in.Completed
}

// UpdateInput is a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Validate rejects an explicitly empty or blank title.
func (in UpdateInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.NilOrNotEmpty,
			validation.By(notBlank),
			validation.RuneLength(1, MaxTitleLength),
		),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid update todo input")
	}
	return nil
}

// Apply copies the present fields onto t.
func (in UpdateInput) Apply(t *Todo) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
}

// IsValidation reports whether err was produced by input validation.
func IsValidation(err error) bool {
	var ge *goerrors.Error
	return errors.As(err, &ge) && ge.Category == goerrors.CategoryValidation
}

// FieldErrors extracts per-field messages from a validation error, if any.
func FieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		out[field] = ferr.Error()
	}
	return out
}

func notBlank(value any) error {
	v, _ := validation.Indirect(value)
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "must not be blank")
	}
	return nil
}
