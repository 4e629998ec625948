package intent

import (
	"errors"
	"fmt"
	"strings"

	"strello/internal/orderkey"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("orderkey", func(fl validator.FieldLevel) bool {
		return orderkey.Valid(orderkey.Key(fl.Field().String()))
	}); err != nil {
		panic(fmt.Sprintf("intent: register orderkey validation: %v", err))
	}
	return v
}

// ValidationError reports an intent that must not be emitted.
type ValidationError struct {
	Kind   Kind
	Fields []string
	err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s intent: %s", e.Kind, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// Validate checks the intent's fields. It returns a *ValidationError when the
// intent is malformed.
func Validate(in Intent) error {
	if in == nil {
		return &ValidationError{Fields: []string{"intent"}, err: errors.New("nil intent")}
	}
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	verr := &ValidationError{Kind: in.Kind(), err: err}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			verr.Fields = append(verr.Fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
	} else {
		verr.Fields = []string{err.Error()}
	}
	return verr
}

// Fields describes an intent for structured logs.
func Fields(in Intent) logrus.Fields {
	return logrus.Fields{
		"intent_id": in.IntentID().String(),
		"kind":      string(in.Kind()),
		"target":    in.Target().String(),
		"timestamp": in.Millis(),
	}
}
