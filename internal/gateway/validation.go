package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"shareit/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Timestamp accepts the wire formats understood by models.ParseTime.
type Timestamp time.Time

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := models.ParseTime(raw)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

var registerOnce sync.Once

// registerValidators installs the custom rules on gin's validator engine.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("future", isFuture)
		_ = v.RegisterValidation("after", isAfterField)
	})
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func asTime(v reflect.Value) (time.Time, bool) {
	v = reflect.Indirect(v)
	if !v.IsValid() || !v.CanInterface() {
		return time.Time{}, false
	}
	switch t := v.Interface().(type) {
	case time.Time:
		return t, true
	case Timestamp:
		return time.Time(t), true
	default:
		return time.Time{}, false
	}
}

func isFuture(fl validator.FieldLevel) bool {
	t, ok := asTime(fl.Field())
	return ok && t.After(time.Now())
}

// isAfterField checks the field against the sibling named by the tag param.
// A missing sibling is left to its own required rule.
func isAfterField(fl validator.FieldLevel) bool {
	t, ok := asTime(fl.Field())
	if !ok {
		return false
	}
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return false
	}
	other, ok := asTime(parent.FieldByName(fl.Param()))
	if !ok || other.IsZero() {
		return true
	}
	return t.After(other)
}

// validationMessage renders binding errors as one client-facing line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "future":
		return fmt.Sprintf("%s must be in the future", field)
	case "after":
		return fmt.Sprintf("%s must be after %s", field, strings.ToLower(fe.Param()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
