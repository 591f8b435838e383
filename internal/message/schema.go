package message

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Schema validates a candidate value. A nil error means the value has the
// expected shape. *validator.Validate satisfies it.
type Schema interface {
	Struct(s interface{}) error
}

var defaultSchema = NewSchema()

// DefaultSchema returns the shared validator used when no schema is injected.
// It is safe for concurrent use.
func DefaultSchema() Schema {
	return defaultSchema
}

// NewSchema builds a validator that reports failures by JSON field name.
func NewSchema() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
