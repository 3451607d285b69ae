package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// New returns the shared validator
func New() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Use json names so messages match the payload the client sent
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		// Compare decimals as numbers
		v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
			d, ok := f.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			n, _ := d.Float64()
			return n
		}, decimal.Decimal{})
		validate = v
	})
	return validate
}

// Check validates a structs exposed fields, and automatically validates nested structs, unless otherwise specified.
//
// The first failing field is returned as an InvalidArgument error wrapping a FormError
func Check(o interface{}) error {
	err := New().Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to validate %T", o)
	}
	ev := verrs[0]
	formErr := NewFormError(ev.Kind(), ev.Field(), ev.Tag(), ev.Param())
	return internal.WrapErrorf(formErr, internal.ErrorCodeInvalidArgument, "%s", formErr.Error())
}

// Var validates a single variable using tag style validation. eg. var i int validate.Var(i, "gt=1,lt=10")
func Var(o interface{}, tag string) error {
	return New().Var(o, tag)
}
