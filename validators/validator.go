package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"placement/middleware"
)

// Validate is shared by every request validator. Field errors are keyed by
// the JSON field name.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

var messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"len":      "must be exactly %s characters",
	"numeric":  "must contain only digits",
	"oneof":    "must be one of: %s",
	"max":      "must be at most %s characters",
}

// FieldErrors flattens validator errors into field -> message.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, fe.Param())
		}
		out[fe.Field()] = msg
	}
	return out
}

// normalizer is implemented by requests that clean their input (trimming,
// lower-casing) before validation.
type normalizer interface {
	Normalize()
}

// Body parses the JSON body into T, validates it and stores it under
// c.Locals("validatedRequest").
func Body[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.BodyParser(req); err != nil {
			return middleware.ErrorMessage(c, fiber.StatusBadRequest, "Invalid request body!")
		}
		if n, ok := any(req).(normalizer); ok {
			n.Normalize()
		}
		if err := Validate.Struct(req); err != nil {
			return middleware.ValidationErrorResponse(c, FieldErrors(err))
		}
		c.Locals("validatedRequest", req)
		return c.Next()
	}
}

// Request returns what Body stored for this request.
func Request[T any](c *fiber.Ctx) *T {
	req, _ := c.Locals("validatedRequest").(*T)
	return req
}
