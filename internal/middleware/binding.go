package middleware

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/gurkanbulca/projecthub/internal/apperrors"
	"github.com/gurkanbulca/projecthub/internal/models"
)

func init() {
	// Report query fields by their parameter name rather than the Go field.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// PathID parses a positive integer path parameter.
func PathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Validation("%s: %q is not a valid integer", name, raw)
	}
	if id <= 0 {
		return 0, apperrors.Validation("%s: must be greater than 0", name)
	}
	return id, nil
}

// BindJSON decodes the request body into dst. Malformed bodies are
// validation errors.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("body: field required")
		}
		return apperrors.Validation("body: %s", err.Error())
	}
	return nil
}

// BindQuery binds query parameters into dst using its form tags and
// binding rules.
func BindQuery(c *gin.Context, dst any) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return queryError(err)
	}
	return nil
}

// StatusParam reads the requested status from ?status= or, failing that,
// from a JSON body {"status": "..."}.
func StatusParam(c *gin.Context) (string, error) {
	if s := c.Query("status"); s != "" {
		return s, nil
	}

	var body models.StatusChange
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return "", nil
	}
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		return "", apperrors.Validation("body: %s", err.Error())
	}
	return body.Status, nil
}

func queryError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return joined(msgs)
	}
	return apperrors.Validation("query: %s", err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s: must be greater than or equal to %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be less than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s validation", field, fe.Tag())
	}
}
