package middleware

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// RequestValidator checks read API requests against their validate tags.
// Besides the stock tags it knows "column", "term" and "party", which accept
// exactly the identifiers of the domain package.
type RequestValidator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRequestValidator creates a validator with the dashboard tags registered
func NewRequestValidator(logger *slog.Logger) *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, fn := range dashboardTags {
		// Registration only fails for an empty tag or nil func.
		_ = v.RegisterValidation(tag, fn)
	}

	return &RequestValidator{
		validate: v,
		logger:   logger.With(slog.String("component", "request_validator")),
	}
}

var dashboardTags = map[string]validator.Func{
	"column": func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseColumn(fl.Field().String())
		return ok
	},
	"term": func(fl validator.FieldLevel) bool {
		return domain.TermID(fl.Field().String()).Valid()
	},
	"party": func(fl validator.FieldLevel) bool {
		return domain.Party(fl.Field().String()).Valid()
	},
}

// ValidateStruct returns a 400 APIError listing every failed field
func (v *RequestValidator) ValidateStruct(req interface{}) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	details := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	v.logger.Debug("request rejected",
		slog.String("request", fmt.Sprintf("%T", req)),
		slog.Int("failed_fields", len(details)))
	return apierrors.NewValidationErrors(details)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "column":
		return field + " must be one of: " + join(domain.MapColumns())
	case "term":
		return field + " must be one of: " + join(domain.Terms())
	case "party":
		return field + " must be one of: " + join(domain.Parties())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func join[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
