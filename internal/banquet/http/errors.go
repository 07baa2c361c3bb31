package banquethttp

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/lifecycle"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/validation"
	"github.com/odyssey-erp/banquet-desk/internal/platform/httpx"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and checks its struct tags. Tag failures
// come back as a lifecycle.ValidationError so they render like draft errors.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return err
	}
	err := h.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	var res validation.Result
	for _, fe := range fieldErrs {
		res.Violations = append(res.Violations, validation.Violation{
			Field:   fe.Field(),
			Message: fe.Field() + " is invalid",
			Target:  `[name="` + fe.Field() + `"]`,
		})
	}
	return &lifecycle.ValidationError{Result: res}
}

// fail renders err as a problem document.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, httpx.ErrNotFound) || errors.Is(err, httpx.ErrBadRequest) {
		httpx.RespondError(w, err)
		return
	}
	switch lifecycle.Classify(err) {
	case lifecycle.KindPrecondition:
		httpx.Problem(w, http.StatusPreconditionFailed, "Desk Not Configured", err.Error())
	case lifecycle.KindValidation:
		var verr *lifecycle.ValidationError
		errors.As(err, &verr)
		httpx.ProblemWith(w, httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: err.Error(),
			Errors: verr.Result.Violations,
		})
	case lifecycle.KindGuard:
		httpx.Problem(w, http.StatusConflict, "Not Allowed", err.Error())
	default:
		h.logger.Warn("booking service call failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Booking Service Unavailable", err.Error())
	}
}
