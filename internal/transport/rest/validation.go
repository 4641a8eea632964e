package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"invoice-dashboard/internal/domain"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Amounts are validated by value so numeric tags like gt=0 apply to them.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// decodeJSON decodes the body into dst and runs struct validation.
// An empty body decodes as an empty object.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
		}
		return err
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "datetime":
		return fe.Field() + " must be a YYYY-MM-DD date"
	case "dive", "oneof":
		return fe.Field() + " has an unsupported value"
	default:
		return fe.Field() + " is invalid"
	}
}

type recordPaymentRequest struct {
	InvoiceID   int64           `json:"invoice_id" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentDate string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
}

func (req recordPaymentRequest) toInput() (domain.PaymentInput, error) {
	in := domain.PaymentInput{InvoiceID: req.InvoiceID, Amount: req.Amount}
	if req.PaymentDate != "" {
		d, err := domain.ParseDate(req.PaymentDate)
		if err != nil {
			return domain.PaymentInput{}, err
		}
		in.PaymentDate = &d
	}
	return in, nil
}

type exportRequest struct {
	Fields []string `json:"fields" validate:"omitempty,dive,required"`
	AsOf   string   `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

// referenceDate reads ?as_of=YYYY-MM-DD, falling back to the handler clock.
func (h *Handler) referenceDate(r *http.Request) (domain.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if raw == "" {
		return domain.DateOf(h.now()), nil
	}
	return domain.ParseDate(raw)
}

func limitParam(r *http.Request, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer, got %q", domain.ErrInvalidArgument, raw)
	}
	return n, nil
}

func int64Param(raw, name string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidArgument, name, raw)
	}
	return n, nil
}
