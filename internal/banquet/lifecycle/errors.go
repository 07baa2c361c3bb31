package lifecycle

import (
	"errors"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/validation"
)

// Precondition errors.
var (
	ErrMissingHotelID = errors.New("hotel id is not configured")
	ErrMissingLoginID = errors.New("login id is not configured")
)

// Guard refusals. They are informational and never reach the network.
var (
	ErrBusy                  = errors.New("a submission of this kind is already in progress")
	ErrBalanceSettled        = errors.New("balance is fully received")
	ErrReceiptNotPositive    = errors.New("net receipt amount must be greater than zero")
	ErrReceiptExceedsBalance = errors.New("net receipt amount exceeds the balance")
	ErrNotInvoiced           = errors.New("booking has not been invoiced")
	ErrReceiptNotFound       = errors.New("receipt is not part of this booking")
	ErrNotEditing            = errors.New("no quotation is being edited")
)

// ValidationError carries the violations that blocked a transition.
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	if v, ok := e.Result.First(); ok {
		return v.Message
	}
	return "validation failed"
}

// Kind groups errors by how the desk should report them.
type Kind int

const (
	KindNone Kind = iota
	KindPrecondition
	KindValidation
	KindGuard
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPrecondition:
		return "precondition"
	case KindValidation:
		return "validation"
	case KindGuard:
		return "guard"
	default:
		return "service"
	}
}

// Classify maps err to its kind. Unknown errors count as service failures.
func Classify(err error) Kind {
	var verr *ValidationError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingHotelID), errors.Is(err, ErrMissingLoginID):
		return KindPrecondition
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, ErrBusy),
		errors.Is(err, ErrBalanceSettled),
		errors.Is(err, ErrReceiptNotPositive),
		errors.Is(err, ErrReceiptExceedsBalance),
		errors.Is(err, ErrNotInvoiced),
		errors.Is(err, ErrReceiptNotFound),
		errors.Is(err, ErrNotEditing),
		errors.Is(err, draft.ErrItemIndex):
		return KindGuard
	default:
		return KindService
	}
}
