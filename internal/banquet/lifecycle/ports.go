package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/remote"
)

// Service is the booking service as the controller uses it. *remote.Client
// satisfies it.
type Service interface {
	SearchCatalog(ctx context.Context, kind remote.Kind, term string) ([]draft.Ref, error)
	FetchQuotation(ctx context.Context, quotationID, hotelID string) (*remote.Quotation, error)
	SubmitBooking(ctx context.Context, payload remote.BookingPayload) (remote.SubmitResult, error)
	CreateReceipt(ctx context.Context, form remote.ReceiptForm) error
	DeleteReceipt(ctx context.Context, voucherID string) error
	FetchReceiptPrint(ctx context.Context, hotelID, voucherID, quotationID string) (*remote.ReceiptPrint, error)
}

var _ Service = (*remote.Client)(nil)

// Recorder receives submission outcomes.
type Recorder interface {
	ObserveSubmission(action, outcome string, elapsed time.Duration)
}

// Identity names the hotel and operator every submission is made for.
type Identity struct {
	HotelID string `json:"hotel_id"`
	LoginID string `json:"login_id"`
}

// Check reports a missing hotel or login id.
func (id Identity) Check() error {
	if strings.TrimSpace(id.HotelID) == "" {
		return ErrMissingHotelID
	}
	if strings.TrimSpace(id.LoginID) == "" {
		return ErrMissingLoginID
	}
	return nil
}

// Notice tells the screen how a submission ended.
type Notice struct {
	Action  Action `json:"action"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
