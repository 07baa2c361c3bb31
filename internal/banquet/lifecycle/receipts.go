package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/money"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/remote"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/validation"
)

// ReceiptInput is a payment entered on the receipt dialog.
type ReceiptInput struct {
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	Discount  float64 `json:"discount" validate:"gte=0"`
	TDS       float64 `json:"tds" validate:"gte=0"`
	PayModeID string  `json:"paymode_id" validate:"required"`
	AccountID string  `json:"account_id" validate:"required"`
	Note      string  `json:"note" validate:"max=500"`
}

// Net is the part of the payment that settles the balance.
func (in ReceiptInput) Net() float64 {
	return in.Amount - in.Discount - in.TDS
}

var inputs = newInputValidator()

func newInputValidator() *validator.Validate {
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

// checkInput converts validator failures into violations so receipt errors
// are reported like draft errors.
func checkInput(in ReceiptInput) error {
	err := inputs.Struct(in)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var res validation.Result
	for _, fe := range fieldErrs {
		res.Violations = append(res.Violations, validation.Violation{
			Field:   "receipt_" + fe.Field(),
			Message: receiptMessage(fe),
			Target:  fmt.Sprintf("#receipt-dialog [name=\"%s\"]", fe.Field()),
		})
	}
	return &ValidationError{Result: res}
}

func receiptMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return "Please enter " + label
	case "datetime":
		return "Please enter a valid " + label
	case "gte":
		return strings.ToUpper(label[:1]) + label[1:] + " cannot be negative"
	default:
		return strings.ToUpper(label[:1]) + label[1:] + " is invalid"
	}
}

// ReceiptAllowed reports whether a new receipt can be taken at all, so the
// screen can disable the action.
func (c *Controller) ReceiptAllowed() error {
	if c.Marker().InvoiceID == "" {
		return ErrNotInvoiced
	}
	if c.Totals().Settled() {
		return ErrBalanceSettled
	}
	return nil
}

// CheckReceipt applies the balance rules to a net amount.
func (c *Controller) CheckReceipt(net float64) error {
	if err := c.ReceiptAllowed(); err != nil {
		return err
	}
	if net <= 0 {
		return ErrReceiptNotPositive
	}
	if balance := c.Totals().Balance; net > balance+money.Epsilon {
		return fmt.Errorf("%w: %s against %s", ErrReceiptExceedsBalance, money.Format(net), money.Format(balance))
	}
	return nil
}

// CreateReceipt records a payment against the invoice and refreshes the
// receipt cache from the booking service.
func (c *Controller) CreateReceipt(ctx context.Context, in ReceiptInput) error {
	if err := c.id.Check(); err != nil {
		return err
	}
	if err := checkInput(in); err != nil {
		return err
	}
	if err := c.CheckReceipt(in.Net()); err != nil {
		return c.refuse(ActionReceipt, err)
	}
	done, ok := c.gates[ActionReceipt].Begin()
	if !ok {
		return c.refuse(ActionReceipt, ErrBusy)
	}
	defer done()

	marker := c.Marker()
	form := remote.ReceiptForm{
		HotelID:     c.id.HotelID,
		UserID:      c.id.LoginID,
		QuotationID: marker.QuotationID,
		BillID:      marker.InvoiceID,
		PartyID:     c.store.Draft().Customer.Party.ID,
		Date:        in.Date,
		Amount:      in.Amount,
		Discount:    in.Discount,
		TDS:         in.TDS,
		PayModeID:   in.PayModeID,
		AccountID:   in.AccountID,
		Note:        in.Note,
	}
	started := c.now()
	err := c.svc.CreateReceipt(ctx, form)
	c.observe(ActionReceipt, started, err)
	if err != nil {
		c.logger.Error("create receipt", slog.String("quotation_id", marker.QuotationID), slog.Any("error", err))
		c.emit(Notice{Action: ActionReceipt, Message: "Receipt was not confirmed, please check and retry"})
		return fmt.Errorf("create receipt: %w", err)
	}

	if err := c.refreshReceipts(ctx, marker.QuotationID); err != nil {
		c.logger.Warn("receipt refresh failed", slog.String("quotation_id", marker.QuotationID), slog.Any("error", err))
		rs := append(c.store.Receipts(), draft.Receipt{
			Amount:   in.Amount,
			Discount: in.Discount,
			TDS:      in.TDS,
			Date:     in.Date,
			Note:     in.Note,
		})
		c.setReceipts(rs)
		c.port.SaveReceipts(ctx, marker.QuotationID, rs)
	}
	c.emit(Notice{Action: ActionReceipt, OK: true, Message: "Receipt saved"})
	return nil
}

// DeleteReceipt removes a receipt once the booking service confirms it.
func (c *Controller) DeleteReceipt(ctx context.Context, voucherID string) error {
	if err := c.id.Check(); err != nil {
		return err
	}
	marker := c.Marker()
	if marker.InvoiceID == "" {
		return c.refuse(ActionDeleteReceipt, ErrNotInvoiced)
	}
	if !slices.ContainsFunc(c.store.Receipts(), func(r draft.Receipt) bool { return r.VoucherID == voucherID }) || voucherID == "" {
		return c.refuse(ActionDeleteReceipt, ErrReceiptNotFound)
	}
	done, ok := c.gates[ActionDeleteReceipt].Begin()
	if !ok {
		return c.refuse(ActionDeleteReceipt, ErrBusy)
	}
	defer done()

	started := c.now()
	err := c.svc.DeleteReceipt(ctx, voucherID)
	c.observe(ActionDeleteReceipt, started, err)
	if err != nil {
		c.logger.Error("delete receipt", slog.String("voucher_id", voucherID), slog.Any("error", err))
		c.emit(Notice{Action: ActionDeleteReceipt, Message: "Receipt could not be deleted"})
		return fmt.Errorf("delete receipt %s: %w", voucherID, err)
	}

	c.store.RemoveReceipt(voucherID)
	c.bumpReceipts()
	c.port.SaveReceipts(ctx, marker.QuotationID, c.store.Receipts())
	if err := c.refreshReceipts(ctx, marker.QuotationID); err != nil {
		c.logger.Warn("receipt refresh failed", slog.String("quotation_id", marker.QuotationID), slog.Any("error", err))
	}
	c.emit(Notice{Action: ActionDeleteReceipt, OK: true, Message: "Receipt deleted"})
	return nil
}

// ReceiptPrint loads the printable view of one receipt of the edited quotation.
func (c *Controller) ReceiptPrint(ctx context.Context, voucherID string) (*remote.ReceiptPrint, error) {
	if err := c.id.Check(); err != nil {
		return nil, err
	}
	marker := c.Marker()
	if marker.QuotationID == "" {
		return nil, ErrNotEditing
	}
	p, err := c.svc.FetchReceiptPrint(ctx, c.id.HotelID, voucherID, marker.QuotationID)
	if err != nil {
		return nil, fmt.Errorf("receipt print %s: %w", voucherID, err)
	}
	return p, nil
}

func (c *Controller) refreshReceipts(ctx context.Context, quotationID string) error {
	q, err := c.svc.FetchQuotation(ctx, quotationID, c.id.HotelID)
	if err != nil {
		return err
	}
	rs := q.Receipts
	if rs == nil {
		rs = []draft.Receipt{}
	}
	c.setReceipts(rs)
	c.port.SaveReceipts(ctx, quotationID, rs)
	return nil
}
