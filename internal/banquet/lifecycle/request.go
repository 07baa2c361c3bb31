package lifecycle

import (
	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/money"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/remote"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/totals"
)

// Request is one kind of booking submission. The controller picks the
// variant from its current state; callers never name it.
type Request interface {
	Action() Action
	Build(id Identity, b draft.Booking) remote.BookingPayload
}

// SaveDraft saves the booking as a quotation. An empty QuotationID creates one.
type SaveDraft struct {
	QuotationID string
}

// CreateInvoice promotes the booking to a new invoice.
type CreateInvoice struct {
	QuotationID string
}

// ModifyInvoice updates an existing invoice.
type ModifyInvoice struct {
	QuotationID string
	BillID      string
}

func (SaveDraft) Action() Action     { return ActionSave }
func (CreateInvoice) Action() Action { return ActionInvoice }
func (ModifyInvoice) Action() Action { return ActionInvoice }

func (r SaveDraft) Build(id Identity, b draft.Booking) remote.BookingPayload {
	return buildPayload(id, b, r.QuotationID, remote.FlagQuotation, "0")
}

func (r CreateInvoice) Build(id Identity, b draft.Booking) remote.BookingPayload {
	return buildPayload(id, b, r.QuotationID, remote.FlagInvoice, "0")
}

func (r ModifyInvoice) Build(id Identity, b draft.Booking) remote.BookingPayload {
	return buildPayload(id, b, r.QuotationID, remote.FlagInvoice, r.BillID)
}

func buildPayload(id Identity, b draft.Booking, quotationID, flag, billID string) remote.BookingPayload {
	t := totals.ForBooking(b, nil)
	event := remote.EventBlock{
		VenueID:        b.Event.Venue.ID,
		VenueName:      b.Event.Venue.Name,
		ServingID:      b.Event.Serving.ID,
		ServingName:    b.Event.Serving.Name,
		ServingAddress: b.Event.ServingAddress,
		MinPax:         b.Event.MinPeople,
		MaxPax:         b.Event.MaxPeople,
		FromDate:       b.From.Date,
		FromTime:       b.From.Time,
		ToDate:         b.To.Date,
		ToTime:         b.To.Time,
		MenuItems:      make([]remote.MenuItemLine, 0, len(b.Items)),
		EventMenus:     []remote.EventMenu{},
	}
	for i, it := range b.Items {
		line := totals.ForItem(it)
		event.MenuItems = append(event.MenuItems, remote.MenuItemLine{
			Date:       it.Date,
			Name:       it.Name,
			Unit:       it.Unit,
			Quantity:   money.Num(it.Quantity),
			Rate:       money.Num(it.Rate),
			Amount:     line.Amount,
			Discount:   line.Discount,
			Taxable:    line.Taxable,
			TaxName:    it.TaxName,
			TaxPercent: money.Num(it.TaxPercent),
			TaxAmount:  line.TaxAmount,
			Total:      line.Total,
			Note:       it.Note,
			PackageID:  it.PackageID,
		})
		for _, m := range it.MenuList() {
			event.EventMenus = append(event.EventMenus, remote.EventMenu{
				ItemIndex:    i,
				ItemName:     it.Name,
				PackageID:    it.PackageID,
				CategoryID:   m.CategoryID,
				CategoryName: m.CategoryName,
				MenuID:       m.MenuID,
				MenuName:     m.MenuName,
			})
		}
	}
	return remote.BookingPayload{
		HotelID:            id.HotelID,
		UserID:             id.LoginID,
		QuotationID:        quotationID,
		InvoiceFlag:        flag,
		BillID:             billID,
		EntryDate:          b.Entry.Date,
		EntryTime:          b.Entry.Time,
		FromDate:           b.From.Date,
		FromTime:           b.From.Time,
		ToDate:             b.To.Date,
		ToTime:             b.To.Time,
		BillingCompanyID:   b.BillingCompanyID,
		StatusID:           b.StatusID,
		AttendedBy:         b.AttendedBy,
		PartyID:            b.Customer.Party.ID,
		PartyName:          b.Customer.Party.Name,
		CompanyID:          b.Customer.Company.ID,
		CompanyName:        b.Customer.Company.Name,
		FunctionID:         b.Customer.Function.ID,
		FunctionName:       b.Customer.Function.Name,
		Phone:              b.Customer.Phone,
		Email:              b.Customer.Email,
		Events:             []remote.EventBlock{event},
		SubTotal:           t.SubTotal,
		TotalDiscount:      t.TotalDiscount,
		Taxable:            t.Taxable,
		TaxAmount:          t.TaxAmount,
		OtherCharges:       t.OtherCharges,
		SettlementDiscount: t.SettlementDiscount,
		RoundOff:           t.RoundOff,
		BillAmount:         t.BillAmount,
	}
}
