package banquethttp

import (
	"github.com/odyssey-erp/banquet-desk/internal/banquet/datetime"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/lifecycle"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/money"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/session"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/totals"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/validation"
)

// headerPatch changes booking fields outside the item list. Absent fields
// are left alone.
type headerPatch struct {
	BillingCompanyID   *string    `json:"billing_company_id" validate:"omitempty,max=40"`
	StatusID           *string    `json:"status_id" validate:"omitempty,max=40"`
	AttendedBy         *string    `json:"attended_by" validate:"omitempty,max=120"`
	Party              *draft.Ref `json:"party"`
	Company            *draft.Ref `json:"company"`
	Function           *draft.Ref `json:"function"`
	Phone              *string    `json:"phone" validate:"omitempty,max=20"`
	Email              *string    `json:"email" validate:"omitempty,max=254"`
	Venue              *draft.Ref `json:"venue"`
	Serving            *draft.Ref `json:"serving"`
	ServingAddress     *string    `json:"serving_address" validate:"omitempty,max=500"`
	MinPeople          *string    `json:"min_people" validate:"omitempty,max=12"`
	MaxPeople          *string    `json:"max_people" validate:"omitempty,max=12"`
	OtherCharges       *string    `json:"other_charges" validate:"omitempty,max=20"`
	SettlementDiscount *string    `json:"settlement_discount" validate:"omitempty,max=20"`
}

func (p headerPatch) apply(b *draft.Booking) {
	setString(&b.BillingCompanyID, p.BillingCompanyID)
	setString(&b.StatusID, p.StatusID)
	setString(&b.AttendedBy, p.AttendedBy)
	setRef(&b.Customer.Party, p.Party)
	setRef(&b.Customer.Company, p.Company)
	setRef(&b.Customer.Function, p.Function)
	setString(&b.Customer.Phone, p.Phone)
	setString(&b.Customer.Email, p.Email)
	setRef(&b.Event.Venue, p.Venue)
	setRef(&b.Event.Serving, p.Serving)
	setString(&b.Event.ServingAddress, p.ServingAddress)
	setString(&b.Event.MinPeople, p.MinPeople)
	setString(&b.Event.MaxPeople, p.MaxPeople)
	setString(&b.OtherCharges, p.OtherCharges)
	setString(&b.SettlementDiscount, p.SettlementDiscount)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setRef(dst *draft.Ref, v *draft.Ref) {
	if v != nil {
		*dst = *v
	}
}

// momentPatch changes the date, the time or both of one booking moment.
type momentPatch struct {
	Date *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time *string `json:"time" validate:"omitempty,datetime=15:04"`
}

func (p momentPatch) apply(m datetime.Moment) datetime.Moment {
	setString(&m.Date, p.Date)
	setString(&m.Time, p.Time)
	return m
}

type beginItemRequest struct {
	Index int `json:"index" validate:"gte=-1"`
}

type saveRequest struct {
	KeepEditing bool `json:"keep_editing"`
}

type submitResponse struct {
	QuotationID string   `json:"quotation_id"`
	BillID      string   `json:"bill_id,omitempty"`
	Desk        deskView `json:"desk"`
}

type changeResponse struct {
	Changed bool     `json:"changed"`
	Desk    deskView `json:"desk"`
}

type commitResponse struct {
	Index int      `json:"index"`
	Desk  deskView `json:"desk"`
}

type validateResponse struct {
	OK         bool                   `json:"ok"`
	Violations []validation.Violation `json:"violations"`
}

type displayTotals struct {
	BillAmount    string `json:"bill_amount"`
	TotalReceived string `json:"total_received"`
	Balance       string `json:"balance"`
}

// deskView is everything the booking screen renders.
type deskView struct {
	Desk         string                      `json:"desk"`
	Phase        lifecycle.Phase             `json:"phase"`
	Dirty        bool                        `json:"dirty"`
	Edit         session.EditMarker          `json:"edit"`
	Draft        draft.Booking               `json:"draft"`
	CurrentItem  draft.Item                  `json:"current_item"`
	CurrentIndex int                         `json:"current_index"`
	Lines        []totals.Line               `json:"lines"`
	Totals       totals.Totals               `json:"totals"`
	Display      displayTotals               `json:"display"`
	Receipts     []draft.Receipt             `json:"receipts"`
	Busy         map[lifecycle.Action]string `json:"busy"`
	Notices      []lifecycle.Notice          `json:"notices,omitempty"`
}

func viewOf(d *desk, drain bool) deskView {
	c := d.ctrl
	b := c.Draft()
	t := c.Totals()
	cur, idx := c.CurrentItem()
	lines := make([]totals.Line, len(b.Items))
	for i, it := range b.Items {
		lines[i] = totals.ForItem(it)
	}
	busy := make(map[lifecycle.Action]string)
	for a, s := range c.Busy() {
		busy[a] = s.String()
	}
	v := deskView{
		Desk:         d.id,
		Phase:        c.Phase(),
		Dirty:        c.Dirty(),
		Edit:         c.Marker(),
		Draft:        b,
		CurrentItem:  cur,
		CurrentIndex: idx,
		Lines:        lines,
		Totals:       t,
		Display: displayTotals{
			BillAmount:    money.Format(t.BillAmount),
			TotalReceived: money.Format(t.TotalReceived),
			Balance:       money.Format(t.Balance),
		},
		Receipts: c.Receipts(),
		Busy:     busy,
	}
	if v.Receipts == nil {
		v.Receipts = []draft.Receipt{}
	}
	if drain {
		v.Notices = d.drain()
	}
	return v
}
