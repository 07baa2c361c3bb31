// Package draft owns the in-memory booking being composed on the desk.
package draft

import (
	"maps"
	"slices"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/datetime"
)

// Ref is a catalog reference. An empty ID marks a name-only entry that the
// booking service resolves on its side.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolved reports whether the reference carries a catalog id.
func (r Ref) Resolved() bool {
	return r.ID != "" && r.ID != "0"
}

// Customer groups the party side of a booking.
type Customer struct {
	Party    Ref    `json:"party"`
	Company  Ref    `json:"company"`
	Function Ref    `json:"function"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// Event groups venue and serving details.
type Event struct {
	Venue          Ref    `json:"venue"`
	Serving        Ref    `json:"serving"`
	ServingAddress string `json:"serving_address"`
	MinPeople      string `json:"min_people"`
	MaxPeople      string `json:"max_people"`
}

// Menu is the menu chosen for one category of a package item.
type Menu struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	MenuID       string `json:"menu_id"`
	MenuName     string `json:"menu_name"`
}

// Item is one billable line. Numeric fields hold raw user input and are
// coerced with money.Num wherever arithmetic happens.
type Item struct {
	Date          string          `json:"date"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Quantity      string          `json:"quantity"`
	Rate          string          `json:"rate"`
	Discount      string          `json:"discount"`
	TaxPercent    string          `json:"tax_percent"`
	TaxName       string          `json:"tax_name"`
	Note          string          `json:"note"`
	PackageID     string          `json:"package_id,omitempty"`
	SelectedMenus map[string]Menu `json:"selected_menus,omitempty"`
}

// Clone returns a deep copy.
func (it Item) Clone() Item {
	it.SelectedMenus = maps.Clone(it.SelectedMenus)
	return it
}

// SelectMenu records the menu for its category, replacing any earlier choice.
func (it *Item) SelectMenu(m Menu) {
	if it.SelectedMenus == nil {
		it.SelectedMenus = make(map[string]Menu)
	}
	it.SelectedMenus[m.CategoryID] = m
}

// MenuList returns the selected menus ordered by category id.
func (it Item) MenuList() []Menu {
	keys := slices.Sorted(maps.Keys(it.SelectedMenus))
	out := make([]Menu, 0, len(keys))
	for _, k := range keys {
		out = append(out, it.SelectedMenus[k])
	}
	return out
}

// Booking is the draft of a quotation.
type Booking struct {
	Entry              datetime.Moment `json:"entry"`
	From               datetime.Moment `json:"from"`
	To                 datetime.Moment `json:"to"`
	BillingCompanyID   string          `json:"billing_company_id"`
	StatusID           string          `json:"status_id"`
	AttendedBy         string          `json:"attended_by"`
	Customer           Customer        `json:"customer"`
	Event              Event           `json:"event"`
	Items              []Item          `json:"items"`
	OtherCharges       string          `json:"other_charges"`
	SettlementDiscount string          `json:"settlement_discount"`
}

// Clone returns a deep copy.
func (b Booking) Clone() Booking {
	if b.Items != nil {
		items := make([]Item, len(b.Items))
		for i, it := range b.Items {
			items[i] = it.Clone()
		}
		b.Items = items
	}
	return b
}

// Receipt is a payment recorded against an invoice by the booking service.
type Receipt struct {
	VoucherID string  `json:"voucher_id"`
	Amount    float64 `json:"amount"`
	Discount  float64 `json:"discount"`
	TDS       float64 `json:"tds"`
	Date      string  `json:"date"`
	PayMode   string  `json:"pay_mode"`
	Account   string  `json:"account"`
	Note      string  `json:"note,omitempty"`
}

// Net is the amount that actually settles the balance.
func (r Receipt) Net() float64 {
	return r.Amount - r.Discount - r.TDS
}
