// Package validation checks a draft before any lifecycle transition. It never
// mutates the draft; the caller decides how to surface the result.
package validation

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/datetime"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/money"
)

// Field names reported in violations.
const (
	FieldDateRange      = "date_range"
	FieldEntryDate      = "entry_date"
	FieldEntryTime      = "entry_time"
	FieldBillingCompany = "billing_company"
	FieldAttendedBy     = "attended_by"
	FieldStatus         = "status"
	FieldPartyName      = "party_name"
	FieldCompanyName    = "company_name"
	FieldFunctionName   = "function_name"
	FieldVenue          = "venue"
	FieldServingName    = "serving_name"
	FieldMinPeople      = "min_people"
	FieldMaxPeople      = "max_people"
	FieldFromDate       = "from_date"
	FieldFromTime       = "from_time"
	FieldToDate         = "to_date"
	FieldToTime         = "to_time"
	FieldItems          = "items"
	FieldItemName       = "item_name"
	FieldItemQuantity   = "item_quantity"
	FieldItemRate       = "item_rate"
	FieldItemDiscount   = "item_discount"
)

// Violation is one failed rule. Target identifies the input to highlight.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Target  string `json:"target"`
	Index   int    `json:"index,omitempty"`
}

// Result is the ordered outcome of one validation pass.
type Result struct {
	Violations []Violation `json:"violations"`
}

// OK reports whether every rule passed.
func (r Result) OK() bool {
	return len(r.Violations) == 0
}

// First returns the violation to show the user.
func (r Result) First() (Violation, bool) {
	if len(r.Violations) == 0 {
		return Violation{}, false
	}
	return r.Violations[0], true
}

// Fields lists the violated fields in report order.
func (r Result) Fields() []string {
	out := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = v.Field
	}
	return out
}

type rule struct {
	field   string
	message string
	target  string
	failed  func(b draft.Booking) bool
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// rules are evaluated in report order.
var rules = []rule{
	{FieldDateRange, "Booking end must not be before booking start", "#booking-to-date",
		func(b draft.Booking) bool { return !datetime.RangeValid(b.From, b.To) }},
	{FieldEntryDate, "Please select entry date", "#entry-date",
		func(b draft.Booking) bool { return !b.Entry.HasDate() }},
	{FieldEntryTime, "Please select entry time", "#entry-time",
		func(b draft.Booking) bool { return !b.Entry.HasTime() }},
	{FieldBillingCompany, "Please select billing company", "#billing-company",
		func(b draft.Booking) bool { return blank(b.BillingCompanyID) }},
	{FieldAttendedBy, "Please enter attended by", "#attended-by",
		func(b draft.Booking) bool { return blank(b.AttendedBy) }},
	{FieldStatus, "Please select status", "#status",
		func(b draft.Booking) bool { return blank(b.StatusID) }},
	{FieldPartyName, "Please enter party name", "#party-name",
		func(b draft.Booking) bool { return blank(b.Customer.Party.Name) }},
	{FieldCompanyName, "Please enter company name", "#company-name",
		func(b draft.Booking) bool { return blank(b.Customer.Company.Name) }},
	{FieldFunctionName, "Please enter function name", "#function-name",
		func(b draft.Booking) bool { return blank(b.Customer.Function.Name) }},
	{FieldVenue, "Please select venue", "#venue",
		func(b draft.Booking) bool { return blank(b.Event.Venue.Name) && !b.Event.Venue.Resolved() }},
	{FieldServingName, "Please enter serving name", "#serving-name",
		func(b draft.Booking) bool { return blank(b.Event.Serving.Name) }},
	{FieldMinPeople, "Please enter minimum people", "#min-people",
		func(b draft.Booking) bool { return blank(b.Event.MinPeople) }},
	{FieldMaxPeople, "Please enter maximum people", "#max-people",
		func(b draft.Booking) bool { return blank(b.Event.MaxPeople) }},
	{FieldFromDate, "Please select booking from date", "#booking-from-date",
		func(b draft.Booking) bool { return !b.From.HasDate() }},
	{FieldFromTime, "Please select booking from time", "#booking-from-time",
		func(b draft.Booking) bool { return !b.From.HasTime() }},
	{FieldToDate, "Please select booking to date", "#booking-to-date",
		func(b draft.Booking) bool { return !b.To.HasDate() }},
	{FieldToTime, "Please select booking to time", "#booking-to-time",
		func(b draft.Booking) bool { return !b.To.HasTime() }},
	{FieldItems, "Please add at least one item", "#add-item",
		func(b draft.Booking) bool { return len(b.Items) == 0 }},
}

// Validate runs every rule against b and returns the violations in report
// order. Item completeness is checked item by item after the aggregate rule.
func Validate(b draft.Booking) Result {
	var res Result
	for _, r := range rules {
		if r.failed(b) {
			res.Violations = append(res.Violations, Violation{Field: r.field, Message: r.message, Target: r.target})
		}
	}
	for i, it := range b.Items {
		res.Violations = append(res.Violations, itemCompleteness(i, it)...)
	}
	return res
}

// ValidateItem checks an item before it is committed to the draft. Beyond
// completeness it bounds the discount by the line amount.
func ValidateItem(index int, it draft.Item) Result {
	res := Result{Violations: itemCompleteness(index, it)}
	amount := money.Num(it.Quantity) * money.Num(it.Rate)
	discount := money.Num(it.Discount)
	if discount < 0 || discount > amount+money.Epsilon {
		res.Violations = append(res.Violations, Violation{
			Field:   FieldItemDiscount,
			Message: "Discount cannot exceed the item amount",
			Target:  itemTarget(index, "discount"),
			Index:   index,
		})
	}
	return res
}

func itemCompleteness(index int, it draft.Item) []Violation {
	var out []Violation
	label := fmt.Sprintf("item %d", index+1)
	if blank(it.Name) {
		out = append(out, Violation{FieldItemName, "Please enter name for " + label, itemTarget(index, "name"), index})
	}
	if money.Num(it.Quantity) <= 0 {
		out = append(out, Violation{FieldItemQuantity, "Please enter quantity for " + label, itemTarget(index, "quantity"), index})
	}
	if blank(it.Rate) || money.Num(it.Rate) < 0 {
		out = append(out, Violation{FieldItemRate, "Please enter rate for " + label, itemTarget(index, "rate"), index})
	}
	return out
}

func itemTarget(index int, field string) string {
	return fmt.Sprintf("[data-item-index=\"%d\"] [name=\"%s\"]", index, field)
}
