package remote

// Invoice flag values carried by BookingPayload.InvoiceFlag.
const (
	FlagQuotation = "0"
	FlagInvoice   = "1"
)

// BookingPayload is the single submission document for saving a quotation,
// creating an invoice and modifying an invoice. The booking service tells
// them apart by InvoiceFlag and BillID.
type BookingPayload struct {
	HotelID     string `json:"hotel_id"`
	UserID      string `json:"login_id"`
	QuotationID string `json:"quotation_id"`
	InvoiceFlag string `json:"invoice_flag"`
	BillID      string `json:"bill_id"`

	EntryDate string `json:"entry_date"`
	EntryTime string `json:"entry_time"`
	FromDate  string `json:"booking_from_date"`
	FromTime  string `json:"booking_from_time"`
	ToDate    string `json:"booking_to_date"`
	ToTime    string `json:"booking_to_time"`

	BillingCompanyID string `json:"billing_company_id"`
	StatusID         string `json:"status_id"`
	AttendedBy       string `json:"attended_by"`

	PartyID      string `json:"party_id"`
	PartyName    string `json:"party_name"`
	CompanyID    string `json:"company_id"`
	CompanyName  string `json:"company_name"`
	FunctionID   string `json:"function_id"`
	FunctionName string `json:"function_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`

	Events []EventBlock `json:"events"`

	SubTotal           float64 `json:"sub_total"`
	TotalDiscount      float64 `json:"total_discount"`
	Taxable            float64 `json:"taxable_amount"`
	TaxAmount          float64 `json:"tax_amount"`
	OtherCharges       float64 `json:"other_charges"`
	SettlementDiscount float64 `json:"settlement_discount"`
	RoundOff           float64 `json:"round_off"`
	BillAmount         float64 `json:"bill_amount"`
}

// EventBlock carries venue and serving details with their item lines.
type EventBlock struct {
	VenueID        string         `json:"venue_id"`
	VenueName      string         `json:"venue_name"`
	ServingID      string         `json:"serving_id"`
	ServingName    string         `json:"serving_name"`
	ServingAddress string         `json:"serving_address"`
	MinPax         string         `json:"min_pax"`
	MaxPax         string         `json:"max_pax"`
	FromDate       string         `json:"from_date"`
	FromTime       string         `json:"from_time"`
	ToDate         string         `json:"to_date"`
	ToTime         string         `json:"to_time"`
	MenuItems      []MenuItemLine `json:"menu_itms_arr"`
	EventMenus     []EventMenu    `json:"event_menus"`
}

// MenuItemLine is one billable line with its computed amounts.
type MenuItemLine struct {
	Date       string  `json:"date"`
	Name       string  `json:"item_name"`
	Unit       string  `json:"unit"`
	Quantity   float64 `json:"quantity"`
	Rate       float64 `json:"rate"`
	Amount     float64 `json:"amount"`
	Discount   float64 `json:"discount"`
	Taxable    float64 `json:"taxable_amount"`
	TaxName    string  `json:"tax_name"`
	TaxPercent float64 `json:"tax_per"`
	TaxAmount  float64 `json:"tax_amount"`
	Total      float64 `json:"total"`
	Note       string  `json:"note"`
	PackageID  string  `json:"package_id"`
}

// EventMenu is a menu selection of a package line. Tax fields are always
// zero; tax is charged on the line itself.
type EventMenu struct {
	ItemIndex    int     `json:"item_index"`
	ItemName     string  `json:"item_name"`
	PackageID    string  `json:"package_id"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	MenuID       string  `json:"menu_id"`
	MenuName     string  `json:"menu_name"`
	CGST         float64 `json:"cgst"`
	SGST         float64 `json:"sgst"`
	IGST         float64 `json:"igst"`
	TaxAmount    float64 `json:"tax_amount"`
}

// SubmitResult is the acknowledgement of a booking submission.
type SubmitResult struct {
	QuotationID string
	BillID      string
}

// ReceiptForm is the form-encoded receipt creation request.
type ReceiptForm struct {
	HotelID     string
	UserID      string
	QuotationID string
	BillID      string
	PartyID     string
	Date        string
	Amount      float64
	Discount    float64
	TDS         float64
	PayModeID   string
	AccountID   string
	Note        string
}

// ReceiptPrint is the printable view of one receipt.
type ReceiptPrint struct {
	Receipt     ReceiptLine `json:"receipt"`
	PartyName   string      `json:"party_name"`
	QuotationID string      `json:"quotation_id"`
	BillID      string      `json:"bill_id"`
	HotelName   string      `json:"hotel_name"`
}

// ReceiptLine mirrors draft.Receipt with the amount spelled for display.
type ReceiptLine struct {
	VoucherID string  `json:"voucher_id"`
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
	Discount  float64 `json:"discount"`
	TDS       float64 `json:"tds"`
	Net       float64 `json:"net"`
	PayMode   string  `json:"pay_mode"`
	Account   string  `json:"account"`
	Note      string  `json:"note,omitempty"`
	Display   string  `json:"display"`
}
