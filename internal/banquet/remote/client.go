// Package remote talks to the booking service that stores quotations,
// invoices and receipts.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/money"
)

// DefaultReceiptSentinel is the text the service prints after storing a receipt.
const DefaultReceiptSentinel = "Receipt saved successfully"

const maxBody = 4 << 20

var (
	// ErrService marks any failure reaching or understanding the service.
	ErrService = errors.New("booking service unavailable")
	// ErrRejected means the service answered and refused the request.
	ErrRejected = errors.New("booking service rejected the request")
	// ErrMalformed means the response could not be decoded.
	ErrMalformed = errors.New("malformed booking service response")
	// ErrAmbiguous means the response did not clearly report success.
	ErrAmbiguous = errors.New("booking service response did not confirm success")
)

// Config holds client settings.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	ReceiptSentinel string
}

// Client wraps interactions with the booking service API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sentinel   string
	logger     *slog.Logger
	fetches    singleflight.Group
}

// NewClient constructs a new client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	sentinel := strings.TrimSpace(cfg.ReceiptSentinel)
	if sentinel == "" {
		sentinel = DefaultReceiptSentinel
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		sentinel:   sentinel,
		logger:     logger,
	}
}

// SearchCatalog returns candidate references of one kind matching term.
func (c *Client) SearchCatalog(ctx context.Context, kind Kind, term string) ([]draft.Ref, error) {
	q := url.Values{"term": {term}}
	body, err := c.do(ctx, http.MethodGet, "/api/catalog/"+string(kind)+"?"+q.Encode(), "", nil)
	if err != nil {
		return nil, err
	}
	recs, err := decodeList(body)
	if err != nil {
		return nil, err
	}
	return NormalizeRefs(kind, recs), nil
}

// FetchQuotation loads one quotation with its event blocks and receipts.
// Concurrent fetches of the same quotation share one request, which is not
// cancelled with any single caller; each caller still stops waiting when its
// own context ends.
func (c *Client) FetchQuotation(ctx context.Context, quotationID, hotelID string) (*Quotation, error) {
	key := hotelID + "/" + quotationID
	shared := context.WithoutCancel(ctx)
	ch := c.fetches.DoChan(key, func() (any, error) {
		q := url.Values{"quotation_id": {quotationID}, "hotel_id": {hotelID}}
		body, err := c.do(shared, http.MethodGet, "/api/quotations/detail?"+q.Encode(), "", nil)
		if err != nil {
			return nil, err
		}
		doc, err := decodeDocument(body)
		if err != nil {
			return nil, err
		}
		if err := refusal(doc); err != nil {
			return nil, err
		}
		quotation, err := NormalizeQuotation(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrService, err)
		}
		if quotation.QuotationID == "" {
			quotation.QuotationID = quotationID
		}
		return quotation, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Quotation), nil
	}
}

// SubmitBooking sends a quotation save, invoice create or invoice update.
func (c *Client) SubmitBooking(ctx context.Context, payload BookingPayload) (SubmitResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encode booking: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/api/bookings", "application/json", bytes.NewReader(raw))
	if err != nil {
		return SubmitResult{}, err
	}
	doc, err := decodeDocument(body)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := confirmed(doc); err != nil {
		return SubmitResult{}, err
	}
	res := SubmitResult{
		QuotationID: doc.Str("quotation_id", "QuotationId", "quotationId", "id"),
		BillID:      doc.Str("bill_id", "BillId", "billId", "invoice_id"),
	}
	if res.QuotationID == "" {
		res.QuotationID = payload.QuotationID
	}
	if res.BillID == "0" {
		res.BillID = ""
	}
	return res, nil
}

// CreateReceipt records a payment. The service answers in text; anything
// other than a clear success is reported as ErrAmbiguous so a payment is
// never assumed stored.
func (c *Client) CreateReceipt(ctx context.Context, form ReceiptForm) error {
	values := url.Values{
		"hotel_id":     {form.HotelID},
		"login_id":     {form.UserID},
		"quotation_id": {form.QuotationID},
		"bill_id":      {form.BillID},
		"ledger_id":    {form.PartyID},
		"date":         {form.Date},
		"amount":       {formatAmount(form.Amount)},
		"discount":     {formatAmount(form.Discount)},
		"tds":          {formatAmount(form.TDS)},
		"paymode_id":   {form.PayModeID},
		"account_id":   {form.AccountID},
		"note":         {form.Note},
	}
	body, err := c.do(ctx, http.MethodPost, "/api/receipts", "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	return c.receiptAck(body)
}

// DeleteReceipt removes one receipt voucher.
func (c *Client) DeleteReceipt(ctx context.Context, voucherID string) error {
	raw, err := json.Marshal(map[string]string{"voucher_id": voucherID})
	if err != nil {
		return fmt.Errorf("encode voucher: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/api/receipts/delete", "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	doc, err := decodeDocument(body)
	if err != nil {
		return err
	}
	return confirmed(doc)
}

// FetchReceiptPrint loads the printable view of one receipt.
func (c *Client) FetchReceiptPrint(ctx context.Context, hotelID, voucherID, quotationID string) (*ReceiptPrint, error) {
	q := url.Values{"hotel_id": {hotelID}, "voucher_id": {voucherID}, "quotation_id": {quotationID}}
	body, err := c.do(ctx, http.MethodGet, "/api/receipts/print?"+q.Encode(), "", nil)
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, err
	}
	if err := refusal(doc); err != nil {
		return nil, err
	}
	rec := doc
	if r, ok := doc["receipt"].(map[string]any); ok {
		rec = Record(r)
	}
	receipt := NormalizeReceipt(rec)
	if receipt.VoucherID == "" {
		receipt.VoucherID = voucherID
	}
	return &ReceiptPrint{
		Receipt: ReceiptLine{
			VoucherID: receipt.VoucherID,
			Date:      receipt.Date,
			Amount:    receipt.Amount,
			Discount:  receipt.Discount,
			TDS:       receipt.TDS,
			Net:       receipt.Net(),
			PayMode:   receipt.PayMode,
			Account:   receipt.Account,
			Note:      receipt.Note,
			Display:   money.Format(receipt.Amount),
		},
		PartyName:   doc.Str("party_name", "PartyName", "LedgerName"),
		QuotationID: firstNonEmpty(doc.Str("quotation_id", "QuotationId"), quotationID),
		BillID:      doc.Str("bill_id", "BillId", "bill_no"),
		HotelName:   doc.Str("hotel_name", "HotelName"),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrService, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, text/plain;q=0.9")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("booking service request failed",
			slog.String("method", method), slog.String("path", req.URL.Path), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrService, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrService, err)
	}
	if resp.StatusCode >= 300 {
		c.logger.Error("booking service returned an error status",
			slog.String("method", method), slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode), slog.Duration("elapsed", time.Since(started)))
		return nil, fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
	}
	c.logger.Debug("booking service request",
		slog.String("method", method), slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode), slog.Duration("elapsed", time.Since(started)))
	return raw, nil
}

func (c *Client) receiptAck(body []byte) error {
	text := strings.TrimSpace(string(body))
	if doc, err := decodeDocument(body); err == nil {
		if err := confirmed(doc); err == nil {
			return nil
		} else if errors.Is(err, ErrRejected) {
			return err
		}
		text = doc.Str("message", "msg", "Message")
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "error") || strings.Contains(lower, "fail") || strings.Contains(lower, "invalid") {
		return fmt.Errorf("%w: %w: %s", ErrService, ErrRejected, text)
	}
	if strings.Contains(lower, strings.ToLower(c.sentinel)) {
		return nil
	}
	c.logger.Warn("receipt response did not confirm success", slog.String("body", truncate(text, 200)))
	return fmt.Errorf("%w: %w", ErrService, ErrAmbiguous)
}

func decodeDocument(body []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrService, ErrMalformed, err)
	}
	rec := Record(doc)
	if data, ok := doc["data"].(map[string]any); ok {
		for k, v := range rec {
			if _, exists := data[k]; !exists && k != "data" {
				data[k] = v
			}
		}
		rec = Record(data)
	}
	return rec, nil
}

func decodeList(body []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrService, ErrMalformed, err)
	}
	if list := asRecords(v); list != nil {
		return list, nil
	}
	if m, ok := v.(map[string]any); ok {
		return Record(m).Records("data", "results", "items", "list"), nil
	}
	return nil, fmt.Errorf("%w: %w: unexpected catalog shape", ErrService, ErrMalformed)
}

// confirmed requires an explicit success flag.
func confirmed(doc Record) error {
	if err := refusal(doc); err != nil {
		return err
	}
	if flag, ok := successFlag(doc); ok && flag {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrService, ErrAmbiguous)
}

// refusal reports an explicit failure flag; absent flags pass.
func refusal(doc Record) error {
	if flag, ok := successFlag(doc); ok && !flag {
		msg := doc.Str("message", "msg", "error", "Message")
		return fmt.Errorf("%w: %w: %s", ErrService, ErrRejected, msg)
	}
	return nil
}

func successFlag(doc Record) (bool, bool) {
	if v, ok := doc["success"]; ok {
		switch t := v.(type) {
		case bool:
			return t, true
		default:
			s := strings.ToLower(doc.Str("success"))
			return s == "1" || s == "true", true
		}
	}
	if s := strings.ToLower(doc.Str("status")); s != "" {
		switch s {
		case "success", "ok", "1", "true":
			return true, true
		default:
			return false, true
		}
	}
	return false, false
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(money.Round2(v), 'f', 2, 64)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
