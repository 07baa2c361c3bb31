package lifecycle

import "fmt"

// Phase is where a booking stands between quotation, invoice and receipts.
type Phase int

const (
	PhaseDraftingNew Phase = iota
	PhaseDraftingEditing
	PhaseInvoiced
	PhaseInvoicedPartial
	PhaseInvoicedFull
)

func (p Phase) String() string {
	switch p {
	case PhaseDraftingNew:
		return "drafting_new"
	case PhaseDraftingEditing:
		return "drafting_editing"
	case PhaseInvoiced:
		return "invoiced"
	case PhaseInvoicedPartial:
		return "invoiced_partially_received"
	case PhaseInvoicedFull:
		return "invoiced_fully_received"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for q := PhaseDraftingNew; q <= PhaseInvoicedFull; q++ {
		if q.String() == string(text) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Invoiced reports whether the phase is one of the invoiced phases.
func (p Phase) Invoiced() bool {
	return p >= PhaseInvoiced
}

// Action names a kind of submission. Each kind has its own busy gate.
type Action string

const (
	ActionLoad          Action = "load"
	ActionSave          Action = "save"
	ActionInvoice       Action = "invoice"
	ActionReceipt       Action = "receipt"
	ActionDeleteReceipt Action = "delete_receipt"
)

var actions = []Action{ActionLoad, ActionSave, ActionInvoice, ActionReceipt, ActionDeleteReceipt}
