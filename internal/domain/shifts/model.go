package shifts

import (
	"time"

	"github.com/estacionsur/stationd/internal/domain/fuel"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Band is the display label for the time-of-day the shift was opened in.
type Band string

const (
	BandMorning   Band = "morning"
	BandAfternoon Band = "afternoon"
	BandNight     Band = "night"
)

// BandAt maps a local time to its band: [6,14) morning, [14,22) afternoon,
// night otherwise.
func BandAt(t time.Time) Band {
	switch h := t.Hour(); {
	case h >= 6 && h < 14:
		return BandMorning
	case h >= 14 && h < 22:
		return BandAfternoon
	default:
		return BandNight
	}
}

type CardPayment struct {
	Last4        string  `json:"last4,omitempty"`
	Amount       float64 `json:"amount"`
	SurchargePct float64 `json:"surcharge_pct"`
}

type TransferPayment struct {
	Reference    string  `json:"reference,omitempty"`
	Amount       float64 `json:"amount"`
	SurchargePct float64 `json:"surcharge_pct"`
}

// PaymentSummary is the full payment breakdown written onto a shift at
// close. Totals include surcharges.
type PaymentSummary struct {
	Cash          float64           `json:"cash"`
	Cards         []CardPayment     `json:"cards"`
	Transfers     []TransferPayment `json:"transfers"`
	CardTotal     float64           `json:"card_total"`
	TransferTotal float64           `json:"transfer_total"`
	GrandTotal    float64           `json:"grand_total"`
}

// SummarizePayments totals the line items: each amount is grossed up by its
// surcharge percentage, grand total = cash + cards + transfers.
func SummarizePayments(cash float64, cards []CardPayment, transfers []TransferPayment) PaymentSummary {
	s := PaymentSummary{Cash: cash, Cards: cards, Transfers: transfers}
	for _, c := range cards {
		s.CardTotal += c.Amount * (1 + c.SurchargePct/100)
	}
	for _, t := range transfers {
		s.TransferTotal += t.Amount * (1 + t.SurchargePct/100)
	}
	s.GrandTotal = cash + s.CardTotal + s.TransferTotal
	return s
}

// Shift is one operating period. Closed is terminal; the close-time fields
// (ClosedAt and after) stay nil while open.
type Shift struct {
	ID            string
	Status        Status
	Band          Band
	OpenedAt      time.Time
	OpenedByUID   string
	OpenedByEmail *string
	ClosedAt      *time.Time
	ClosedByUID   *string
	DateStr       *string
	Payments      *PaymentSummary
	SalesByGrade  map[fuel.Grade]float64
	TankForGrade  map[fuel.Grade]string
	TotalLitres   float64
}

// CloseUpdate is everything the close operation persists onto the shift in
// one logical write. TankForGrade is the mapping in effect at close time;
// deduction replays read it back from the shift so a per-close override is
// never replayed against the configured default.
type CloseUpdate struct {
	At           time.Time
	ByUID        string
	DateStr      string
	Payments     PaymentSummary
	SalesByGrade map[fuel.Grade]float64
	TankForGrade map[fuel.Grade]string
	TotalLitres  float64
}
