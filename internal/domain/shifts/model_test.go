package shifts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarizePayments(t *testing.T) {
	s := SummarizePayments(1000,
		[]CardPayment{{Last4: "4242", Amount: 200, SurchargePct: 10}},
		[]TransferPayment{{Reference: "TR-1", Amount: 300, SurchargePct: 0}},
	)

	assert.InDelta(t, 220, s.CardTotal, 1e-9)
	assert.InDelta(t, 300, s.TransferTotal, 1e-9)
	assert.InDelta(t, 1520, s.GrandTotal, 1e-9)
	assert.Equal(t, 1000.0, s.Cash)
}

func TestSummarizePaymentsEmpty(t *testing.T) {
	s := SummarizePayments(0, nil, nil)
	assert.Equal(t, 0.0, s.GrandTotal)
}

func TestSummarizePaymentsMultipleLines(t *testing.T) {
	s := SummarizePayments(500,
		[]CardPayment{
			{Amount: 100, SurchargePct: 5},
			{Amount: 100, SurchargePct: 0},
		},
		[]TransferPayment{
			{Amount: 50, SurchargePct: 2},
		},
	)
	assert.InDelta(t, 205, s.CardTotal, 1e-9)
	assert.InDelta(t, 51, s.TransferTotal, 1e-9)
	assert.InDelta(t, 756, s.GrandTotal, 1e-9)
}

func TestBandAt(t *testing.T) {
	at := func(h int) time.Time {
		return time.Date(2024, 3, 10, h, 0, 0, 0, time.UTC)
	}
	assert.Equal(t, BandNight, BandAt(at(5)))
	assert.Equal(t, BandMorning, BandAt(at(6)))
	assert.Equal(t, BandMorning, BandAt(at(13)))
	assert.Equal(t, BandAfternoon, BandAt(at(14)))
	assert.Equal(t, BandAfternoon, BandAt(at(21)))
	assert.Equal(t, BandNight, BandAt(at(22)))
	assert.Equal(t, BandNight, BandAt(at(0)))
}
