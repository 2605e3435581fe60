package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/estacionsur/stationd/internal/domain/fuel"
	"github.com/estacionsur/stationd/internal/domain/shifts"
	"github.com/estacionsur/stationd/internal/domain/tanks"
)

// Telegram pushes admin notifications to the configured chat. All sends are
// best-effort: a delivery failure is logged and swallowed.
type Telegram struct {
	api       *tgbotapi.BotAPI
	adminChat int64
	log       *slog.Logger
}

func NewTelegram(token string, adminChatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{api: api, adminChat: adminChatID, log: log}, nil
}

func (t *Telegram) send(text string) {
	if _, err := t.api.Send(tgbotapi.NewMessage(t.adminChat, text)); err != nil {
		t.log.Warn("telegram send failed", "err", err)
	}
}

func (t *Telegram) ShiftClosed(_ context.Context, sh *shifts.Shift) {
	var b strings.Builder
	fmt.Fprintf(&b, "Turno %s cerrado (%s)\n", sh.ID, sh.Band)
	if sh.Payments != nil {
		fmt.Fprintf(&b, "Total: %.2f (efectivo %.2f, tarjetas %.2f, transf %.2f)\n",
			sh.Payments.GrandTotal, sh.Payments.Cash, sh.Payments.CardTotal, sh.Payments.TransferTotal)
	}
	fmt.Fprintf(&b, "Litros: %.2f\n", sh.TotalLitres)
	for _, g := range fuel.Grades() {
		if v := sh.SalesByGrade[g]; v > 0 {
			fmt.Fprintf(&b, "  %s: %.2f L\n", g, v)
		}
	}
	t.send(b.String())
}

func (t *Telegram) LowStock(_ context.Context, tank tanks.Tank) {
	min := 0.0
	if tank.MinLevelLitres != nil {
		min = *tank.MinLevelLitres
	}
	t.send(fmt.Sprintf("Stock bajo: %s con %.0f L (minimo %.0f L)", tank.Name, tank.StockLitres, min))
}
