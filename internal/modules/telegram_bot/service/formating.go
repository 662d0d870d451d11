package service

import (
	"fmt"
	"strings"
	"time"
)

const helpText = "/status - состояние бота\n" +
	"/position - текущая позиция\n" +
	"/stats - винрейт\n" +
	"/help - эта подсказка"

func (t *Telegram) formatStatus() string {
	var b strings.Builder
	_, st := t.health.Position()
	total, failed := t.health.Cycles()

	fmt.Fprintf(&b, "📊 %s\n", t.symbol)
	switch {
	case t.health.Halted():
		b.WriteString("⛔️ остановлен\n")
	case t.health.Ready():
		b.WriteString("✅ работает\n")
	default:
		b.WriteString("⏳ запуск\n")
	}
	if st != "" {
		fmt.Fprintf(&b, "Состояние: %s\n", st)
	}
	fmt.Fprintf(&b, "Баланс: %.4f\n", t.health.Balance())
	fmt.Fprintf(&b, "Цена: %.4f\n", t.health.Price())
	fmt.Fprintf(&b, "Циклов: %d (ошибок %d)\n", total, failed)
	if last := t.health.LastCycle(); !last.IsZero() {
		fmt.Fprintf(&b, "Последний цикл: %s\n", last.UTC().Format(time.RFC3339))
	}
	if e := t.health.LastError(); e != "" {
		fmt.Fprintf(&b, "Последняя ошибка: %s\n", e)
	}
	fmt.Fprintf(&b, "Аптайм: %s", t.health.Uptime().Truncate(time.Second))
	return b.String()
}

func (t *Telegram) formatPosition() string {
	p := t.positions.Current()
	if p.IsFlat() {
		return "📭 Позиции нет"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📈 %s %s qty=%g\n", t.symbol, strings.ToUpper(string(p.Side)), p.Qty)
	fmt.Fprintf(&b, "positionId: %s\n", p.PositionID)
	if p.EntryKind != "" {
		fmt.Fprintf(&b, "Вход: %s @ %.4f\n", p.EntryKind, p.EntryPrice)
	}
	if p.HasStop {
		fmt.Fprintf(&b, "Стоп: %.4f", p.Stop)
	} else {
		b.WriteString("Стоп: нет")
	}
	return b.String()
}

func (t *Telegram) formatStats() string {
	s := t.stats.Stats()
	return fmt.Sprintf("🏆 Винрейт %s, сделок %d", s, s.Total())
}
