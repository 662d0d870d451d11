package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/logger"
)

const haltFlushTimeout = 10 * time.Second

// checkBalance false: сработал fail-stop.
// Клиент при сбое отдаёт последний известный баланс, поэтому ошибка с положительным
// значением не фатальна.
func (r *Runner) checkBalance(ctx context.Context) bool {
	bal, err := r.account.GetBalance(ctx, r.cfg.Exchange.MarginCoin)
	if err != nil {
		logger.Warn("[RUNNER] balance query failed, using cached %.4f: %v", bal, err)
	}
	if bal > 0 {
		r.health.SetBalance(bal)
		return true
	}

	reason := fmt.Sprintf("balance %.4f %s is not positive", bal, r.cfg.Exchange.MarginCoin)
	if err != nil {
		reason = fmt.Sprintf("balance unavailable and no cached value: %v", err)
	}
	r.halt(reason)
	return false
}

func (r *Runner) isHalted() bool {
	select {
	case <-r.halted:
		return true
	default:
		return false
	}
}

// halt уведомить, дождаться отправки, остановить приложение. Один раз.
func (r *Runner) halt(reason string) {
	r.haltOnce.Do(func() {
		logger.Error("[RUNNER] fail-stop: %s", reason)
		r.health.Halt(reason)
		r.n.Notify(models.Event{
			Kind:    models.EventError,
			Title:   "Trading halted",
			Message: "Stopping: " + reason,
			At:      r.now(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), haltFlushTimeout)
		defer cancel()
		if err := r.n.Flush(ctx); err != nil {
			logger.Warn("[RUNNER] notifications not flushed: %v", err)
		}

		close(r.halted)
		if r.stop != nil {
			if err := r.stop.Shutdown(fx.ExitCode(1)); err != nil {
				logger.Error("[RUNNER] shutdown: %v", err)
			}
		}
	})
}

// balanceLoop отдельная, более редкая проверка баланса между циклами.
func (r *Runner) balanceLoop(ctx context.Context) {
	if r.cfg.Runner.BalanceInterval <= 0 {
		return
	}
	t := time.NewTicker(r.cfg.Runner.BalanceInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.halted:
			return
		case <-t.C:
			r.cycleMu.Lock()
			ok := r.checkBalance(ctx)
			r.cycleMu.Unlock()
			if !ok {
				return
			}
			logger.Info("[RUNNER] balance %.4f %s", r.health.Balance(), r.cfg.Exchange.MarginCoin)
		}
	}
}
