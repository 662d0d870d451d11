package strategy

import (
	"bitunix_bot/internal/modules/config"
)

func ConfigFrom(cfg *config.Config) Config {
	s := cfg.Strategy
	return Config{
		Symbol:            cfg.Exchange.Symbol,
		MarginCoin:        cfg.Exchange.MarginCoin,
		Leverage:          cfg.Exchange.Leverage,
		WalletFraction:    s.WalletFraction,
		StopMult:          s.StopMult,
		LimitMult:         s.LimitMult,
		RSIBuy:            s.RSIBuy,
		ExitRSI:           s.ExitRSI,
		QuantityPrecision: s.QuantityPrecision,
		Start:             s.Start,
		End:               s.End,
		Heartbeat:         cfg.Runner.Heartbeat,
	}
}

func ParamsFrom(cfg *config.Config) Params {
	return Params{
		RSILen:      cfg.Strategy.RSILen,
		ATRLen:      cfg.Strategy.ATRLen,
		BreakoutLen: cfg.Strategy.BreakoutLen,
	}
}
