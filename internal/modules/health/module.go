package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/fx"

	"bitunix_bot/internal/modules/config"
	"bitunix_bot/internal/modules/health/service"
	"bitunix_bot/pkg/logger"
)

type Config struct {
	Enabled bool
	Addr    string // например ":8080"
}

func NewConfig(cfg *config.Config) Config {
	return Config{Enabled: cfg.Health.Enabled, Addr: cfg.Health.Addr}
}

type healthResponse struct {
	Ready           bool    `json:"ready"`
	Halted          bool    `json:"halted"`
	StreamConnected bool    `json:"streamConnected"`
	UptimeSec       int64   `json:"uptimeSec"`
	LastCycleUnix   int64   `json:"lastCycleUnix"`
	Cycles          int64   `json:"cycles"`
	FailedCycles    int64   `json:"failedCycles"`
	Balance         float64 `json:"balance"`
	Price           float64 `json:"price"`
	Position        string  `json:"position"`
	State           string  `json:"state"`
	LastError       string  `json:"lastError,omitempty"`
}

func NewMux(state *service.State) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: первый цикл прошёл и fail-stop не сработал
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		total, failed := state.Cycles()
		side, st := state.Position()
		resp := healthResponse{
			Ready:           state.Ready(),
			Halted:          state.Halted(),
			StreamConnected: state.StreamConnected(),
			UptimeSec:       int64(state.Uptime().Seconds()),
			Cycles:          total,
			FailedCycles:    failed,
			Balance:         state.Balance(),
			Price:           state.Price(),
			Position:        side,
			State:           st,
			LastError:       state.LastError(),
		}
		if t := state.LastCycle(); !t.IsZero() {
			resp.LastCycleUnix = t.Unix()
		}
		b, err := sonic.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux) {
	if !cfg.Enabled {
		return
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			logger.Info("[HEALTH] listening on %s", ln.Addr())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("[HEALTH] serve: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
