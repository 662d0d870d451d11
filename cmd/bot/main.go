package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"bitunix_bot/internal/models"
	"bitunix_bot/internal/modules/bitunix"
	"bitunix_bot/internal/modules/config"
	"bitunix_bot/internal/modules/health"
	"bitunix_bot/internal/modules/ledger"
	ledgersvc "bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/internal/modules/market"
	telegram "bitunix_bot/internal/modules/telegram_bot"
	"bitunix_bot/internal/notify"
	"bitunix_bot/internal/runner"
	"bitunix_bot/internal/strategy"
	"bitunix_bot/pkg/logger"
	"bitunix_bot/pkg/tracing"
)

var configPath string

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.NewConfig()
}

func setup() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:           "bot",
	Short:         "Bitunix perpetual futures trading bot",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the trading loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if err := cfg.RequireCredentials(); err != nil {
			return err
		}

		tracing.SetServiceName(cfg.Tracing.ServiceName)
		logger.SetServiceName(cfg.Tracing.ServiceName)
		_, closeTracer, err := tracing.InitTracer(tracing.Config{
			Enabled: cfg.Tracing.Enabled,
			Host:    cfg.Tracing.Host,
			Port:    cfg.Tracing.Port,
		})
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer closeTracer()

		app := fx.New(
			fx.WithLogger(func() fxevent.Logger {
				return &fxevent.ZapLogger{Logger: logger.InfoLogger}
			}),
			config.Module(cfg),
			notify.Module(),
			bitunix.Module(),
			market.Module(),
			ledger.Module(cfg),
			health.Module(),
			strategy.Module(),
			runner.Module(),
			telegram.Module(),
		)
		app.Run()
		return app.Err()
	},
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show win/loss counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		reset, _ := cmd.Flags().GetBool("reset")

		var l *ledgersvc.Ledger
		app := fx.New(
			fx.NopLogger,
			config.Module(cfg),
			ledger.Module(cfg),
			fx.Populate(&l),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = app.Stop(ctx) }()

		if reset {
			if err := l.Reset(ctx); err != nil {
				return err
			}
		}

		st := l.Stats()
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Symbol", "Backend", "Wins", "Losses", "Win rate"})
		table.SetAlignment(tablewriter.ALIGN_CENTER)
		table.Append([]string{
			cfg.Exchange.Symbol,
			cfg.Ledger.Backend,
			strconv.Itoa(st.WinCount),
			strconv.Itoa(st.LossCount),
			fmt.Sprintf("%.2f%%", st.WinRate()),
		})
		table.Render()
		return nil
	},
}

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Query the open position and account balance on Bitunix",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Exchange.Timeout*3)
		defer cancel()

		// ошибки клиента уходят только в лог
		n := notify.NewAsync(notify.Options{}, notify.NewLog())
		n.Start()
		defer func() { _ = n.Close(ctx) }()
		client := bitunix.NewClient(cfg, n)

		acc, err := client.Account(ctx, cfg.Exchange.MarginCoin)
		if err != nil {
			return err
		}
		pos, err := client.GetPosition(ctx, cfg.Exchange.Symbol, cfg.Exchange.MarginCoin)
		if err != nil {
			return err
		}
		renderPosition(cfg, acc, pos)
		return nil
	},
}

func renderPosition(cfg *config.Config, acc models.AccountSnapshot, pos models.PositionSnapshot) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	side := string(pos.Side)
	if side == "" {
		side = "flat"
	}
	rows := [][]string{
		{"symbol", cfg.Exchange.Symbol},
		{"side", side},
		{"qty", strconv.FormatFloat(pos.Qty, 'f', -1, 64)},
		{"position_id", pos.PositionID},
		{"avg_open_price", strconv.FormatFloat(pos.AvgOpenPrice, 'f', -1, 64)},
		{"unrealized_pnl", strconv.FormatFloat(pos.UnrealizedPnL, 'f', 4, 64)},
		{"available_" + cfg.Exchange.MarginCoin, strconv.FormatFloat(acc.Available, 'f', 4, 64)},
		{"margin", strconv.FormatFloat(acc.Margin, 'f', 4, 64)},
		{"equity", strconv.FormatFloat(acc.Equity(), 'f', 4, 64)},
	}
	table.AppendBulk(rows)
	table.Render()
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := cfg.Dump()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to yaml config (default $CONFIG_DIR/$CONFIG_FILE)")
	ledgerCmd.Flags().Bool("reset", false, "zero the counters before printing")
	rootCmd.AddCommand(runCmd, ledgerCmd, positionCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
