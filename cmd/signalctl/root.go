package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cypherlabdev/hedge-signal-service/internal/config"
	"github.com/cypherlabdev/hedge-signal-service/internal/logging"
	"github.com/cypherlabdev/hedge-signal-service/internal/models"
	"github.com/cypherlabdev/hedge-signal-service/pkg/signal"
)

// cli holds state shared by every subcommand
type cli struct {
	configFile string
	logLevel   string
	engine     *signal.Engine
	logger     zerolog.Logger
	closer     io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "signalctl",
		Short:         "Evaluate betting signal models from the command line",
		Long:          `Runs the hedge signal models locally on flag inputs and prints the JSON result.`,
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.closer != nil {
				return c.closer.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Path to configuration file (engine calibration)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(
		c.meanReversionCmd(),
		c.statArbCmd(),
		c.volatilityCmd(),
		c.middleCmd(),
		c.divergenceCmd(),
		c.kellyCmd(),
		c.evaluateCmd(),
	)

	return root
}

// setup builds the engine from the stock calibration or the config file
func (c *cli) setup(cmd *cobra.Command) error {
	logCfg := config.LoggingConfig{Level: c.logLevel, Format: "console"}
	params := signal.DefaultParams()

	if c.configFile != "" {
		cfg, err := config.LoadConfig(c.configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		params = cfg.Engine.ToParams()
		logCfg.File = cfg.Logging.File
		logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
		logCfg.MaxBackups = cfg.Logging.MaxBackups
		logCfg.MaxAgeDays = cfg.Logging.MaxAgeDays
		logCfg.Compress = cfg.Logging.Compress
	}

	logger, closer, err := logging.NewWithWriter(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	c.logger = logger.With().Str("component", "signalctl").Logger()
	c.closer = closer
	c.engine = signal.NewEngine(params, logger)
	return nil
}

func (c *cli) print(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func (c *cli) meanReversionCmd() *cobra.Command {
	var in signal.MeanReversionInput

	cmd := &cobra.Command{
		Use:   "mean-reversion",
		Short: "Score current odds against their historical mean",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.print(cmd, c.engine.MeanReversion(in))
		},
	}

	f := cmd.Flags()
	f.Float64Var(&in.CurrentOdds, "current-odds", 0, "Current decimal odds")
	f.Float64Var(&in.HistoricalMean, "historical-mean", 0, "Historical mean of the odds")
	f.Float64Var(&in.Volatility, "volatility", 0, "Historical standard deviation of the odds")
	_ = cmd.MarkFlagRequired("current-odds")
	_ = cmd.MarkFlagRequired("historical-mean")

	return cmd
}

func (c *cli) statArbCmd() *cobra.Command {
	var (
		in           signal.StatArbInput
		oddsA, oddsB string
	)

	cmd := &cobra.Command{
		Use:   "stat-arb",
		Short: "Compare a posted spread with the fair spread implied by two moneylines",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.OddsA = signal.Quote(oddsA)
			in.OddsB = signal.Quote(oddsB)
			return c.print(cmd, c.engine.StatArb(in))
		},
	}

	f := cmd.Flags()
	f.Float64Var(&in.PostedSpread, "posted-spread", 0, "Spread posted by the book")
	f.StringVar(&oddsA, "odds-a", "", "American odds for side A, e.g. -200")
	f.StringVar(&oddsB, "odds-b", "", "American odds for side B, e.g. +170")
	f.Float64Var(&in.Threshold, "threshold", 1.0, "Minimum mispricing in points")
	f.Float64Var(&in.Bankroll, "bankroll", 1000, "Bankroll to size against")
	f.Float64Var(&in.KellyMultiplier, "kelly-multiplier", signal.DefaultFractionalKelly, "Fraction of full Kelly to stake")
	_ = cmd.MarkFlagRequired("odds-a")
	_ = cmd.MarkFlagRequired("odds-b")

	return cmd
}

func (c *cli) volatilityCmd() *cobra.Command {
	var (
		in                  signal.VolatilityInput
		overOdds, underOdds string
	)

	cmd := &cobra.Command{
		Use:   "volatility",
		Short: "Compare the live total's implied scoring rate with the projected pace",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.OverOdds = signal.Quote(overOdds)
			in.UnderOdds = signal.Quote(underOdds)
			return c.print(cmd, c.engine.Volatility(in))
		},
	}

	f := cmd.Flags()
	f.Float64Var(&in.PregameTotal, "pregame-total", 0, "Pregame total (display only)")
	f.Float64Var(&in.LiveTotal, "live-total", 0, "Live total line")
	f.Float64Var(&in.CurrentScore, "current-score", 0, "Combined score so far")
	f.Float64Var(&in.TimeRemaining, "time-remaining", 0, "Minutes remaining")
	f.Float64Var(&in.Pace, "pace", 1.0, "Pace coefficient")
	f.Float64Var(&in.HistPointsPerMin, "hist-ppm", 0, "Historical points per minute")
	f.Float64Var(&in.ThresholdPct, "threshold-pct", 0.10, "Relative band around the market rate, 0.10 = 10%")
	f.Float64Var(&in.Bankroll, "bankroll", 1000, "Bankroll to size against")
	f.Float64Var(&in.KellyMultiplier, "kelly-multiplier", signal.DefaultFractionalKelly, "Fraction of full Kelly to stake")
	f.StringVar(&overOdds, "over-odds", "", "American odds for the over")
	f.StringVar(&underOdds, "under-odds", "", "American odds for the under")
	_ = cmd.MarkFlagRequired("live-total")
	_ = cmd.MarkFlagRequired("hist-ppm")

	return cmd
}

func (c *cli) middleCmd() *cobra.Command {
	var (
		in           signal.MiddleInput
		mean, stdDev float64
	)

	cmd := &cobra.Command{
		Use:   "middle",
		Short: "Estimate the value of backing both sides of two divergent lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("mean") {
				in.Mean = &mean
			}
			if cmd.Flags().Changed("std-dev") {
				in.StdDev = &stdDev
			}
			return c.print(cmd, c.engine.Middle(in))
		},
	}

	f := cmd.Flags()
	f.Float64Var(&in.LineA, "line-a", 0, "Line at the first book")
	f.Float64Var(&in.LineB, "line-b", 0, "Line at the second book")
	f.Float64Var(&mean, "mean", 0, "Expected outcome (defaults to the midpoint)")
	f.Float64Var(&stdDev, "std-dev", 0, "Outcome standard deviation (defaults to the calibration)")
	f.Float64Var(&in.JuiceBuffer, "juice-buffer", 0.02, "Cost of both legs in probability units")
	_ = cmd.MarkFlagRequired("line-a")
	_ = cmd.MarkFlagRequired("line-b")

	return cmd
}

func (c *cli) divergenceCmd() *cobra.Command {
	var in signal.DivergenceInput

	cmd := &cobra.Command{
		Use:   "divergence",
		Short: "Compare two model spreads with the sportsbook spread",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.print(cmd, c.engine.Divergence(in))
		},
	}

	f := cmd.Flags()
	f.Float64Var(&in.Model1Spread, "model1", 0, "Spread from the first model")
	f.Float64Var(&in.Model2Spread, "model2", 0, "Spread from the second model")
	f.Float64Var(&in.SportsbookSpread, "sportsbook", 0, "Spread posted by the sportsbook")
	_ = cmd.MarkFlagRequired("sportsbook")

	return cmd
}

func (c *cli) kellyCmd() *cobra.Command {
	var in signal.KellyInput

	cmd := &cobra.Command{
		Use:   "kelly",
		Short: "Size a stake with the Kelly criterion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.print(cmd, signal.KellySizing(in))
		},
	}

	f := cmd.Flags()
	f.Float64Var(&in.Bankroll, "bankroll", 1000, "Bankroll to size against")
	f.Float64Var(&in.WinProbability, "win-probability", 0, "Estimated probability of winning")
	f.Float64Var(&in.DecimalOdds, "decimal-odds", 0, "Decimal odds offered")
	f.Float64Var(&in.KellyMultiplier, "kelly-multiplier", signal.DefaultKellyMultiplier, "Fraction of full Kelly to stake")
	_ = cmd.MarkFlagRequired("win-probability")
	_ = cmd.MarkFlagRequired("decimal-odds")

	return cmd
}

// evaluateCmd runs a raw request envelope the same way the service does
func (c *cli) evaluateCmd() *cobra.Command {
	var (
		model   string
		payload string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a model on a JSON payload",
		Example: `  signalctl evaluate --model middle --payload '{"line_a":45.5,"line_b":47.5,"juice_buffer":0.02}'
  signalctl evaluate --model stat_arb --file request.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(payload)
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read payload file: %w", err)
				}
				raw = data
			}

			record, err := c.engine.Evaluate(&models.SignalRequest{
				ID:          uuid.New(),
				Model:       model,
				Payload:     raw,
				RequestedAt: time.Now().UTC(),
			})
			if err != nil {
				return err
			}

			c.logger.Debug().Str("model", model).Str("signal", record.Signal).Msg("evaluated payload")
			return c.print(cmd, record)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&model, "model", "m", "", fmt.Sprintf("Model to run, one of %v", models.Models()))
	f.StringVarP(&payload, "payload", "p", "", "JSON payload")
	f.StringVarP(&file, "file", "f", "", "Read the JSON payload from a file")
	_ = cmd.MarkFlagRequired("model")
	cmd.MarkFlagsMutuallyExclusive("payload", "file")
	cmd.MarkFlagsOneRequired("payload", "file")

	return cmd
}
