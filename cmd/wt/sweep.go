package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/worktrack/internal/carryover"
	"github.com/zulandar/worktrack/internal/clock"
	"github.com/zulandar/worktrack/internal/config"
	"github.com/zulandar/worktrack/internal/db"
	"github.com/zulandar/worktrack/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		dateStr    string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one day-close pass",
		Long:  "Carries over every not-started or incomplete job on the given date (default: yesterday) to the next day.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, configPath, dateStr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "worktrack.yaml", "path to Worktrack config file")
	cmd.Flags().StringVar(&dateStr, "date", "", "date to close, YYYY-MM-DD (default: yesterday)")
	return cmd
}

func runSweep(cmd *cobra.Command, configPath, dateStr string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	clk := clock.System{}
	date := clk.Now().AddDate(0, 0, -1)
	if dateStr != "" {
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", dateStr, err)
		}
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		return err
	}

	sweeper := sweep.New(gormDB, clk, carryover.NewService(gormDB, clk), nil)
	res, err := sweeper.CloseDay(date)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Closed %s: %d scanned, %d carried over, %d skipped, %d failed\n",
		res.Date, res.Scanned, res.CarriedOver, res.Skipped, res.Failed)
	return nil
}
