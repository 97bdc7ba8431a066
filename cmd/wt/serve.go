package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/worktrack/internal/carryover"
	"github.com/zulandar/worktrack/internal/clock"
	"github.com/zulandar/worktrack/internal/config"
	"github.com/zulandar/worktrack/internal/db"
	"github.com/zulandar/worktrack/internal/notify"
	"github.com/zulandar/worktrack/internal/notify/discord"
	"github.com/zulandar/worktrack/internal/notify/slack"
	"github.com/zulandar/worktrack/internal/rating"
	"github.com/zulandar/worktrack/internal/review"
	"github.com/zulandar/worktrack/internal/server"
	"github.com/zulandar/worktrack/internal/sweep"
	"github.com/zulandar/worktrack/internal/tracking"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Worktrack API server",
		Long:  "Serves the tracking API and runs the scheduled day-close sweeper until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "worktrack.yaml", "path to Worktrack config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	gormDB, err := db.Open(cfg)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	hub, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}

	clk := clock.System{}
	machine := tracking.New(gormDB, clk, hub)
	reviews := review.NewService(gormDB, clk, hub)
	carry := carryover.NewService(gormDB, clk)
	ratings := rating.NewService(gormDB)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := sweep.New(gormDB, clk, carry, log)
	go func() {
		if err := sweeper.Run(ctx, cfg.Sweep.Cron); err != nil {
			log.Error("sweeper stopped", zap.Error(err))
		}
	}()

	log.Info("starting worktrack",
		zap.String("site", cfg.Site),
		zap.Int("port", cfg.Server.Port),
		zap.String("sweep_cron", cfg.Sweep.Cron))

	return server.Start(ctx, server.Opts{
		DB:      gormDB,
		Clock:   clk,
		Machine: machine,
		Reviews: reviews,
		Carry:   carry,
		Ratings: ratings,
		Logger:  log,
		Port:    cfg.Server.Port,
		Out:     cmd.OutOrStdout(),
	})
}

// buildNotifier assembles the notification hub from whichever channels are
// configured. No channels means a silent hub.
func buildNotifier(cfg *config.Config, log *zap.Logger) (*notify.Hub, error) {
	var senders []notify.Sender

	if cfg.Notify.Slack.BotToken != "" && cfg.Notify.Slack.Channel != "" {
		s, err := slack.New(slack.Opts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Slack.Channel,
		})
		if err != nil {
			return nil, fmt.Errorf("configure slack: %w", err)
		}
		senders = append(senders, s)
	}

	if cfg.Notify.Discord.BotToken != "" && cfg.Notify.Discord.Channel != "" {
		d, err := discord.New(discord.Opts{
			BotToken:  cfg.Notify.Discord.BotToken,
			ChannelID: cfg.Notify.Discord.Channel,
		})
		if err != nil {
			return nil, fmt.Errorf("configure discord: %w", err)
		}
		senders = append(senders, d)
	}

	return notify.NewHub(log, senders...), nil
}
