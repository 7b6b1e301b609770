package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/vicroadsq/internal/alert"
	"github.com/example/vicroadsq/internal/logging"
	"github.com/example/vicroadsq/internal/metrics"
	"github.com/example/vicroadsq/internal/offices"
	"github.com/example/vicroadsq/internal/portal"
	"github.com/example/vicroadsq/internal/scheduler"
	"github.com/example/vicroadsq/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var statusAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Authenticate and poll the configured offices until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			cfg, log := a.cfg, a.log

			if cfg.IsDefault() {
				return fmt.Errorf("%s still holds the placeholder licence number and last name", opts.configPath)
			}
			if cfg.AlreadyBooked {
				log.Info().Msg("already_booked is set, nothing to search for")
				return nil
			}

			all, err := a.offices.Load(ctx)
			if err != nil {
				return err
			}
			log.Info().Msgf("successfully loaded %d offices", len(all))
			targets, unknown, err := offices.Resolve(all, cfg.OfficesToQuery)
			for _, n := range unknown {
				log.Warn().Msgf("no office found by the short name %s, you might need to run offices discover", n)
			}
			if err != nil {
				return err
			}
			names := make([]string, 0, len(targets))
			for _, o := range targets {
				names = append(names, o.ShortName)
			}
			log.Info().Msgf("going to query %d office(s): %s", len(targets), strings.Join(names, ", "))

			w, err := cfg.Window()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			log.Info().Msgf("using license number %s and last name %s", cfg.LicenseNumber, cfg.LastName)
			log.Info().Msgf("you will be alerted to any appointments from %s - %s", cfg.MinAlertDate, cfg.MaxAlertDate)
			log.Info().Msg(w.Describe())

			client, err := a.portalClient()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			pm := metrics.NewPollMetrics(reg)

			ctrl := &scheduler.Controller{
				Auth: a.authenticator(client),
				Poller: &portal.Poller{
					Transport: client,
					Location:  loc,
					Log:       logging.Component(log, "poller"),
				},
				Offices: targets,
				Window:  w,
				Sleeper: scheduler.TimerSleeper{},
				Alerter: &alert.Bell{
					Out:     os.Stdout,
					Alert:   cfg.AlertBeep,
					Warning: cfg.WarningBeep,
					Log:     logging.Component(log, "alert"),
				},
				Metrics:        pm,
				Log:            logging.Component(log, "controller"),
				QueryDelay:     cfg.QueryDelay(),
				RetryDelay:     cfg.RetryDelay(),
				MaxAttempts:    cfg.MaxRetryAttempts,
				PrintSummaries: cfg.PrintResponseSummaries,
			}
			if a.sightings != nil {
				ctrl.Sightings = a.sightings
			}

			up := &scheduler.Uptime{Start: time.Now(), Interval: time.Minute, Metrics: pm, Log: logging.Component(log, "uptime")}
			go func() { _ = up.Run(ctx) }()

			if statusAddr == "" {
				statusAddr = cfg.StatusAddr
			}
			if statusAddr != "" {
				ws := &web.Server{Status: ctrl, Gatherer: reg, Log: logging.Component(log, "web")}
				if a.sightings != nil {
					ws.Sightings = a.sightings
				}
				go func() {
					if err := web.Start(ctx, statusAddr, ws.Routes(), log); err != nil {
						log.Error().Err(err).Msg("status server stopped")
					}
				}()
			}

			err = ctrl.Run(ctx)
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "serve /healthz, /metrics and /status on this address (overrides status_addr)")
	return cmd
}
