// Package main starts the meetingctl operator CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/louisbranch/cadence.team/internal/platform/logging"
	meetingsqlite "github.com/louisbranch/cadence.team/internal/services/meeting/storage/sqlite"
	"github.com/louisbranch/cadence.team/internal/tools/meetingctl"
)

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		ctlApp    = &meetingctl.App{}
	)

	flags := &meetingctl.Flags{}

	app := &cli.Command{
		Name:      "meetingctl",
		Usage:     "Operate the meeting service",
		UsageText: "meetingctl [global options] command [command options]",
		Description: `meetingctl inspects meetings, queries the audit journal, and maintains
the dispatch outbox against the meeting service's SQLite database.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "db-path",
				Usage:       "path to the meeting SQLite database",
				Sources:     cli.EnvVars("CADENCE_TEAM_MEETINGCTL_DB_PATH"),
				Value:       "data/meeting.db",
				Destination: &flags.DBPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("CADENCE_TEAM_MEETINGCTL_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logging.New(flags.LogLevel, "")
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			store, err := meetingsqlite.Open(flags.DBPath)
			if err != nil {
				return ctx, fmt.Errorf("open meeting database: %w", err)
			}

			ctlApp.Store = store
			ctlApp.Log = logger.With().Str("cmp", "meetingctl").Logger()
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if ctlApp.Store != nil {
				if err := ctlApp.Store.Close(); err != nil {
					log.Error().Err(err).Msg("close meeting database")
					return err
				}
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = meetingctl.NewMeetingsCmd(flags, ctlApp).Register(app)
	app = meetingctl.NewAgendaCmd(flags, ctlApp).Register(app)
	app = meetingctl.NewEventsCmd(flags, ctlApp).Register(app)
	app = meetingctl.NewDispatchCmd(flags, ctlApp).Register(app)

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
