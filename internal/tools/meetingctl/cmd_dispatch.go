package meetingctl

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// DispatchCmd implements the meetingctl dispatch command group.
type DispatchCmd struct {
	flags *Flags
	app   *App

	deadLimit int
}

// NewDispatchCmd creates a new dispatch command.
func NewDispatchCmd(flags *Flags, app *App) *DispatchCmd {
	return &DispatchCmd{flags: flags, app: app}
}

// Register adds the dispatch command to the application.
func (cmd *DispatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "dispatch",
		Usage: "Inspect and maintain the dispatch outbox",
		Description: `Dispatch outbox maintenance commands.

Examples:
  meetingctl dispatch stats
  meetingctl dispatch dead --limit 20
  meetingctl dispatch redrive dsp-abc123`,
		Commands: []*cli.Command{
			cmd.statsCmd(),
			cmd.deadCmd(),
			cmd.redriveCmd(),
		},
	})
	return app
}

func (cmd *DispatchCmd) statsCmd() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show outbox counts by status",
		UsageText: "meetingctl dispatch stats",
		Action:    cmd.runStats,
	}
}

func (cmd *DispatchCmd) deadCmd() *cli.Command {
	return &cli.Command{
		Name:      "dead",
		Usage:     "List dead-lettered dispatches",
		UsageText: "meetingctl dispatch dead [--limit <n>]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Usage:       "maximum dispatches to list",
				Value:       50,
				Destination: &cmd.deadLimit,
			},
		},
		Action: cmd.runDead,
	}
}

func (cmd *DispatchCmd) redriveCmd() *cli.Command {
	return &cli.Command{
		Name:      "redrive",
		Usage:     "Requeue a dead dispatch for delivery",
		UsageText: "meetingctl dispatch redrive <dispatch_id>",
		Action:    cmd.runRedrive,
	}
}

func (cmd *DispatchCmd) runStats(ctx context.Context, c *cli.Command) error {
	stats, err := cmd.app.Store.GetDispatchStats(ctx)
	if err != nil {
		return fmt.Errorf("get dispatch stats: %w", err)
	}
	return writeJSONLine(c.Root().Writer, map[string]int64{
		"pending":   stats.Pending,
		"leased":    stats.Leased,
		"succeeded": stats.Succeeded,
		"dead":      stats.Dead,
	})
}

type deadDispatchLine struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	OrgID        string     `json:"org_id"`
	EventType    string     `json:"event_type"`
	AttemptCount int        `json:"attempt_count"`
	LastError    string     `json:"last_error,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (cmd *DispatchCmd) runDead(ctx context.Context, c *cli.Command) error {
	records, err := cmd.app.Store.ListDeadDispatches(ctx, cmd.deadLimit)
	if err != nil {
		return fmt.Errorf("list dead dispatches: %w", err)
	}
	for _, record := range records {
		if err := writeJSONLine(c.Root().Writer, deadDispatchLine{
			ID:           record.ID,
			EventID:      record.EventID,
			OrgID:        record.OrgID,
			EventType:    record.EventType,
			AttemptCount: record.AttemptCount,
			LastError:    record.LastError,
			ProcessedAt:  record.ProcessedAt,
			CreatedAt:    record.CreatedAt,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *DispatchCmd) runRedrive(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: meetingctl dispatch redrive <dispatch_id>")
	}
	id := c.Args().Get(0)
	if err := cmd.app.Store.RedriveDispatch(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("redrive dispatch: %w", err)
	}
	_, _ = fmt.Fprintln(c.Root().Writer, "redriven")
	return nil
}
