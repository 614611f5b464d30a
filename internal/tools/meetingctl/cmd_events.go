package meetingctl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/louisbranch/cadence.team/internal/services/meeting/core/filter"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

// EventsCmd implements the meetingctl events command group.
type EventsCmd struct {
	flags *Flags
	app   *App

	listOrg       string
	listFilter    string
	listPageSize  int
	listPageToken string
}

// NewEventsCmd creates a new events command.
func NewEventsCmd(flags *Flags, app *App) *EventsCmd {
	return &EventsCmd{flags: flags, app: app}
}

// Register adds the events command to the application.
func (cmd *EventsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "events",
		Usage: "Query the audit journal",
		Description: `Audit journal commands.

The --filter flag takes an AIP-160 expression over meeting_id, event_type,
actor_id, entity_type, entity_id, and ts.

Examples:
  meetingctl events list --org org-1
  meetingctl events list --org org-1 --filter 'event_type = "agenda.item.completed"'
  meetingctl events list --org org-1 --filter 'ts >= timestamp("2026-08-01T00:00:00Z")'`,
		Commands: []*cli.Command{
			cmd.listCmd(),
		},
	})
	return app
}

func (cmd *EventsCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List journal events newest first",
		UsageText: "meetingctl events list --org <org_id> [--filter <expr>] [--page-size <n>] [--page-token <token>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "org",
				Usage:       "organization identifier",
				Required:    true,
				Destination: &cmd.listOrg,
			},
			&cli.StringFlag{
				Name:        "filter",
				Aliases:     []string{"f"},
				Usage:       "AIP-160 filter expression",
				Destination: &cmd.listFilter,
			},
			&cli.IntFlag{
				Name:        "page-size",
				Usage:       "maximum events to return",
				Value:       50,
				Destination: &cmd.listPageSize,
			},
			&cli.StringFlag{
				Name:        "page-token",
				Usage:       "continuation token from a prior listing",
				Destination: &cmd.listPageToken,
			},
		},
		Action: cmd.runList,
	}
}

type eventLine struct {
	ID         string          `json:"id"`
	OrgID      string          `json:"org_id"`
	MeetingID  string          `json:"meeting_id,omitempty"`
	EventType  string          `json:"event_type"`
	Timestamp  time.Time       `json:"timestamp"`
	ActorID    string          `json:"actor_id,omitempty"`
	EntityType string          `json:"entity_type,omitempty"`
	EntityID   string          `json:"entity_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

func (cmd *EventsCmd) runList(ctx context.Context, c *cli.Command) error {
	condition, err := filter.ParseEventFilter(cmd.listFilter)
	if err != nil {
		return fmt.Errorf("parse filter: %w", err)
	}

	page, err := cmd.app.Store.ListEvents(ctx, storage.ListEventsRequest{
		OrgID:        cmd.listOrg,
		PageSize:     cmd.listPageSize,
		PageToken:    cmd.listPageToken,
		FilterClause: condition.Clause,
		FilterParams: condition.Params,
	})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	for _, record := range page.Events {
		payload := json.RawMessage(record.PayloadJSON)
		if !json.Valid(payload) {
			payload = json.RawMessage("{}")
		}
		if err := writeJSONLine(c.Root().Writer, eventLine{
			ID:         record.ID,
			OrgID:      record.OrgID,
			MeetingID:  record.MeetingID,
			EventType:  record.EventType,
			Timestamp:  record.Timestamp,
			ActorID:    record.ActorID,
			EntityType: record.EntityType,
			EntityID:   record.EntityID,
			Payload:    payload,
		}); err != nil {
			return err
		}
	}
	if page.NextPageToken != "" {
		_, _ = fmt.Fprintf(c.Root().Writer, "next page token: %s\n", page.NextPageToken)
	}
	return nil
}
