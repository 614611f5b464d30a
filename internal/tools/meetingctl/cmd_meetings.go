package meetingctl

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

// MeetingsCmd implements the meetingctl meetings command group.
type MeetingsCmd struct {
	flags *Flags
	app   *App

	listOrg       string
	listPageSize  int
	listPageToken string
}

// NewMeetingsCmd creates a new meetings command.
func NewMeetingsCmd(flags *Flags, app *App) *MeetingsCmd {
	return &MeetingsCmd{flags: flags, app: app}
}

// Register adds the meetings command to the application.
func (cmd *MeetingsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "meetings",
		Usage: "Inspect meetings",
		Description: `Meeting inspection commands.

Examples:
  meetingctl meetings list --org org-1
  meetingctl meetings list --org org-1 --page-size 10`,
		Commands: []*cli.Command{
			cmd.listCmd(),
		},
	})
	return app
}

func (cmd *MeetingsCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List an organization's meetings newest first",
		UsageText: "meetingctl meetings list --org <org_id> [--page-size <n>] [--page-token <token>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "org",
				Usage:       "organization identifier",
				Required:    true,
				Destination: &cmd.listOrg,
			},
			&cli.IntFlag{
				Name:        "page-size",
				Usage:       "maximum meetings to return",
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

type meetingLine struct {
	ID           string     `json:"id"`
	OrgID        string     `json:"org_id"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (cmd *MeetingsCmd) runList(ctx context.Context, c *cli.Command) error {
	page, err := cmd.app.Store.ListMeetingsByOrg(ctx, cmd.listOrg, cmd.listPageSize, cmd.listPageToken)
	if err != nil {
		return fmt.Errorf("list meetings: %w", err)
	}
	for _, meeting := range page.Meetings {
		if err := writeJSONLine(c.Root().Writer, meetingLine{
			ID:           meeting.ID,
			OrgID:        meeting.OrgID,
			Title:        meeting.Title,
			Status:       meeting.Status,
			ScheduledFor: meeting.ScheduledFor,
			CreatedAt:    meeting.CreatedAt,
			UpdatedAt:    meeting.UpdatedAt,
		}); err != nil {
			return err
		}
	}
	if page.NextPageToken != "" {
		_, _ = fmt.Fprintf(c.Root().Writer, "next page token: %s\n", page.NextPageToken)
	}
	return nil
}

// itemPhase derives the progression phase from a stored agenda item row.
func itemPhase(record storage.AgendaItemRecord) string {
	item := domain.Item{
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
	}
	return string(item.Phase())
}
