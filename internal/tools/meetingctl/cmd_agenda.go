package meetingctl

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// AgendaCmd implements the meetingctl agenda command group.
type AgendaCmd struct {
	flags *Flags
	app   *App
}

// NewAgendaCmd creates a new agenda command.
func NewAgendaCmd(flags *Flags, app *App) *AgendaCmd {
	return &AgendaCmd{flags: flags, app: app}
}

// Register adds the agenda command to the application.
func (cmd *AgendaCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "agenda",
		Usage: "Inspect a meeting's agenda",
		Description: `Agenda inspection commands.

Examples:
  meetingctl agenda show mtg-abc123`,
		Commands: []*cli.Command{
			cmd.showCmd(),
		},
	})
	return app
}

func (cmd *AgendaCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a meeting with its ordered agenda and item phases",
		UsageText: "meetingctl agenda show <meeting_id>",
		Action:    cmd.runShow,
	}
}

type agendaItemLine struct {
	ID              string     `json:"id"`
	Section         string     `json:"section"`
	SortOrder       int        `json:"sort_order"`
	DurationMinutes int        `json:"duration_minutes"`
	Phase           string     `json:"phase"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

func (cmd *AgendaCmd) runShow(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: meetingctl agenda show <meeting_id>")
	}
	meetingID := c.Args().Get(0)

	meeting, err := cmd.app.Store.GetMeeting(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("get meeting: %w", err)
	}
	items, err := cmd.app.Store.ListAgendaItems(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("list agenda items: %w", err)
	}

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
	for _, item := range items {
		if err := writeJSONLine(c.Root().Writer, agendaItemLine{
			ID:              item.ID,
			Section:         item.Section,
			SortOrder:       item.SortOrder,
			DurationMinutes: item.DurationMinutes,
			Phase:           itemPhase(item),
			StartedAt:       item.StartedAt,
			CompletedAt:     item.CompletedAt,
			Notes:           item.Notes,
		}); err != nil {
			return err
		}
	}
	return nil
}
