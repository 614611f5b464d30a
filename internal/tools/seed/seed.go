// Package seed loads demo meetings into a local development database from a
// declarative YAML spec, exercising the full meeting facade so seeded data
// carries journal events and dispatch outbox rows like real traffic.
package seed

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/cadence.team/internal/platform/logging"
	meetingapp "github.com/louisbranch/cadence.team/internal/services/meeting/app"
	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	meetingsqlite "github.com/louisbranch/cadence.team/internal/services/meeting/storage/sqlite"
)

// Config holds seed tool configuration.
type Config struct {
	DBPath  string
	File    string
	Verbose bool
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{DBPath: "data/meeting.db"}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The meeting SQLite database path")
	fs.StringVar(&cfg.File, "file", cfg.File, "YAML seed spec path (built-in demo spec when empty)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose output")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Spec is the root of a declarative seed file.
type Spec struct {
	Orgs []OrgSpec `yaml:"orgs"`
}

// OrgSpec declares one organization's seeded meetings.
type OrgSpec struct {
	ID       string        `yaml:"id"`
	Meetings []MeetingSpec `yaml:"meetings"`
}

// MeetingSpec declares one meeting to create. Advance completes that many
// sections after creation so seeded agendas land mid-progression; Conclude
// closes the meeting afterwards.
type MeetingSpec struct {
	Title        string      `yaml:"title"`
	ScheduledFor string      `yaml:"scheduled_for"`
	Template     []EntrySpec `yaml:"template"`
	Advance      int         `yaml:"advance"`
	Notes        []NoteSpec  `yaml:"notes"`
	Conclude     bool        `yaml:"conclude"`
}

// EntrySpec declares one agenda template slot.
type EntrySpec struct {
	Section         string `yaml:"section"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

// NoteSpec attaches notes to the first item of the named section.
type NoteSpec struct {
	Section string `yaml:"section"`
	Text    string `yaml:"text"`
}

// DefaultSpec returns the built-in demo spec: one organization with a
// meeting mid-progression and a scheduled one.
func DefaultSpec() Spec {
	return Spec{
		Orgs: []OrgSpec{
			{
				ID: "org-demo",
				Meetings: []MeetingSpec{
					{
						Title:   "Leadership weekly",
						Advance: 3,
						Notes: []NoteSpec{
							{Section: "scorecard", Text: "Two measurables off track; owners assigned."},
							{Section: "rocks", Text: "Q3 rocks on schedule."},
						},
					},
					{
						Title:        "Leadership weekly (next week)",
						ScheduledFor: time.Now().UTC().Add(7 * 24 * time.Hour).Format(time.RFC3339),
					},
				},
			},
		},
	}
}

// LoadSpec reads a seed spec from a YAML file.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read seed spec: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("parse seed spec: %w", err)
	}
	return spec, nil
}

// localAuthorizer grants facilitator access to every organization. The seed
// tool writes to a local development database, so grant verification would
// only get in the way.
type localAuthorizer struct{}

func (localAuthorizer) Authorize(ctx context.Context, credential, orgID string) (domain.Actor, error) {
	return domain.Actor{ID: "seed", Role: domain.RoleFacilitator}, nil
}

// Run seeds the database and reports created meetings to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}

	spec := DefaultSpec()
	if strings.TrimSpace(cfg.File) != "" {
		loaded, err := LoadSpec(cfg.File)
		if err != nil {
			return err
		}
		spec = loaded
	}
	if len(spec.Orgs) == 0 {
		return errors.New("seed spec has no organizations")
	}

	logLevel := "warn"
	if cfg.Verbose {
		logLevel = "debug"
	}
	logger, closeLogger, err := logging.New(logLevel, "")
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer closeLogger()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create meeting storage dir: %w", err)
		}
	}
	store, err := meetingsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open meeting sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("close meeting sqlite store")
		}
	}()

	service := meetingapp.NewService(meetingapp.Deps{
		Meetings: store,
		Agendas:  store,
		Journal:  store,
		Outbox:   store,
	}, localAuthorizer{}, logger.With().Str("cmp", "seed").Logger())

	for _, org := range spec.Orgs {
		if strings.TrimSpace(org.ID) == "" {
			return errors.New("seed org id is required")
		}
		for _, meeting := range org.Meetings {
			if err := seedMeeting(ctx, service, org.ID, meeting, out); err != nil {
				return fmt.Errorf("seed meeting %q in %s: %w", meeting.Title, org.ID, err)
			}
		}
	}
	return nil
}

func seedMeeting(ctx context.Context, service *domain.Service, orgID string, spec MeetingSpec, out io.Writer) error {
	input := domain.CreateMeetingInput{
		OrgID: orgID,
		Title: spec.Title,
	}
	if strings.TrimSpace(spec.ScheduledFor) != "" {
		scheduledFor, err := time.Parse(time.RFC3339, spec.ScheduledFor)
		if err != nil {
			return fmt.Errorf("parse scheduled_for: %w", err)
		}
		input.ScheduledFor = &scheduledFor
	}
	for _, entry := range spec.Template {
		input.Template = append(input.Template, domain.TemplateEntry{
			Section:         domain.Section(strings.ToLower(strings.TrimSpace(entry.Section))),
			DurationMinutes: entry.DurationMinutes,
		})
	}

	view, err := service.CreateMeeting(ctx, input)
	if err != nil {
		return err
	}
	meetingID := view.Meeting.ID

	// Advance counts completed sections. The engine requires an active item
	// before next, so activate the first section and then step.
	if spec.Advance > 0 {
		if len(view.Items) == 0 {
			return errors.New("cannot advance an empty agenda")
		}
		view, err = service.Navigate(ctx, domain.NavigateInput{
			MeetingID:    meetingID,
			TargetItemID: view.Items[0].ID,
		})
		if err != nil {
			return fmt.Errorf("start agenda: %w", err)
		}
		for i := 0; i < spec.Advance; i++ {
			view, err = service.Next(ctx, domain.StepInput{MeetingID: meetingID})
			if err != nil {
				return fmt.Errorf("advance agenda: %w", err)
			}
		}
	}

	for _, note := range spec.Notes {
		item, ok := findSectionItem(view.Items, note.Section)
		if !ok {
			return fmt.Errorf("notes target section %q not in agenda", note.Section)
		}
		if _, err := service.UpdateNotes(ctx, domain.UpdateNotesInput{
			ItemID: item.ID,
			Notes:  note.Text,
		}); err != nil {
			return fmt.Errorf("set notes on %s: %w", note.Section, err)
		}
	}

	if spec.Conclude {
		if _, err := service.ConcludeMeeting(ctx, domain.ConcludeMeetingInput{
			MeetingID: meetingID,
			Force:     true,
		}); err != nil {
			return fmt.Errorf("conclude meeting: %w", err)
		}
	}

	_, err = fmt.Fprintf(out, "seeded %s %q (%d items)\n", meetingID, spec.Title, len(view.Items))
	return err
}

func findSectionItem(items []domain.Item, section string) (domain.Item, bool) {
	want := domain.Section(strings.ToLower(strings.TrimSpace(section)))
	for _, item := range items {
		if item.Section == want {
			return item, true
		}
	}
	return domain.Item{}, false
}
