// Package meetingctl implements the operator CLI for the meeting service:
// meeting and agenda inspection, journal queries, and dispatch outbox
// maintenance against the service's SQLite database.
package meetingctl

import (
	"encoding/json"
	"io"

	"github.com/rs/zerolog"

	meetingsqlite "github.com/louisbranch/cadence.team/internal/services/meeting/storage/sqlite"
)

// Flags holds global CLI flag values shared by every command.
type Flags struct {
	DBPath   string
	LogLevel string
}

// App carries the opened store into command actions. The root command's
// Before hook populates it once the flags are parsed.
type App struct {
	Store *meetingsqlite.Store
	Log   zerolog.Logger
}

// writeJSONLine writes one value as a single JSON line.
func writeJSONLine(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(value)
}
