// Package queue carries session events over RabbitMQ: a publisher used by
// the HTTP server and a consumer that appends each event to a log file.
package queue

import (
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/smart-parking/internal/model"
)

// DefaultQueue is the durable queue session events are routed to.
const DefaultQueue = "parking.sessions"

// FormatSessionLine renders ev as a single human-friendly log line ending
// in a newline.
func FormatSessionLine(ev model.SessionEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] ", ev.OccurredAt.UTC().Format(time.RFC3339))
    switch ev.Kind {
    case model.EventSessionOpened:
        b.WriteString("Session opened")
    case model.EventSessionClosed:
        b.WriteString("Session closed")
    default:
        fmt.Fprintf(&b, "Session event %q", string(ev.Kind))
    }
    fmt.Fprintf(&b, " | session_id=%s | vehicle=%q | vehicle_type=%s | slot=%q | slot_type=%s | billing=%s | entry=%s",
        ev.SessionID, ev.VehicleNumber, ev.VehicleType, ev.SlotName, ev.SlotType, ev.BillingType,
        ev.EntryTime.UTC().Format(time.RFC3339))
    if ev.ExitTime != nil {
        fmt.Fprintf(&b, " | exit=%s", ev.ExitTime.UTC().Format(time.RFC3339))
    }
    if ev.Amount != nil {
        fmt.Fprintf(&b, " | amount=%d", *ev.Amount)
    }
    b.WriteByte('\n')
    return b.String()
}
