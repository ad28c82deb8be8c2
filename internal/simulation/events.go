package simulation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event severity levels.
const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// logThreadTag is the fixed thread column in the log line layout, matching
// the plant controller's log file format.
const logThreadTag = "6 "

// Event is an immutable record of one simulated occurrence.
//
// The JSON shape is the wire contract for the WebSocket push, the events
// endpoint and the MQTT bridge; correlation fields are optional.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	LogLine   string    `json:"log_line"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	OrderID   *int64    `json:"order_id,omitempty"`
	OrderCode string    `json:"order_code,omitempty"`
	ProductID *int64    `json:"product_id,omitempty"`
	ProductSN string    `json:"product_sn,omitempty"`
}

// Correlation carries the optional order/product references attached to
// an event.
type Correlation struct {
	OrderID   *int64
	OrderCode string
	ProductID *int64
	ProductSN string
}

// stageMeta maps a stage tag to its severity level and source subsystem.
// Unknown stages fall back to INFO/System.
var stageMeta = map[string]struct {
	level  string
	source string
}{
	"order_pick":        {LevelInfo, "OrderManager"},
	"order_in_progress": {LevelInfo, "OrderManager"},
	"order_completed":   {LevelInfo, "OrderManager"},
	"product_start":     {LevelInfo, "ProductionLine"},
	"product_completed": {LevelInfo, "ProductionLine"},
	"belt":              {LevelInfo, "ConveyorBelt"},
	"scanner":           {LevelInfo, "ScannerCamera"},
	"lifters":           {LevelInfo, "Lifters"},
	"mbi":               {LevelInfo, "MBIServer"},
	"feeder":            {LevelInfo, "Feeder"},
	"robot":             {LevelInfo, "RobotArm"},
	"camera":            {LevelInfo, "Camera"},
	"labeling":          {LevelInfo, "Labeling"},
	"qc":                {LevelInfo, "QCCamera"},
	"error":             {LevelError, "System"},
}

// NewEvent builds an event for a stage occurrence.
//
// The message is extended with order/product correlation suffixes, and the
// preformatted log line reproduces the plant log file layout:
//
//	YYYY-MM-DD HH:MM:SS,mmm[6 ] | [LEVEL] [SOURCE] | message
func NewEvent(stage, message string, corr Correlation) Event {
	now := time.Now().UTC()

	meta, ok := stageMeta[stage]
	if !ok {
		meta.level = LevelInfo
		meta.source = "System"
	}

	parts := []string{message}
	if corr.OrderCode != "" {
		parts = append(parts, "order:"+corr.OrderCode)
	}
	if corr.ProductSN != "" {
		parts = append(parts, "product:"+corr.ProductSN)
	}
	formatted := strings.Join(parts, " | ")

	return Event{
		ID:        uuid.NewString(),
		Timestamp: now,
		Stage:     stage,
		Message:   formatted,
		LogLine:   formatLogLine(now, meta.level, meta.source, formatted),
		Level:     meta.level,
		Source:    meta.source,
		OrderID:   corr.OrderID,
		OrderCode: corr.OrderCode,
		ProductID: corr.ProductID,
		ProductSN: corr.ProductSN,
	}
}

// formatLogLine renders the fixed-column log representation of an event.
func formatLogLine(ts time.Time, level, source, message string) string {
	timestamp := fmt.Sprintf("%s,%03d",
		ts.Format("2006-01-02 15:04:05"),
		ts.Nanosecond()/int(time.Millisecond),
	)
	return fmt.Sprintf("%s[%s] | [%-5s] [%s] | %s",
		timestamp, logThreadTag, level, source, message)
}
