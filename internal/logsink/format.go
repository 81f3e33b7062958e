package logsink

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
)

// TimestampLayout renders times as "2026-10-19 03:04:05.123 PM".
const TimestampLayout = "2006-01-02 03:04:05.000 PM"

// Formatter renders entries in the banner layout shared by every local
// destination:
//
//	--- response error ---
//	[2026-10-19 03:04:05.123 PM] error {"path":["amount"],...}
//	--- response error ---
type Formatter struct {
	// Colorize wraps the level in ANSI colors. Only the console sets it.
	Colorize bool
}

var levelColors = map[Level]*color.Color{
	LevelError: color.New(color.FgRed),
	LevelWarn:  color.New(color.FgYellow),
	LevelInfo:  color.New(color.FgGreen),
}

// Format renders e. The meta JSON keeps HTML characters unescaped so the
// file reads the same as the request that produced it.
func (f Formatter) Format(e Entry) ([]byte, error) {
	var meta bytes.Buffer
	enc := json.NewEncoder(&meta)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e.Meta); err != nil {
		return nil, fmt.Errorf("encoding log meta: %w", err)
	}

	level := string(e.Level)
	if f.Colorize {
		if c, ok := levelColors[e.Level]; ok {
			level = c.Sprint(level)
		}
	}

	banner := fmt.Sprintf("--- %s %s ---", e.Label, level)

	var out bytes.Buffer
	out.WriteString("\n")
	out.WriteString(banner)
	fmt.Fprintf(&out, "\n[%s] %s %s\n", e.Timestamp.Format(TimestampLayout), level, bytes.TrimRight(meta.Bytes(), "\n"))
	out.WriteString(banner)
	out.WriteString("\n")
	return out.Bytes(), nil
}
