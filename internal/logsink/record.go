// Package logsink delivers validation error records to the three response
// log destinations: the console, a local append-only file and a MongoDB
// collection.
//
// A Sink is built once at startup and shared by every request. Local
// destinations are written synchronously; the remote write is started before
// Write returns and reports its outcome through the returned Delivery.
package logsink

import (
	"time"
)

// Level is the severity an entry is written at.
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
)

// DefaultLabel tags every entry written by the validation reporter.
const DefaultLabel = "response"

// Record is the structured description of one failed request validation.
//
// Field order matters: it is the order the JSON meta is rendered in.
type Record struct {
	Path         []any  `json:"path" bson:"path"`
	Error        string `json:"error" bson:"error"`
	Context      string `json:"context" bson:"context"`
	FileTrace    string `json:"fileTrace" bson:"fileTrace"`
	RequestTrace string `json:"requestTrace" bson:"requestTrace"`
}

// NewRecord builds a Record that owns its own copy of path.
func NewRecord(path []any, message, context, fileTrace, requestTrace string) Record {
	p := make([]any, len(path))
	copy(p, path)
	return Record{
		Path:         p,
		Error:        message,
		Context:      context,
		FileTrace:    fileTrace,
		RequestTrace: requestTrace,
	}
}

// Entry is a Record stamped with the label, level and time it was written at.
type Entry struct {
	Label     string    `json:"label"`
	Level     Level     `json:"level"`
	Timestamp time.Time `json:"timestamp"`
	Meta      Record    `json:"meta"`
}
