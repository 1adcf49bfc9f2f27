package tools

import (
	"context"
	"encoding/json"
	"time"
)

// DateTimeLayout renders timestamps as dd-MM-yyyy HH:mm:ss.
const DateTimeLayout = "02-01-2006 15:04:05"

var dateTimeSchema = mustArgSchema[noArgs](nil)

// DateTime reports the current local date and time.
type DateTime struct {
	now func() time.Time
}

// NewDateTime returns a DateTime using the given clock, or time.Now if nil.
func NewDateTime(now func() time.Time) *DateTime {
	if now == nil {
		now = time.Now
	}
	return &DateTime{now: now}
}

func (d *DateTime) Name() string { return "getCurrentDateTime" }

func (d *DateTime) Description() string {
	return "Returns the current date and time. Use this when the user asks about current date, time, day, or year."
}

func (d *DateTime) Parameters() map[string]any { return dateTimeSchema.Parameters() }

func (d *DateTime) Execute(_ context.Context, args json.RawMessage) (string, error) {
	if _, err := dateTimeSchema.parse(d.Name(), args); err != nil {
		return "", err
	}
	return d.now().Format(DateTimeLayout), nil
}
