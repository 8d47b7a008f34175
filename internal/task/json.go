package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// taskWire is the JSON form of a task. Numbers are floats so stores written by
// other tools with "50.0" style values round-trip.
type taskWire struct {
	ID                  string   `json:"id"`
	GoalID              string   `json:"goal_id"`
	Title               string   `json:"title"`
	Priority            Priority `json:"priority"`
	Status              Status   `json:"status"`
	Progress            *float64 `json:"progress"`
	EstimateMinutes     *float64 `json:"estimate_minutes,omitempty"`
	ActualMinutes       *float64 `json:"actual_minutes"`
	TimeVariancePercent *float64 `json:"time_variance_percent,omitempty"`
	BlockedReason       *string  `json:"blocked_reason,omitempty"`
	Recurring           *string  `json:"recurring,omitempty"`
	NextDueAt           *string  `json:"next_due_at,omitempty"`
	CreatedAt           string   `json:"created_at,omitempty"`
	UpdatedAt           string   `json:"updated_at,omitempty"`
	CompletedAt         *string  `json:"completed_at,omitempty"`
	Notes               string   `json:"notes"`
}

type goalWire struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Priority Priority `json:"priority,omitempty"`
}

// FormatTime renders a timestamp as RFC 3339 UTC with a Z suffix.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime parses a timestamp in the formats found in existing stores, including
// the "+00:00Z" form some writers produce by appending Z to an offset timestamp.
func ParseTime(s string) (time.Time, error) {
	if i := strings.IndexByte(s, 'T'); i >= 0 && strings.HasSuffix(s, "Z") && strings.ContainsAny(s[i:len(s)-1], "+-") {
		s = strings.TrimSuffix(s, "Z")
	}
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

func floatPtr(i *int) *float64 {
	if i == nil {
		return nil
	}
	v := float64(*i)
	return &v
}

// UnmarshalJSON decodes a task, keeping unknown keys in Extra. A known field
// whose value cannot be read is kept verbatim in Malformed instead of failing
// the whole task.
func (t *Task) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}

	var (
		out              Task
		priority, status string
		progress, actual float64
		estimate         *float64
		recurring        *string
	)
	d.decode("id", &out.ID)
	d.decode("goal_id", &out.GoalID)
	d.decode("title", &out.Title)
	if d.decode("priority", &priority) {
		out.Priority = Priority(priority)
	}
	if d.decode("status", &status) {
		out.Status = Status(status)
	}
	if d.decode("progress", &progress) {
		out.Progress = int(progress)
	}
	if d.decode("estimate_minutes", &estimate) && estimate != nil {
		v := int(*estimate)
		out.EstimateMinutes = &v
	}
	if d.decode("actual_minutes", &actual) {
		out.ActualMinutes = int(actual)
	}
	d.decode("time_variance_percent", &out.TimeVariancePercent)
	d.decode("blocked_reason", &out.BlockedReason)
	if d.decode("recurring", &recurring) && recurring != nil {
		r := Recurrence(*recurring)
		out.Recurring = &r
	}
	out.NextDueAt = d.timestamp("next_due_at")
	out.CompletedAt = d.timestamp("completed_at")
	if created := d.timestamp("created_at"); created != nil {
		out.CreatedAt = *created
	}
	if updated := d.timestamp("updated_at"); updated != nil {
		out.UpdatedAt = *updated
	}
	d.decode("notes", &out.Notes)

	out.Extra = d.rest()
	out.Malformed = d.malformed
	*t = out
	return nil
}

// MarshalJSON encodes a task, merging Extra back in.
func (t *Task) MarshalJSON() ([]byte, error) {
	progress := float64(t.Progress)
	actual := float64(t.ActualMinutes)
	w := taskWire{
		ID:                  t.ID,
		GoalID:              t.GoalID,
		Title:               t.Title,
		Priority:            t.Priority,
		Status:              t.Status,
		Progress:            &progress,
		EstimateMinutes:     floatPtr(t.EstimateMinutes),
		ActualMinutes:       &actual,
		TimeVariancePercent: t.TimeVariancePercent,
		BlockedReason:       t.BlockedReason,
		NextDueAt:           formatOptionalTime(t.NextDueAt),
		CompletedAt:         formatOptionalTime(t.CompletedAt),
		Notes:               t.Notes,
	}
	if t.Recurring != nil {
		s := string(*t.Recurring)
		w.Recurring = &s
	}
	if !t.CreatedAt.IsZero() {
		w.CreatedAt = FormatTime(t.CreatedAt)
	}
	if !t.UpdatedAt.IsZero() {
		w.UpdatedAt = FormatTime(t.UpdatedAt)
	}
	return mergeExtra(w, t.Extra, t.unsetMalformed())
}

// unsetMalformed returns the malformed values whose field has not been set since
// loading, so they are written back unchanged.
func (t *Task) unsetMalformed() map[string]json.RawMessage {
	if len(t.Malformed) == 0 {
		return nil
	}
	keep := make(map[string]json.RawMessage, len(t.Malformed))
	for k, raw := range t.Malformed {
		if t.isUnset(k) {
			keep[k] = raw
		}
	}
	return keep
}

func (t *Task) isUnset(key string) bool {
	switch key {
	case "id":
		return t.ID == ""
	case "goal_id":
		return t.GoalID == ""
	case "title":
		return t.Title == ""
	case "priority":
		return t.Priority == ""
	case "status":
		return t.Status == ""
	case "progress":
		return t.Progress == 0
	case "estimate_minutes":
		return t.EstimateMinutes == nil
	case "actual_minutes":
		return t.ActualMinutes == 0
	case "time_variance_percent":
		return t.TimeVariancePercent == nil
	case "blocked_reason":
		return t.BlockedReason == nil
	case "recurring":
		return t.Recurring == nil
	case "next_due_at":
		return t.NextDueAt == nil
	case "created_at":
		return t.CreatedAt.IsZero()
	case "updated_at":
		return t.UpdatedAt.IsZero()
	case "completed_at":
		return t.CompletedAt == nil
	case "notes":
		return t.Notes == ""
	default:
		return false
	}
}

// UnmarshalJSON decodes a goal, keeping unknown keys in Extra and unreadable
// known fields in Malformed.
func (g *Goal) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	var out Goal
	var priority string
	d.decode("id", &out.ID)
	d.decode("title", &out.Title)
	if d.decode("priority", &priority) {
		out.Priority = Priority(priority)
	}
	out.Extra = d.rest()
	out.Malformed = d.malformed
	*g = out
	return nil
}

// MarshalJSON encodes a goal, merging Extra back in.
func (g *Goal) MarshalJSON() ([]byte, error) {
	var keep map[string]json.RawMessage
	for k, raw := range g.Malformed {
		unset := (k == "id" && g.ID == "") || (k == "title" && g.Title == "") || (k == "priority" && g.Priority == "")
		if unset {
			if keep == nil {
				keep = map[string]json.RawMessage{}
			}
			keep[k] = raw
		}
	}
	return mergeExtra(goalWire{ID: g.ID, Title: g.Title, Priority: g.Priority}, g.Extra, keep)
}

// fieldDecoder reads a JSON object one field at a time.
type fieldDecoder struct {
	raw       map[string]json.RawMessage
	malformed map[string]json.RawMessage
}

func newFieldDecoder(data []byte) (*fieldDecoder, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("expected an object, got %s", data)
	}
	return &fieldDecoder{raw: raw}, nil
}

// decode consumes key into v and reports whether it was present and readable.
func (d *fieldDecoder) decode(key string, v any) bool {
	r, ok := d.raw[key]
	if !ok {
		return false
	}
	delete(d.raw, key)
	if err := json.Unmarshal(r, v); err != nil {
		d.keep(key, r)
		return false
	}
	return true
}

// timestamp consumes an optional timestamp. Empty and null values are absent.
func (d *fieldDecoder) timestamp(key string) *time.Time {
	r := d.raw[key]
	var s *string
	if !d.decode(key, &s) || s == nil || *s == "" {
		return nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		d.keep(key, r)
		return nil
	}
	return &t
}

func (d *fieldDecoder) keep(key string, raw json.RawMessage) {
	if d.malformed == nil {
		d.malformed = map[string]json.RawMessage{}
	}
	d.malformed[key] = raw
}

// rest returns the keys not consumed by decode.
func (d *fieldDecoder) rest() map[string]json.RawMessage {
	if len(d.raw) == 0 {
		return nil
	}
	return d.raw
}

// mergeExtra encodes v, adds any extra keys it does not already define and
// replaces the keys in override.
func mergeExtra(v any, extra, override map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra)+len(override) == 0 {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err = json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = raw
		}
	}
	for k, raw := range override {
		fields[k] = raw
	}
	return json.Marshal(fields)
}
