// Package sessionlog finds, tails and parses the codex CLI session logs.
package sessionlog

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/j-veylop/codexhud/internal/models"
)

const (
	eventTypeMarker   = "event_msg"
	payloadTypeMarker = "token_count"
)

var (
	eventTypeNeedle   = []byte(`"` + eventTypeMarker + `"`)
	payloadTypeNeedle = []byte(`"` + payloadTypeMarker + `"`)
)

type logLine struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Payload   *logPayload `json:"payload"`
}

type logPayload struct {
	Type       string         `json:"type"`
	RateLimits *logRateLimits `json:"rate_limits"`
}

type logRateLimits struct {
	Primary   json.RawMessage `json:"primary"`
	Secondary json.RawMessage `json:"secondary"`
}

type logRateLimit struct {
	UsedPercent   json.RawMessage `json:"used_percent"`
	WindowMinutes json.RawMessage `json:"window_minutes"`
	ResetsAt      json.RawMessage `json:"resets_at"`
}

// ParseLine extracts a usage event from one session log line.
// The second return is false when the line is not a token_count event
// or is malformed; it never returns an error.
func ParseLine(line []byte) (*models.UsageEvent, bool) {
	if !bytes.Contains(line, eventTypeNeedle) || !bytes.Contains(line, payloadTypeNeedle) {
		return nil, false
	}

	var raw logLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, false
	}
	if raw.Type != eventTypeMarker || raw.Payload == nil || raw.Payload.Type != payloadTypeMarker {
		return nil, false
	}
	if raw.Payload.RateLimits == nil {
		return nil, false
	}

	ts, ok := parseTimestamp(raw.Timestamp)
	if !ok {
		return nil, false
	}

	return &models.UsageEvent{
		Timestamp: ts,
		Primary:   parseRateLimit(raw.Payload.RateLimits.Primary),
		Secondary: parseRateLimit(raw.Payload.RateLimits.Secondary),
	}, true
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseRateLimit(data json.RawMessage) *models.RateLimit {
	if len(data) == 0 {
		return nil
	}
	var raw logRateLimit
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	used, ok := number(raw.UsedPercent)
	if !ok {
		return nil
	}
	minutes, ok := number(raw.WindowMinutes)
	if !ok {
		return nil
	}
	resets, ok := number(raw.ResetsAt)
	if !ok {
		return nil
	}

	return &models.RateLimit{
		UsedPercent:   used,
		WindowMinutes: int(minutes),
		ResetsAt:      epochToTime(resets),
	}
}

// number decodes a JSON integer or float. null, strings and other types are rejected.
func number(data json.RawMessage) (float64, bool) {
	if len(data) == 0 || data[0] == 'n' {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false
	}
	return f, true
}

func epochToTime(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
}
