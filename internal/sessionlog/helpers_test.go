package sessionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// tokenLine renders a token_count line with the given weekly usage.
func tokenLine(ts time.Time, fiveHourUsed, weeklyUsed float64) string {
	return fmt.Sprintf(
		`{"timestamp":%q,"type":"event_msg","payload":{"type":"token_count","info":null,`+
			`"rate_limits":{"primary":{"used_percent":%v,"window_minutes":300,"resets_at":%d},`+
			`"secondary":{"used_percent":%v,"window_minutes":10080,"resets_at":%d}}}}`,
		ts.UTC().Format(time.RFC3339Nano),
		fiveHourUsed, ts.Add(5*time.Hour).Unix(),
		weeklyUsed, ts.Add(7*24*time.Hour).Unix(),
	) + "\n"
}

func writeFile(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !mod.IsZero() {
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("Chtimes failed: %v", err)
		}
	}
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
}

func chtimes(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
}
