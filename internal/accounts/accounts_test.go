package accounts

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/codexhud/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		configs []Config
		want    error
	}{
		{"Valid", []Config{{Email: "a@x.com", Ordinal: 1}, {Email: "b@x.com", Ordinal: 2}}, nil},
		{"Empty", nil, nil},
		{"MissingEmail", []Config{{Ordinal: 1}}, ErrInvalid},
		{"BadEmail", []Config{{Email: "not-an-email", Ordinal: 1}}, ErrInvalid},
		{"ZeroOrdinal", []Config{{Email: "a@x.com"}}, ErrInvalid},
		{"DuplicateEmail", []Config{{Email: "a@x.com", Ordinal: 1}, {Email: "a@x.com", Ordinal: 2}}, ErrDuplicateEmail},
		{"DuplicateOrdinal", []Config{{Email: "a@x.com", Ordinal: 1}, {Email: "b@x.com", Ordinal: 1}}, ErrDuplicateOrdinal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.configs)
			if tt.want == nil && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	captured := time.Date(2026, 1, 23, 10, 0, 0, 0, time.UTC)
	snap := models.QuotaSnapshot{CapturedAt: captured}

	state := models.NewAppState()
	state.Accounts = []models.Account{
		{Email: "keep@x.com", Ordinal: 1, LastSnapshot: &snap, LastUpdated: &captured},
		{Email: "drop@x.com", Ordinal: 2},
	}
	state.SetActive("drop@x.com")

	err := Apply(state, []Config{
		{Email: " new@x.com ", DisplayName: " Work ", Ordinal: 3},
		{Email: "keep@x.com", Ordinal: 2},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if len(state.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(state.Accounts))
	}
	if state.Accounts[0].Email != "keep@x.com" || state.Accounts[1].Email != "new@x.com" {
		t.Errorf("order = %s, %s, want sorted by number", state.Accounts[0].Email, state.Accounts[1].Email)
	}
	if state.Accounts[0].LastSnapshot == nil || !state.Accounts[0].LastSnapshot.Equal(snap) {
		t.Error("retained account lost its snapshot")
	}
	if state.Accounts[0].LastSnapshot == &snap {
		t.Error("retained snapshot aliases the previous state")
	}
	if state.Accounts[1].DisplayName != "Work" {
		t.Errorf("DisplayName = %q, want trimmed", state.Accounts[1].DisplayName)
	}
	if state.ActiveEmail != nil {
		t.Errorf("ActiveEmail = %q, want cleared", state.Active())
	}
}

func TestApply_InvalidLeavesStateUntouched(t *testing.T) {
	state := models.NewAppState()
	state.Accounts = []models.Account{{Email: "a@x.com", Ordinal: 1}}

	err := Apply(state, []Config{{Email: "b@x.com", Ordinal: 1}, {Email: "c@x.com", Ordinal: 1}})
	if !errors.Is(err, ErrDuplicateOrdinal) {
		t.Fatalf("Apply() error = %v, want ErrDuplicateOrdinal", err)
	}
	if len(state.Accounts) != 1 || state.Accounts[0].Email != "a@x.com" {
		t.Errorf("accounts changed: %+v", state.Accounts)
	}
}

func TestEncodeDecode(t *testing.T) {
	configs := []Config{
		{Email: "a@x.com", Ordinal: 2},
		{Email: "b@x.com", DisplayName: "Personal", Ordinal: 3},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, configs); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(buf.String(), "codexNumber: 2") {
		t.Errorf("encoded YAML missing codexNumber:\n%s", buf.String())
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got) != 2 || got[1] != configs[1] {
		t.Errorf("Decode() = %+v, want %+v", got, configs)
	}
}

func TestDecode(t *testing.T) {
	if got, err := Decode(strings.NewReader("")); err != nil || got != nil {
		t.Errorf("Decode(empty) = %v, %v, want nil, nil", got, err)
	}
	if _, err := Decode(strings.NewReader("accounts:\n  - email: a@x.com\n    bogus: 1\n")); err == nil {
		t.Error("Decode() with unknown field: want error")
	}
}

func TestFromState(t *testing.T) {
	state := models.NewAppState()
	state.Accounts = []models.Account{{Email: "a@x.com", DisplayName: "Main", Ordinal: 1}}
	got := FromState(state)
	if len(got) != 1 || got[0] != (Config{Email: "a@x.com", DisplayName: "Main", Ordinal: 1}) {
		t.Errorf("FromState() = %+v", got)
	}
}
