// Package accounts edits the configured account list.
package accounts

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/j-veylop/codexhud/internal/models"
)

var (
	// ErrInvalid wraps field validation failures.
	ErrInvalid = errors.New("invalid account")
	// ErrDuplicateEmail means two entries share an email.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrDuplicateOrdinal means two entries share a number.
	ErrDuplicateOrdinal = errors.New("duplicate account number")
)

// Config is the user-editable part of an account.
type Config struct {
	Email       string `yaml:"email" json:"email" validate:"required,email"`
	DisplayName string `yaml:"displayName,omitempty" json:"displayName,omitempty" validate:"omitempty,max=64"`
	Ordinal     int    `yaml:"codexNumber" json:"codexNumber" validate:"min=1"`
}

// File is the YAML document used by import and export.
type File struct {
	Accounts []Config `yaml:"accounts" validate:"dive"`
}

var validate = validator.New()

// Normalize trims whitespace from every field.
func Normalize(configs []Config) []Config {
	return lo.Map(configs, func(c Config, _ int) Config {
		return Config{
			Email:       strings.TrimSpace(c.Email),
			DisplayName: strings.TrimSpace(c.DisplayName),
			Ordinal:     c.Ordinal,
		}
	})
}

// Validate checks field rules and uniqueness of emails and numbers.
func Validate(configs []Config) error {
	if err := validate.Struct(File{Accounts: configs}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if dup := lo.FindDuplicatesBy(configs, func(c Config) string { return c.Email }); len(dup) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, dup[0].Email)
	}
	if dup := lo.FindDuplicatesBy(configs, func(c Config) int { return c.Ordinal }); len(dup) > 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateOrdinal, dup[0].Ordinal)
	}
	return nil
}

// Apply replaces the account list of state with configs. Accounts whose
// email is kept retain their last snapshot. The list is sorted by number,
// and the active email is cleared when its account is gone.
func Apply(state *models.AppState, configs []Config) error {
	configs = Normalize(configs)
	if err := Validate(configs); err != nil {
		return err
	}

	next := lo.Map(configs, func(c Config, _ int) models.Account {
		acc := models.Account{Email: c.Email, DisplayName: c.DisplayName, Ordinal: c.Ordinal}
		if existing := state.Account(c.Email); existing != nil {
			kept := existing.Clone()
			acc.LastSnapshot = kept.LastSnapshot
			acc.LastUpdated = kept.LastUpdated
		}
		return acc
	})
	slices.SortStableFunc(next, func(a, b models.Account) int { return a.Ordinal - b.Ordinal })

	state.Accounts = next
	if state.AccountIndex(state.Active()) < 0 {
		state.SetActive("")
	}
	return nil
}

// FromState returns the configs of the current accounts.
func FromState(state *models.AppState) []Config {
	return lo.Map(state.Accounts, func(a models.Account, _ int) Config {
		return Config{Email: a.Email, DisplayName: a.DisplayName, Ordinal: a.Ordinal}
	})
}

// Decode reads a YAML account file.
func Decode(r io.Reader) ([]Config, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return f.Accounts, nil
}

// Encode writes configs as a YAML account file.
func Encode(w io.Writer, configs []Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Accounts: configs}); err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	return enc.Close()
}
