// Package auth reads the signed-in account from the codex credential file.
// Tokens are decoded, never verified.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrFileNotFound = errors.New("auth file not found")
	ErrInvalidJSON  = errors.New("auth file is not a JSON object")
	ErrMissingToken = errors.New("auth file has no id token")
	ErrInvalidToken = errors.New("id token is malformed")
	ErrMissingEmail = errors.New("id token has no email claim")
)

// openAIAuthClaim carries account details inside codex id tokens.
const openAIAuthClaim = "https://api.openai.com/auth"

// Identity is the account a credential belongs to. Subject and AccountID may be empty.
type Identity struct {
	Email     string `json:"email"`
	Subject   string `json:"subject,omitempty"`
	AccountID string `json:"accountId,omitempty"`
}

// Decoder extracts identities from auth.json files.
type Decoder struct {
	parser *jwt.Parser
}

// NewDecoder creates a decoder that accepts padded and unpadded segments.
func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser(jwt.WithPaddingAllowed())}
}

// Load reads and decodes the credential file at path.
func (d *Decoder) Load(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Identity{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return Identity{}, fmt.Errorf("read auth file: %w", err)
	}
	return d.Decode(data)
}

// Decode extracts the identity from credential file contents.
func (d *Decoder) Decode(data []byte) (Identity, error) {
	var file map[string]json.RawMessage
	if err := json.Unmarshal(data, &file); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if file == nil {
		return Identity{}, ErrInvalidJSON
	}

	var tokens map[string]json.RawMessage
	if err := json.Unmarshal(file["tokens"], &tokens); err != nil || tokens == nil {
		return Identity{}, ErrMissingToken
	}
	idToken, ok := stringField(tokens, "id_token")
	if !ok {
		return Identity{}, ErrMissingToken
	}

	claims, err := d.Claims(idToken)
	if err != nil {
		return Identity{}, err
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return Identity{}, ErrMissingEmail
	}
	subject, _ := claims.GetSubject()

	return Identity{
		Email:     email,
		Subject:   subject,
		AccountID: firstNonEmpty(optionalString(tokens, "account_id"), optionalString(file, "account_id"), accountIDClaim(claims)),
	}, nil
}

// Claims decodes the payload segment of a JWT without checking its signature.
func (d *Decoder) Claims(token string) (jwt.MapClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %d segments", ErrInvalidToken, len(parts))
	}

	parser := d.parser
	if parser == nil {
		parser = jwt.NewParser(jwt.WithPaddingAllowed())
	}
	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil || claims == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrInvalidToken)
	}
	return claims, nil
}

func accountIDClaim(claims jwt.MapClaims) string {
	nested, ok := claims[openAIAuthClaim].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := nested["chatgpt_account_id"].(string)
	return id
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func optionalString(obj map[string]json.RawMessage, key string) string {
	s, _ := stringField(obj, key)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
