package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

var (
	// ErrTargetNotFound means the codex executable could not be located.
	ErrTargetNotFound = errors.New("codex executable not found")
	// ErrExecutionFailed means the codex command ran and failed.
	ErrExecutionFailed = errors.New("codex execution failed")
)

// DefaultMessage is the keep-alive prompt.
const DefaultMessage = "hi"

// Sender performs the side effect that starts or refreshes a quota window.
type Sender interface {
	SendHello(ctx context.Context, model, message string) error
}

// CodexSender sends a one-shot prompt through the codex CLI.
// Bin overrides the executable; otherwise "codex" is looked up on PATH.
type CodexSender struct {
	lookPath func(string) (string, error)
	Bin      string
}

// NewCodexSender creates a sender. bin may be empty.
func NewCodexSender(bin string) *CodexSender {
	return &CodexSender{Bin: bin, lookPath: exec.LookPath}
}

// SendHello runs `codex exec --skip-git-repo-check [-m model] message`.
func (s *CodexSender) SendHello(ctx context.Context, model, message string) error {
	path, err := s.resolve()
	if err != nil {
		return err
	}

	args := []string{"exec", "--skip-git-repo-check"}
	if model != "" {
		args = append(args, "-m", model)
	}
	args = append(args, message)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrTargetNotFound, path)
		}
		return fmt.Errorf("%w: %w: %s", ErrExecutionFailed, err, lastLine(out.String()))
	}
	return nil
}

func (s *CodexSender) resolve() (string, error) {
	if s.Bin != "" {
		return s.Bin, nil
	}
	lookPath := s.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath("codex")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTargetNotFound, err)
	}
	return path, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
