// Package picker implements ports.DirectoryPicker on top of external
// dialog programs such as zenity or kdialog.
package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("directory picker is not configured")

// CommandPicker runs a dialog command and reads the chosen path from stdout.
type CommandPicker struct {
	argv    []string
	timeout time.Duration
}

// NewCommandPicker creates a picker for argv, e.g.
// ["zenity", "--file-selection", "--directory"].
func NewCommandPicker(argv []string, timeout time.Duration) *CommandPicker {
	return &CommandPicker{argv: append([]string(nil), argv...), timeout: timeout}
}

// PickDirectory implements ports.DirectoryPicker
func (p *CommandPicker) PickDirectory(ctx context.Context) (string, error) {
	if len(p.argv) == 0 {
		return "", ErrNotConfigured
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.argv[0], p.argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	selected := strings.TrimSpace(stdout.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("directory picker: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		// Dialog tools exit non-zero with no output when the user cancels.
		if errors.As(err, &exitErr) && selected == "" {
			return "", nil
		}
		return "", fmt.Errorf("directory picker %s failed: %w: %s", p.argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return selected, nil
}

// Disabled is the picker used when no command is configured.
type Disabled struct{}

// PickDirectory implements ports.DirectoryPicker
func (Disabled) PickDirectory(context.Context) (string, error) {
	return "", ErrNotConfigured
}
