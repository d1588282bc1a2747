//go:build linux || darwin

package harness

import (
	"context"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// Build compiles the Go package pkg into dir and returns the binary's path.
func Build(ctx context.Context, dir, pkg string) (string, error) {
	out := filepath.Join(dir, path.Base(pkg))
	cmd := exec.CommandContext(ctx, "go", "build", "-o", out, pkg)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "go build %s: %s", pkg, strings.TrimSpace(string(output)))
	}
	return out, nil
}
