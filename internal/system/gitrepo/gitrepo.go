package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system"
)

// Syncer keeps a local checkout of a remote repository in sync:
// clone when the destination is absent, fast-forward pull when present.
// Merge conflicts and network failures propagate from git as fatal errors.
type Syncer struct {
	// Runner executes git; the checkout belongs to the invoking user,
	// so no privilege escalation is involved.
	Runner system.Runner
	// URL is the remote to clone from.
	URL string
	// Branch is checked out on clone and pulled on re-runs.
	Branch string
	// Dir is the destination working tree.
	Dir string
}

// Ensure converges the checkout and reports whether a fresh clone happened.
func (s Syncer) Ensure(ctx context.Context) (cloned bool, err error) {
	if s.exists() {
		logger.InfoKV(ctx, "Updating existing checkout", "dir", s.Dir)

		if err := s.Runner.Run(ctx, "git", "-C", s.Dir, "pull", "--ff-only", "origin", s.Branch); err != nil {
			return false, fmt.Errorf("update checkout: %w", err)
		}

		return false, nil
	}

	logger.InfoKV(ctx, "Cloning repository", "url", s.URL, "dir", s.Dir)

	if err := s.Runner.Run(ctx, "git", "clone", "--branch", s.Branch, s.URL, s.Dir); err != nil {
		return false, fmt.Errorf("clone repository: %w", err)
	}

	return true, nil
}

// exists reports whether Dir already holds a git checkout.
// The .git marker distinguishes a checkout from a leftover plain directory.
func (s Syncer) exists() bool {
	_, err := os.Stat(filepath.Join(s.Dir, ".git"))
	return err == nil
}
