package app

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// commandResetter runs an external command, e.g. one that clears stored
// network credentials. An empty command does nothing.
type commandResetter struct {
	command string
	timeout time.Duration
	log     *zap.SugaredLogger
}

func (r *commandResetter) Reset(ctx context.Context) error {
	if r.command == "" {
		r.log.Infow("no reset command configured; restarting only")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "sh", "-c", r.command).CombinedOutput()
	if err != nil {
		return fmt.Errorf("reset command: %w: %s", err, out)
	}
	r.log.Infow("reset command finished", "output", string(out))
	return nil
}
