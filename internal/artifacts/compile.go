package artifacts

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
)

// Compile runs the project's compile command (e.g. "npx hardhat compile")
// in dir. The command is split using shell quoting rules but not run
// through a shell.
func Compile(ctx context.Context, dir string, command string, log logrus.FieldLogger) error {
	args, err := shellquote.Split(command)
	if err != nil {
		return fmt.Errorf("invalid compile command %q: %w", command, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("empty compile command")
	}

	log.WithField("command", command).Info("Compiling contracts...")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("compile command failed: %w\nOutput: %s", err, string(output))
	}

	log.WithField("output", string(output)).Debug("Compilation finished")
	return nil
}
