package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// maxExecOutput caps how much captured output is fed back to the model.
const maxExecOutput = 1 << 20

// maxExecTimeout is the upper bound a tool call may request.
const maxExecTimeout = 300 * time.Second

type executeCommandArgs struct {
	Command    string `json:"command" jsonschema:"description=The shell command to execute"`
	TimeoutSec int    `json:"timeout_sec,omitempty" jsonschema:"description=Timeout in seconds (default 60; capped at 300)"`
}

// RegisterExecTool adds the shell execution tool to r. defaultTimeout
// bounds commands that do not request their own timeout.
func RegisterExecTool(r *Registry, logger *zap.Logger, defaultTimeout time.Duration) error {
	return register(r, []registration{
		{
			name: "execute_command",
			description: "Execute a shell command and return its exit code and output. Destructive commands " +
				"(recursive deletes from root, dd, fork bombs, shutdown, mkfs and similar) are blocked by a safety filter.",
			schema:  ReflectSchema[executeCommandArgs],
			handler: makeExecHandler(logger, defaultTimeout),
		},
	})
}

// denyPatterns are compiled regular expressions that match destructive
// shell commands. The list is a safety net, not a security boundary.
var denyPatterns = []*regexp.Regexp{
	// Recursive force-delete from root or everything in reach.
	regexp.MustCompile(`\brm\s+(-[^\s]*)?-r[^\s]*f[^\s]*\s+/\s*$`),
	regexp.MustCompile(`\brm\s+(-[^\s]*)?-f[^\s]*r[^\s]*\s+/\s*$`),
	regexp.MustCompile(`\brm\s+-rf\s+/\b`),
	regexp.MustCompile(`\brm\s+-fr\s+/\b`),
	regexp.MustCompile(`\brm\s+-rf\s+\*`),

	// dd with an input source can overwrite anything.
	regexp.MustCompile(`\bdd\s+if=`),

	// Fork bombs.
	regexp.MustCompile(`:\(\)\s*\{\s*:\|:\s*&\s*\}\s*;`),
	regexp.MustCompile(`\.\(\)\s*\{\s*\.\|\.\s*&\s*\}\s*;`),

	// System power control.
	regexp.MustCompile(`\b(shutdown|reboot|poweroff|halt|init\s+[06])\b`),

	// Filesystem creation and formatting.
	regexp.MustCompile(`\b(mkfs|mkfs\.\w+|format)\b`),

	// Writing directly to block devices.
	regexp.MustCompile(`>\s*/dev/sd`),
	regexp.MustCompile(`>\s*/dev/nvme`),
	regexp.MustCompile(`>\s*/dev/vd`),
	regexp.MustCompile(`>\s*/dev/hd`),
	regexp.MustCompile(`>\s*/dev/mmcblk`),

	// Recursive permission changes on root.
	regexp.MustCompile(`\bchmod\s+-R\s+\d+\s+/\s*$`),
	regexp.MustCompile(`\bchown\s+-R\s+\S+\s+/\s*$`),

	// Wiping partition tables.
	regexp.MustCompile(`\bwipefs\b.*-a\b`),
	regexp.MustCompile(`\bsgdisk\b.*--zap-all\b`),

	// Filling disks.
	regexp.MustCompile(`\byes\b.*>\s*/dev/`),
	regexp.MustCompile(`\bcat\s+/dev/(zero|urandom)\s*>\s*/dev/`),
}

// isDeniedCommand checks if a command matches any deny pattern.
func isDeniedCommand(command string) (bool, string) {
	for _, pat := range denyPatterns {
		if pat.MatchString(command) {
			return true, pat.String()
		}
	}
	return false, ""
}

func makeExecHandler(logger *zap.Logger, defaultTimeout time.Duration) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		command := getStringArg(args, "command")

		if denied, pattern := isDeniedCommand(command); denied {
			logger.Warn("blocked dangerous command",
				zap.String("command", command),
				zap.String("pattern", pattern),
			)
			return errorJSON("command blocked by safety filter", map[string]any{"command": command})
		}

		timeout := defaultTimeout
		if override := getIntArg(args, "timeout_sec", 0); override > 0 {
			timeout = time.Duration(override) * time.Second
			if timeout > maxExecTimeout {
				timeout = maxExecTimeout
			}
		}

		shell, shellFlag := "/bin/sh", "-c"
		if runtime.GOOS == "windows" {
			shell, shellFlag = "cmd", "/C"
		}

		logger.Debug("executing command",
			zap.String("shell", shell),
			zap.String("command", command),
			zap.Duration("timeout", timeout),
		)

		execCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(execCtx, shell, shellFlag, command)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()
		if execCtx.Err() == context.DeadlineExceeded {
			return errorJSON("command timed out", map[string]any{
				"command":     command,
				"timeout_sec": int(timeout.Seconds()),
			})
		}

		returncode := 0
		if err != nil {
			exitErr, ok := err.(*exec.ExitError)
			if !ok {
				return errorJSON("failed to execute command", map[string]any{
					"error":   err.Error(),
					"command": command,
				})
			}
			returncode = exitErr.ExitCode()
		}

		status := "ok"
		if returncode != 0 {
			status = "error"
		}
		return marshalResult(map[string]any{
			"status":     status,
			"returncode": returncode,
			"stdout":     truncateOutput(stdout.String()),
			"stderr":     truncateOutput(stderr.String()),
			"platform":   runtime.GOOS,
		})
	}
}

func truncateOutput(s string) string {
	if len(s) <= maxExecOutput {
		return s
	}
	return s[:maxExecOutput] + fmt.Sprintf("\n[output truncated at %d bytes, total was %d bytes]", maxExecOutput, len(s))
}
