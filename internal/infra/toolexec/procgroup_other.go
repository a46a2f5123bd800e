//go:build !unix

package toolexec

import "os/exec"

// setProcessGroup is a no-op; CommandContext kills the root process only.
func setProcessGroup(cmd *exec.Cmd) {}
