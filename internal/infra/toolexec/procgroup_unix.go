//go:build unix

package toolexec

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts cmd as a group leader so cancellation also kills the
// helpers a tool spawns (yt-dlp runs ffmpeg for merging).
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if err == syscall.ESRCH {
			return nil
		}
		if err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
