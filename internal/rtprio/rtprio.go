// Package rtprio applies a best-effort real-time scheduling hint to
// the goroutine that hosts the RF front-end's device callback, so the
// OS thread backing it is less likely to be preempted under load.
// Grounded on doismellburning-samoyed's ptt.go use of
// golang.org/x/sys/unix for direct ioctl/syscall access on Linux.
package rtprio

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// HintCallbackThread locks the calling goroutine to its OS thread and
// sets that thread's nice value to niceDelta; a negative value raises
// its scheduling priority, a positive one lowers it. Failure is
// non-fatal: the
// pipeline runs correctly, only with less scheduling headroom, so
// callers should log the error rather than abort startup on it.
func HintCallbackThread(niceDelta int) error {
	runtime.LockOSThread()

	pid := unix.Gettid()
	if err := unix.Setpriority(unix.PRIO_PROCESS, pid, niceDelta); err != nil {
		return fmt.Errorf("rtprio: setpriority(tid=%d, nice=%d): %w", pid, niceDelta, err)
	}
	return nil
}
