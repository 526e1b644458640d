//go:build linux

package refresh

import "golang.org/x/sys/unix"

// realtimeNice is the nice value of the refresh thread
const realtimeNice = -10

func raisePriority() error {
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), realtimeNice)
}
