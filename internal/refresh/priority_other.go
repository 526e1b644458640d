//go:build !linux

package refresh

import "errors"

func raisePriority() error {
	return errors.New("thread priority is only supported on linux")
}
