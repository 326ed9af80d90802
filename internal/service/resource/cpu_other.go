//go:build !unix

package resource

import "time"

// cpuTimes is unsupported off unix; CPU columns report zero.
func cpuTimes() (user, system time.Duration) {
	return 0, 0
}
