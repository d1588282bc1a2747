package harness

import (
	"syscall"
)

// Darwin has no parent death signal; probes only get their own process group.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
