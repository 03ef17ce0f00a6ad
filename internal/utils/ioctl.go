package utils

import (
	"os"

	"golang.org/x/sys/unix"
)

// IOCtl はデバイスファイルに対してioctlシステムコールを発行する
func IOCtl(deviceFile *os.File, request, arg uintptr) error {
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		deviceFile.Fd(),
		request,
		arg,
	)
	if errno != 0 {
		return errno
	}
	return nil
}
