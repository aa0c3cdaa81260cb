//go:build unix

package arena

import (
	"golang.org/x/sys/unix"
)

func newRegion(n int) (*Region, error) {
	if n <= 0 {
		n = 1
	}
	pageSize := unix.Getpagesize()
	size := (n + pageSize - 1) / pageSize * pageSize

	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	r := &Region{buf: buf[:n:size]}
	r.release = func() {
		unix.Munmap(buf)
	}
	return r, nil
}
