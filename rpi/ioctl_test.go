package rpi

import (
	"testing"
	"unsafe"
)

// The magic constant below was produced by printf-ing
// _IOWR(100, 0, char *) from C, which gives C0046400 for a 32-bit
// userspace and C0086400 for a 64-bit one; the size field tracks the
// pointer width. See
// https://github.com/raspberrypi/linux/blob/rpi-5.4.y/include/uapi/asm-generic/ioctl.h

func TestIowr(t *testing.T) {
	ptrSize := uint32(unsafe.Sizeof(uintptr(0)))

	tests := []struct {
		name string
		typ  uint32
		nr   uint32
		size interface{}
		want uint32
	}{
		{"IOCTL_MBOX_PROPERTY", VIDEOCORE_MAJOR_NUM, 0, uintptr(0),
			0xC0006400 | ptrSize<<_IOC_SIZESHIFT},
	}

	for _, test := range tests {
		if got := iowr(test.typ, test.nr, test.size); got != test.want {
			t.Errorf("iowr, %s got: %08X, want: %08X", test.name, got, test.want)
		}
	}
}
