package rpi

import (
	"errors"
	"fmt"
	"os"
	"path"
	"syscall"
)

// The mailbox this file deals with is documented at
// https://github.com/raspberrypi/firmware/wiki/Mailbox-property-interface

const (
	VIDEOCORE_MAJOR_NUM = 100
	MEM_FILE            = "/dev/mem"
	VCIO_FILE           = "/dev/vcio"
	MBOX_DEV            = 100 << 20 // Assumes devices have 12-bit major, 20-bit minor numbers
	MBOX_MODE           = 0600
)

// ErrMboxNotReady is returned when the mailbox device doesn't exist yet;
// callers that can wait for the firmware interface to come up should retry.
var ErrMboxNotReady = errors.New("mailbox device not available")

// mboxOpenTemp creates a temporary device node for ioctl-ing with the mailbox, opens it and
// immediately removes the node once it's open. It returns the opened node.
func (rp *RPi) mboxOpenTemp() error {
	tf := path.Join(os.TempDir(), fmt.Sprintf("mailbox-%d", os.Getpid()))
	err := os.Remove(tf)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("couldn't remove temp mbox: %v", err)
	}
	err = syscall.Mknod(tf, syscall.S_IFCHR|MBOX_MODE, MBOX_DEV)
	if err != nil {
		return fmt.Errorf("couldn't make device node: %v", err)
	}
	f, err := os.OpenFile(tf, os.O_RDONLY, os.ModePerm)
	if err != nil {
		return fmt.Errorf("couldn't open temp mbox: %v", err)
	}
	err = os.Remove(tf)
	if err != nil {
		f.Close() // Ignore error
		return fmt.Errorf("couldn't remove temp mbox: %v", err)
	}
	rp.mbox = f
	return nil
}

// mboxOpen opens /dev/vcio for ioctl-ing with the mailbox. If that doesn't exist, it passes instead
// to mboxOpenTemp to get a temporary node.
func (rp *RPi) mboxOpen() error {
	var err error
	rp.mbox, err = os.OpenFile(VCIO_FILE, os.O_RDONLY, os.ModePerm)
	if os.IsNotExist(err) {
		err = rp.mboxOpenTemp()
	}
	if err != nil {
		return fmt.Errorf("couldn't open mbox: %v", err)
	}
	return nil
}

func (rp *RPi) mboxClose() error {
	return rp.mbox.Close()
}

// Property uses ioctl to send a prepared property buffer via the mailbox and
// waits for the in-place reply.
func (rp *RPi) Property(buf []uint32) error {
	if rp.mbox == nil {
		return ErrMboxNotReady
	}
	mboxProperty := iowr(VIDEOCORE_MAJOR_NUM, 0, uintptr(0))
	err := ioctlArrUint32(rp.mbox.Fd(), mboxProperty, buf)
	if err != nil {
		return fmt.Errorf("failed ioctl mbox property: %v", err)
	}
	return nil
}
