// Package cprman drives the BCM283x clock manager: the crystal oscillator,
// the five PLLs hanging off it, the per-PLL channel dividers and the final
// per-peripheral clock generators. It talks straight to the CM/A2W register
// window; see the fwclk package for the firmware-mediated alternative.
package cprman

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"sync"
	"time"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
)

var (
	// ErrOutOfRange is returned by SetRate when the requested rate is
	// outside the node's hardware-qualified range. Nothing has been
	// written when this is returned.
	ErrOutOfRange = errors.New("rate out of spec")

	// ErrTimeout is returned when a lock or busy wait exhausts its retry
	// budget. The hardware has never been seen doing this in the field,
	// but spinning forever would be worse.
	ErrTimeout = errors.New("timed out waiting for hardware")

	// ErrUnknownClock is returned by registry lookups for IDs or names
	// that don't exist in the tree.
	ErrUnknownClock = errors.New("unknown clock")
)

// RegIO is word access to the CM register window. Implementations don't
// apply the password; Cprman does that on every write, since the hardware
// ignores writes without it.
type RegIO interface {
	Read(reg uint32) uint32
	Write(reg uint32, val uint32)
}

const (
	waitRetries = 100000
	waitSleep   = 10 * time.Microsecond
)

// Cprman is one clock-manager block instance. All nodes of a tree share it:
// it owns the register window and the single lock serializing read-modify-
// write sequences (several nodes share control registers, so the lock can't
// be per-node). Busy-waits happen outside the lock.
type Cprman struct {
	regs RegIO
	mu   sync.Mutex

	// Retry budget for lock/busy waits, exposed so tests don't spend a
	// second per timeout.
	retries int
}

func New(regs RegIO) *Cprman {
	return &Cprman{regs: regs, retries: waitRetries}
}

func (c *Cprman) read(reg uint32) uint32 {
	return c.regs.Read(reg)
}

func (c *Cprman) write(reg uint32, val uint32) {
	c.regs.Write(reg, CM_PASSWORD|val)
}

// waitFor polls reg until (read & mask) == want, with a bounded number of
// retries. It must be called without the lock held.
func (c *Cprman) waitFor(what string, reg, mask, want uint32) error {
	for i := 0; i < c.retries; i++ {
		if c.read(reg)&mask == want {
			return nil
		}
		time.Sleep(waitSleep)
	}
	log.Printf("gave up waiting for %s: reg %03X reads %08X, mask %08X want %08X\n",
		what, reg, c.read(reg), mask, want)
	return ErrTimeout
}

// mmapRegs is the real hardware RegIO: a []uint32 view of the CM window
// mapped from /dev/mem.
type mmapRegs struct {
	words []uint32
}

// NewMmapRegs wraps a mapping of the CM register window. offs is the gap
// between the page-aligned start of the mapping and the window itself.
func NewMmapRegs(mm mmap.MMap, offs uintptr) (RegIO, error) {
	if len(mm) < int(offs)+CprmanWindowSize {
		return nil, fmt.Errorf("mapping too small: %d bytes for offset %d", len(mm), offs)
	}
	return &mmapRegs{words: uint32Slice(mm, offs)}, nil
}

// CprmanWindowSize covers the CM block and the A2W registers above it.
const CprmanWindowSize = 0x2000

// uint32Slice does terrible things to an MMap (which is itself a []byte) to
// return it as a []uint32 starting offs bytes in.
func uint32Slice(m mmap.MMap, offs uintptr) []uint32 {
	header := *(*reflect.SliceHeader)(unsafe.Pointer(&m))
	header.Len -= int(offs)
	header.Len /= 4
	header.Cap -= int(offs)
	header.Cap /= 4
	header.Data += offs
	return *(*[]uint32)(unsafe.Pointer(&header))
}

func (m *mmapRegs) Read(reg uint32) uint32 {
	return m.words[reg/4]
}

func (m *mmapRegs) Write(reg uint32, val uint32) {
	m.words[reg/4] = val
}
