// Package fwclk drives the clocks the ARM has no register access to: the
// VideoCore firmware owns their CLOCKMAN state, so every operation is a
// property-mailbox round trip. There's no interface for asking what
// frequencies are available; we request a rate and take what the firmware
// gives us.
package fwclk

import (
	"fmt"
	"sync"
)

// Mailbox sends one prepared property buffer to the firmware and fills in
// the reply in place. rpi.RPi satisfies this.
type Mailbox interface {
	Property(buf []uint32) error
}

const (
	MBOX_REQUEST = 0x00000000
	MBOX_SUCCESS = 0x80000000

	TAG_GET_CLOCK_STATE = 0x00030001
	TAG_SET_CLOCK_STATE = 0x00038001
	TAG_GET_CLOCK_RATE  = 0x00030002
	TAG_SET_CLOCK_RATE  = 0x00038002

	// State replies carry the on/off bit, or an error flag for unknown
	// clocks.
	CLOCK_STATE_ENABLED = 1 << 0
	CLOCK_STATE_ERROR   = 1 << 1

	// A rate of 0 in a set-rate reply means the firmware rejected it.
	SET_CLOCK_RATE_ERROR = 0
)

// ClockID is the firmware's clock numbering, from the mailbox property
// interface docs.
type ClockID uint32

const (
	CLOCK_EMMC ClockID = iota + 1
	CLOCK_UART0
	CLOCK_ARM
	CLOCK_CORE
	CLOCK_V3D
	CLOCK_H264
	CLOCK_ISP
	CLOCK_SDRAM
	CLOCK_PIXEL
	CLOCK_PWM
)

// TransportError wraps a mailbox failure so callers can tell "the firmware
// said no" from "we couldn't ask". No retry happens here; that's the
// transport owner's call.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mailbox transport: %v", e.Err)
}

// Firmware is a handle on the firmware's clock service. One transaction is
// in flight at a time; the embedded lock serializes them. Construct it at
// bind time and pass it around explicitly.
type Firmware struct {
	mbox Mailbox
	mu   sync.Mutex
}

func New(mbox Mailbox) *Firmware {
	return &Firmware{mbox: mbox}
}

// property submits a single tag with a [clock_id, value] payload and returns
// the reply pair from the same buffer positions.
func (f *Firmware) property(tag uint32, id ClockID, val uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf := []uint32{
		8 * 4,        // total buffer size
		MBOX_REQUEST, // process request
		tag,
		8, // size of the tag value to follow
		0, // request; firmware sets bit 31 and the response length
		uint32(id),
		val,
		0, // no more tags
	}
	err := f.mbox.Property(buf)
	if err != nil {
		return 0, &TransportError{err}
	}
	if buf[1] != MBOX_SUCCESS {
		return 0, fmt.Errorf("request %08X returned status %08X", tag, buf[1])
	}
	if buf[4]&0x80000000 == 0 {
		return 0, fmt.Errorf("response tag unset: %v", buf[4])
	}
	return buf[6], nil
}

// Clock is one firmware-owned clock.
type Clock struct {
	fw   *Firmware
	id   ClockID
	name string
}

var clockNames = map[ClockID]string{
	CLOCK_EMMC:  "emmc",
	CLOCK_UART0: "uart0",
	CLOCK_ARM:   "arm",
	CLOCK_CORE:  "core",
	CLOCK_V3D:   "v3d",
	CLOCK_H264:  "h264",
	CLOCK_ISP:   "isp",
	CLOCK_SDRAM: "sdram",
	CLOCK_PIXEL: "pixel",
	CLOCK_PWM:   "pwm",
}

// NewClock returns the node for one firmware clock ID.
func NewClock(fw *Firmware, id ClockID) (*Clock, error) {
	name, ok := clockNames[id]
	if !ok {
		return nil, fmt.Errorf("unknown firmware clock ID %d", id)
	}
	return &Clock{fw, id, name}, nil
}

// Clocks returns nodes for every clock the firmware exposes, in ID order.
func Clocks(fw *Firmware) []*Clock {
	cs := make([]*Clock, 0, len(clockNames))
	for id := CLOCK_EMMC; id <= CLOCK_PWM; id++ {
		cs = append(cs, &Clock{fw, id, clockNames[id]})
	}
	return cs
}

func (c *Clock) Name() string {
	return c.name
}

func (c *Clock) ID() ClockID {
	return c.id
}

func (c *Clock) IsEnabled() (bool, error) {
	state, err := c.fw.property(TAG_GET_CLOCK_STATE, c.id, 0)
	if err != nil {
		return false, fmt.Errorf("couldn't get %s state: %v", c.name, err)
	}
	if state&CLOCK_STATE_ERROR != 0 {
		return false, fmt.Errorf("%s: firmware reports no such clock", c.name)
	}
	return state&CLOCK_STATE_ENABLED != 0, nil
}

func (c *Clock) setState(on bool) error {
	val := uint32(0)
	if on {
		val = CLOCK_STATE_ENABLED
	}
	state, err := c.fw.property(TAG_SET_CLOCK_STATE, c.id, val)
	if err != nil {
		return fmt.Errorf("couldn't set %s state: %v", c.name, err)
	}
	if state&CLOCK_STATE_ERROR != 0 {
		return fmt.Errorf("%s: firmware reports no such clock", c.name)
	}
	return nil
}

func (c *Clock) Enable() error {
	return c.setState(true)
}

func (c *Clock) Disable() error {
	return c.setState(false)
}

// GetRate asks the firmware for the clock's rate in Hz. The firmware
// answers 0 both for unknown clocks and for clocks that are off.
func (c *Clock) GetRate() (uint64, error) {
	rate, err := c.fw.property(TAG_GET_CLOCK_RATE, c.id, 0)
	if err != nil {
		return 0, fmt.Errorf("couldn't get %s rate: %v", c.name, err)
	}
	return uint64(rate), nil
}

// SetRate requests the new rate in Hz. The wire format only carries 32 bits
// of rate, so anything larger is rejected here rather than truncated into a
// wrong request.
func (c *Clock) SetRate(rate uint64) error {
	if rate > 0xffffffff {
		return fmt.Errorf("%s: rate %d doesn't fit the firmware interface", c.name, rate)
	}
	got, err := c.fw.property(TAG_SET_CLOCK_RATE, c.id, uint32(rate))
	if err != nil {
		return fmt.Errorf("couldn't set %s rate: %v", c.name, err)
	}
	if got == SET_CLOCK_RATE_ERROR {
		return fmt.Errorf("%s: firmware rejected rate %d", c.name, rate)
	}
	return nil
}

// RoundRate reports what rate would result from SetRate. The firmware
// rounds internally but gives us no way to ask, so this just echoes the
// request; readback after SetRate is the only truth.
func (c *Clock) RoundRate(rate uint64) uint64 {
	return rate
}
