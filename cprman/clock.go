package cprman

import (
	"fmt"
)

// clockData describes one peripheral clock generator. The divisor register is
// a 12.12 fixed-point field, but each clock only populates intBits.fracBits
// of it, aligned to the top of each half.
type clockData struct {
	name string

	parents []string

	ctlReg uint32
	divReg uint32

	intBits  uint
	fracBits uint

	// The VPU clock drives the bus for everything else and has no enable
	// bit; it can't be gated and rate changes don't need the gate dance.
	isNonstop bool
}

// Clock is a consumer-facing clock generator: a mux across candidate
// parents, a fixed-point divider and a gate.
type Clock struct {
	cm   *Cprman
	data *clockData
}

func (k *Clock) Name() string {
	return k.data.name
}

// Parent reports the name of the currently muxed parent. Mux positions
// beyond the candidate list read as ground.
func (k *Clock) Parent() string {
	src := int(k.cm.read(k.data.ctlReg) >> CM_SRC_SHIFT & CM_SRC_MASK)
	if src >= len(k.data.parents) {
		return k.data.parents[0]
	}
	return k.data.parents[src]
}

// ParentIndex reports the raw mux selection.
func (k *Clock) ParentIndex() int {
	return int(k.cm.read(k.data.ctlReg) >> CM_SRC_SHIFT & CM_SRC_MASK)
}

// SetParentIndex programs the mux. It doesn't touch the divisor: recomputing
// the divisor against the new parent's rate is the caller's job, as is
// gating the clock first if its consumer can't ride through the transient.
func (k *Clock) SetParentIndex(idx int) error {
	if idx < 0 || idx >= len(k.data.parents) {
		return fmt.Errorf("%s: mux index %d out of range (%d parents)", k.data.name, idx, len(k.data.parents))
	}

	k.cm.mu.Lock()
	defer k.cm.mu.Unlock()

	ctl := k.cm.read(k.data.ctlReg) &^ uint32(CM_SRC_MASK<<CM_SRC_SHIFT)
	k.cm.write(k.data.ctlReg, ctl|uint32(idx)<<CM_SRC_SHIFT)
	return nil
}

// Parents lists the mux candidates in hardware order.
func (k *Clock) Parents() []string {
	return k.data.parents
}

func (k *Clock) IsEnabled() bool {
	if k.data.isNonstop {
		return true
	}
	return k.cm.read(k.data.ctlReg)&CM_ENABLE != 0
}

func (k *Clock) Enable() error {
	if k.data.isNonstop {
		return nil
	}

	k.cm.mu.Lock()
	defer k.cm.mu.Unlock()

	k.cm.write(k.data.ctlReg, k.cm.read(k.data.ctlReg)|CM_ENABLE|CM_GATE)
	return nil
}

// Disable clears the enable bit and then waits for BUSY to drop: the divider
// finishes its in-flight cycle first, and cutting it short leaves the
// divider state undefined.
func (k *Clock) Disable() error {
	if k.data.isNonstop {
		return nil
	}

	k.cm.mu.Lock()
	k.cm.write(k.data.ctlReg, k.cm.read(k.data.ctlReg)&^uint32(CM_ENABLE))
	k.cm.mu.Unlock()

	return k.cm.waitFor(k.data.name+" idle", k.data.ctlReg, CM_BUSY, 0)
}

// chooseDiv computes the 12.12 divisor for rate, rounded to this clock's
// actual precision and clamped to its representable range.
func (k *Clock) chooseDiv(rate, parentRate uint64) uint32 {
	unusedFracMask := uint32(1<<(CM_DIV_FRAC_BITS-k.data.fracBits)) - 1
	if rate == 0 {
		rate = 1 // clamps to the max divisor below
	}
	div := uint32((parentRate << CM_DIV_FRAC_BITS) / rate)

	// Round and mask off the bits below this clock's precision.
	if unusedFracMask != 0 {
		div += unusedFracMask >> 1
		div &= ^unusedFracMask
	}

	// Clamp to the smallest non-zero step and the widest representable
	// value. A divisor of 0 is never valid.
	if div < unusedFracMask+1 {
		div = unusedFracMask + 1
	}
	max := uint32(1<<(k.data.intBits+CM_DIV_FRAC_BITS)-1) &^ unusedFracMask
	if div > max {
		div = max
	}
	return div
}

// rateFromDivisor is the inverse of chooseDiv for a raw register value.
func (k *Clock) rateFromDivisor(parentRate uint64, div uint32) uint64 {
	div >>= CM_DIV_FRAC_BITS - k.data.fracBits
	div &= 1<<(k.data.intBits+k.data.fracBits) - 1

	if div == 0 {
		return 0
	}

	return (parentRate << k.data.fracBits) / uint64(div)
}

func (k *Clock) GetRate(parentRate uint64) uint64 {
	return k.rateFromDivisor(parentRate, k.cm.read(k.data.divReg))
}

func (k *Clock) RoundRate(rate, parentRate uint64) uint64 {
	return k.rateFromDivisor(parentRate, k.chooseDiv(rate, parentRate))
}

// SetRate writes the new divisor. No load/hold handshake is needed here, the
// gate/busy machinery covers the transition; if the clock is currently
// disabled the value simply takes effect on the next enable.
func (k *Clock) SetRate(rate, parentRate uint64) error {
	k.cm.write(k.data.divReg, k.chooseDiv(rate, parentRate))
	return nil
}
