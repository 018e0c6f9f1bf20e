package cprman

// pllDividerData describes one output channel tap off a PLL. The load/hold
// bits for the channel live in the owning PLL's CM control register, which is
// why the node carries a reference to the PLL's data instead of copying
// offsets around.
type pllDividerData struct {
	name   string
	source *pllData
	cmReg  uint32
	a2wReg uint32

	loadMask uint32
	holdMask uint32
	// The PLLH channels have a fixed /10 after the 8-bit divider; everyone
	// else is 1.
	fixedDivider uint32
}

// PLLDivider divides its parent PLL's VCO rate by an 8-bit integer. A raw
// divisor of 0 means 256.
type PLLDivider struct {
	cm   *Cprman
	data *pllDividerData
}

func (d *PLLDivider) Name() string {
	return d.data.name
}

func (d *PLLDivider) Parent() string {
	return d.data.source.name
}

func (d *PLLDivider) IsEnabled() bool {
	return d.cm.read(d.data.a2wReg)&A2W_PLL_CHANNEL_DISABLE == 0
}

// Enable un-disables the channel and then releases hold, in that order: if
// hold drops while the channel is still disabled the output glitches.
func (d *PLLDivider) Enable() error {
	d.cm.mu.Lock()
	defer d.cm.mu.Unlock()

	d.cm.write(d.data.a2wReg, d.cm.read(d.data.a2wReg)&^uint32(A2W_PLL_CHANNEL_DISABLE))
	d.cm.write(d.data.cmReg, d.cm.read(d.data.cmReg)&^d.data.holdMask)
	return nil
}

// Disable is the inverse sequence: hold first, then channel-disable.
func (d *PLLDivider) Disable() error {
	d.cm.mu.Lock()
	defer d.cm.mu.Unlock()

	d.cm.write(d.data.cmReg, d.cm.read(d.data.cmReg)&^d.data.loadMask|d.data.holdMask)
	d.cm.write(d.data.a2wReg, A2W_PLL_CHANNEL_DISABLE)
	return nil
}

func (d *PLLDivider) rawDiv() uint32 {
	div := d.cm.read(d.data.a2wReg) & ((1 << A2W_PLL_DIV_BITS) - 1)
	if div == 0 {
		div = 256
	}
	return div
}

func (d *PLLDivider) GetRate(parentRate uint64) uint64 {
	return parentRate / uint64(d.rawDiv()) / uint64(d.data.fixedDivider)
}

// chooseDiv picks the nearest integer divisor for rate, clamped to the 8-bit
// range.
func (d *PLLDivider) chooseDiv(rate, parentRate uint64) uint32 {
	if rate == 0 {
		return 255
	}
	div := (parentRate + rate/2) / rate
	if div < 1 {
		div = 1
	} else if div > 255 {
		div = 255
	}
	return uint32(div)
}

func (d *PLLDivider) RoundRate(rate, parentRate uint64) uint64 {
	return parentRate / uint64(d.chooseDiv(rate*uint64(d.data.fixedDivider), parentRate)) /
		uint64(d.data.fixedDivider)
}

// SetRate writes the divisor and pulses the load bit in the parent PLL's
// control register. The two-write pulse is what latches the new divisor; a
// single write isn't observed by the hardware.
func (d *PLLDivider) SetRate(rate, parentRate uint64) error {
	div := d.chooseDiv(rate*uint64(d.data.fixedDivider), parentRate)

	d.cm.mu.Lock()
	defer d.cm.mu.Unlock()

	d.cm.write(d.data.a2wReg,
		d.cm.read(d.data.a2wReg)&^uint32((1<<A2W_PLL_DIV_BITS)-1)|div)

	cm := d.cm.read(d.data.cmReg)
	d.cm.write(d.data.cmReg, cm|d.data.loadMask)
	d.cm.write(d.data.cmReg, cm&^d.data.loadMask)
	return nil
}
