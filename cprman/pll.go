package cprman

import (
	"log"
)

// pllAnaBits describes the analog-config words for one PLL. The masks and
// values differ between the default layout and PLLH because the register
// layout moved around; in particular the feedback pre-divider bit lives at a
// different position in ANA1.
type pllAnaBits struct {
	mask0, set0 uint32
	mask1, set1 uint32
	mask3, set3 uint32

	fbPredivBit uint
}

var anaDefault = pllAnaBits{
	mask0: 0,
	set0:  0,
	mask1: ^uint32((7 << 19) | (15 << 15)),
	set1:  (2 << 19) | (8 << 15),
	mask3: ^uint32(7 << 7),
	set3:  6 << 1,

	fbPredivBit: 14,
}

var anaPllh = pllAnaBits{
	mask0: ^uint32((7 << 19) | (3 << 22)),
	set0:  (2 << 19) | (2 << 22),
	mask1: ^uint32((1 << 0) | (15 << 1)),
	set1:  6 << 1,
	mask3: 0,
	set3:  0,

	fbPredivBit: 11,
}

// pllData is the static description of one PLL.
type pllData struct {
	name       string
	cmCtrlReg  uint32
	a2wCtrlReg uint32
	fracReg    uint32
	anaRegBase uint32
	// Bit in A2W_XOSC_CTRL gating the crystal reference into this PLL.
	refEnableMask uint32
	// Bit in CM_LOCK that indicates this PLL has locked.
	lockMask uint32

	ana *pllAnaBits

	minRate uint64
	maxRate uint64
	// Highest VCO rate before the feedback pre-divide-by-2 is needed.
	maxFBRate uint64
}

// PLL is one phase-locked loop. All five derive from the crystal oscillator.
type PLL struct {
	cm   *Cprman
	data *pllData
}

func (p *PLL) Name() string {
	return p.data.name
}

func (p *PLL) Parent() string {
	return OscName
}

func (p *PLL) IsEnabled() bool {
	return p.cm.read(p.data.a2wCtrlReg)&A2W_PLL_CTRL_PRST_DISABLE != 0
}

// Enable takes the PLL out of analog reset and waits for it to lock.
func (p *PLL) Enable() error {
	p.cm.mu.Lock()
	p.cm.write(p.data.cmCtrlReg, p.cm.read(p.data.cmCtrlReg)&^uint32(CM_PLL_ANARST))
	p.cm.mu.Unlock()

	return p.cm.waitFor(p.data.name+" lock", CM_LOCK, p.data.lockMask, p.data.lockMask)
}

// Disable puts the PLL in reset and powers down the A2W wrapper. Not
// reversible mid-flight; Enable starts over.
func (p *PLL) Disable() error {
	p.cm.write(p.data.cmCtrlReg, CM_PLL_ANARST)
	p.cm.write(p.data.a2wCtrlReg, A2W_PLL_CTRL_PWRDN)
	return nil
}

// chooseNdivFdiv splits rate/parentRate into the integer multiplier and the
// 20-bit fractional part the hardware wants.
func chooseNdivFdiv(rate, parentRate uint64) (ndiv, fdiv uint32) {
	div := (rate << A2W_PLL_FRAC_BITS) / parentRate
	ndiv = uint32(div >> A2W_PLL_FRAC_BITS)
	fdiv = uint32(div) & A2W_PLL_FRAC_MASK
	return
}

func pllRateFromDivisors(parentRate uint64, ndiv, fdiv, pdiv uint32) uint64 {
	if pdiv == 0 {
		return 0
	}
	rate := parentRate * uint64(ndiv<<A2W_PLL_FRAC_BITS+fdiv)
	rate /= uint64(pdiv)
	return rate >> A2W_PLL_FRAC_BITS
}

func (p *PLL) GetRate(parentRate uint64) uint64 {
	if parentRate == 0 {
		return 0
	}
	a2wctrl := p.cm.read(p.data.a2wCtrlReg)
	fdiv := p.cm.read(p.data.fracReg) & A2W_PLL_FRAC_MASK
	ndiv := (a2wctrl & A2W_PLL_CTRL_NDIV_MASK) >> A2W_PLL_CTRL_NDIV_SHIFT
	pdiv := (a2wctrl & A2W_PLL_CTRL_PDIV_MASK) >> A2W_PLL_CTRL_PDIV_SHIFT

	if p.cm.read(p.data.anaRegBase+4)&(1<<p.data.ana.fbPredivBit) != 0 {
		ndiv *= 2
	}

	return pllRateFromDivisors(parentRate, ndiv, fdiv, pdiv)
}

// RoundRate reports the rate the divisor pair chosen for rate would actually
// produce. It always evaluates with pdiv=1, so when SetRate ends up using the
// feedback pre-divider the answer is an approximation, not the exact
// post-set readback.
func (p *PLL) RoundRate(rate, parentRate uint64) uint64 {
	ndiv, fdiv := chooseNdivFdiv(rate, parentRate)
	return pllRateFromDivisors(parentRate, ndiv, fdiv, 1)
}

// SetRate programs the VCO to rate. Rates above maxFBRate are halved and run
// through the feedback pre-divider instead.
func (p *PLL) SetRate(rate, parentRate uint64) error {
	data := p.data
	if rate < data.minRate || rate > data.maxRate {
		log.Printf("%s: rate out of spec: %d vs (%d, %d)\n", data.name, rate, data.minRate, data.maxRate)
		return ErrOutOfRange
	}

	useFBPrediv := rate > data.maxFBRate
	if useFBPrediv {
		rate /= 2
	}

	ndiv, fdiv := chooseNdivFdiv(rate, parentRate)
	pdiv := uint32(1)

	p.cm.mu.Lock()
	defer p.cm.mu.Unlock()

	ana3 := p.cm.read(data.anaRegBase + 12)
	ana2 := p.cm.read(data.anaRegBase + 8)
	ana1 := p.cm.read(data.anaRegBase + 4)
	ana0 := p.cm.read(data.anaRegBase + 0)

	ana0 &= ^data.ana.mask0
	ana0 |= data.ana.set0
	ana1 &= ^data.ana.mask1
	ana1 |= data.ana.set1
	ana3 &= ^data.ana.mask3
	ana3 |= data.ana.set3

	// The order of the analog-config writes against the divisor write
	// matters: turning the pre-divider off (or leaving it alone) needs
	// the analog setup first, turning it on needs it after, or the PLL
	// briefly sees an out-of-range feedback ratio.
	fbBit := uint32(1) << data.ana.fbPredivBit
	anaSetupFirst := true
	if ana1&fbBit != 0 && !useFBPrediv {
		ana1 &^= fbBit
	} else if ana1&fbBit == 0 && useFBPrediv {
		ana1 |= fbBit
		anaSetupFirst = false
	}

	// Unmask the reference clock from the oscillator.
	p.cm.write(A2W_XOSC_CTRL, p.cm.read(A2W_XOSC_CTRL)|data.refEnableMask)

	if anaSetupFirst {
		p.writeAna(ana0, ana1, ana2, ana3)
	}

	p.cm.write(data.fracReg, fdiv)
	p.cm.write(data.a2wCtrlReg,
		(p.cm.read(data.a2wCtrlReg)&^uint32(A2W_PLL_CTRL_NDIV_MASK|A2W_PLL_CTRL_PDIV_MASK))|
			ndiv<<A2W_PLL_CTRL_NDIV_SHIFT|
			pdiv<<A2W_PLL_CTRL_PDIV_SHIFT)

	if !anaSetupFirst {
		p.writeAna(ana0, ana1, ana2, ana3)
	}

	return nil
}

// writeAna writes the four analog config words high to low, the order the
// hardware wants them refreshed in.
func (p *PLL) writeAna(ana0, ana1, ana2, ana3 uint32) {
	p.cm.write(p.data.anaRegBase+12, ana3)
	p.cm.write(p.data.anaRegBase+8, ana2)
	p.cm.write(p.data.anaRegBase+4, ana1)
	p.cm.write(p.data.anaRegBase+0, ana0)
}
