package cprman

import (
	"testing"
)

func TestChooseNdivFdiv(t *testing.T) {
	tests := []struct {
		rate       uint64
		parentRate uint64
		wantNdiv   uint32
		wantFdiv   uint32
	}{
		// 78.125 * 19.2MHz; .125 * 2^20 = 131072
		{1500000000, 19200000, 78, 131072},
		// Exact integer multiple
		{2400000000, 19200000, 125, 0},
		{1000000000, 19200000, 52, 87381},
		// Pi 4 crystal
		{1500000000, 54000000, 27, 815559},
	}

	for _, test := range tests {
		ndiv, fdiv := chooseNdivFdiv(test.rate, test.parentRate)
		if ndiv != test.wantNdiv || fdiv != test.wantFdiv {
			t.Errorf("chooseNdivFdiv(%d, %d) got: %d/%d, want: %d/%d",
				test.rate, test.parentRate, ndiv, fdiv, test.wantNdiv, test.wantFdiv)
		}
	}
}

func TestPLLRoundRate(t *testing.T) {
	fr := newFakeRegs()
	p := &PLL{New(fr), &pllcData}

	// One fractional-divisor step at 19.2MHz is ~18.3Hz; rounding never
	// moves the rate by more than that.
	step := uint64(19200000 >> A2W_PLL_FRAC_BITS)
	for rate := uint64(600000000); rate <= 1750000000; rate += 12345678 {
		got := p.RoundRate(rate, 19200000)
		if got > rate || rate-got > step+1 {
			t.Errorf("RoundRate(%d) got: %d, off by %d", rate, got, rate-got)
		}
	}

	// Exact multiples survive untouched.
	if got := p.RoundRate(1500000000, 19200000); got != 1500000000 {
		t.Errorf("RoundRate(1.5GHz) got: %d, want: 1500000000", got)
	}
}

// Programming any in-range rate and reading it back lands within two
// fractional-divisor steps (one step of quantization, doubled when the
// feedback pre-divider halves the stored rate).
func TestPLLSetRateRoundTrip(t *testing.T) {
	fr := newFakeRegs()
	p := &PLL{New(fr), &pllcData}

	bound := uint64(2*(19200000>>A2W_PLL_FRAC_BITS) + 2)
	for rate := uint64(600000000); rate <= 3000000000; rate += 98765432 {
		if err := p.SetRate(rate, 19200000); err != nil {
			t.Fatalf("SetRate(%d): %v", rate, err)
		}
		got := p.GetRate(19200000)
		diff := got - rate
		if got < rate {
			diff = rate - got
		}
		if diff > bound {
			t.Errorf("SetRate(%d) read back %d, off by %d", rate, got, diff)
		}

		wantFB := rate > pllcData.maxFBRate
		gotFB := fr.mem[A2W_PLLC_ANA0+4]&(1<<14) != 0
		if gotFB != wantFB {
			t.Errorf("rate %d: fb prediv got: %v, want: %v", rate, gotFB, wantFB)
		}
	}
}

func TestPLLSetRateOutOfRange(t *testing.T) {
	fr := newFakeRegs()
	p := &PLL{New(fr), &pllcData}

	tests := []uint64{0, 100000000, 599999999, 3000000001}
	for _, rate := range tests {
		if err := p.SetRate(rate, 19200000); err != ErrOutOfRange {
			t.Errorf("SetRate(%d) got: %v, want: %v", rate, err, ErrOutOfRange)
		}
	}
	if len(fr.writes) != 0 {
		t.Errorf("out-of-range SetRate wrote %d registers, want 0", len(fr.writes))
	}
}

// Above maxFBRate the VCO runs at half the requested rate with the feedback
// pre-divider engaged, and readback doubles ndiv again.
func TestPLLSetRateFBPrediv(t *testing.T) {
	fr := newFakeRegs()
	p := &PLL{New(fr), &pllcData}

	if err := p.SetRate(3000000000, 19200000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	if got := fr.mem[A2W_PLLC_FRAC]; got != 131072 {
		t.Errorf("FRAC got: %d, want: 131072", got)
	}
	ctrl := fr.mem[A2W_PLLC_CTRL]
	if ndiv := (ctrl & A2W_PLL_CTRL_NDIV_MASK) >> A2W_PLL_CTRL_NDIV_SHIFT; ndiv != 78 {
		t.Errorf("NDIV got: %d, want: 78", ndiv)
	}
	if pdiv := (ctrl & A2W_PLL_CTRL_PDIV_MASK) >> A2W_PLL_CTRL_PDIV_SHIFT; pdiv != 1 {
		t.Errorf("PDIV got: %d, want: 1", pdiv)
	}
	if fr.mem[A2W_PLLC_ANA0+4]&(1<<14) == 0 {
		t.Errorf("ANA1 %08X: fb prediv bit not set", fr.mem[A2W_PLLC_ANA0+4])
	}
	if fr.mem[A2W_XOSC_CTRL]&A2W_XOSC_CTRL_PLLC_ENABLE == 0 {
		t.Errorf("XOSC_CTRL %08X: reference not unmasked", fr.mem[A2W_XOSC_CTRL])
	}

	// Turning the pre-divider on, the divisor has to land before the
	// analog setup.
	if fi, ai := fr.writeIndex(A2W_PLLC_FRAC), fr.writeIndex(A2W_PLLC_ANA0+4); fi > ai {
		t.Errorf("divisor write (%d) after ana write (%d)", fi, ai)
	}

	// Readback sees ndiv doubled: 156.125 * 19.2MHz.
	if got := p.GetRate(19200000); got != 2997600000 {
		t.Errorf("GetRate got: %d, want: 2997600000", got)
	}
}

func TestPLLSetRateAnaFirst(t *testing.T) {
	fr := newFakeRegs()
	p := &PLL{New(fr), &pllcData}

	// No pre-divider needed: analog setup is written before the divisor.
	if err := p.SetRate(1000000000, 19200000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	if ai, fi := fr.writeIndex(A2W_PLLC_ANA0+4), fr.writeIndex(A2W_PLLC_FRAC); ai > fi {
		t.Errorf("ana write (%d) after divisor write (%d)", ai, fi)
	}
	if fr.mem[A2W_PLLC_ANA0+4]&(1<<14) != 0 {
		t.Errorf("ANA1 %08X: fb prediv bit set for sub-1.75GHz rate", fr.mem[A2W_PLLC_ANA0+4])
	}
	if got := p.GetRate(19200000); got != 999999993 {
		t.Errorf("GetRate got: %d, want: 999999993", got)
	}
}

func TestPLLEnable(t *testing.T) {
	fr := newFakeRegs()
	fr.mem[CM_PLLC] = CM_PLL_ANARST
	fr.mem[CM_LOCK] = CM_LOCK_FLOCKC
	p := &PLL{New(fr), &pllcData}

	if err := p.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if fr.mem[CM_PLLC]&CM_PLL_ANARST != 0 {
		t.Errorf("CM_PLLC %08X: still in reset", fr.mem[CM_PLLC])
	}
}

func TestPLLEnableTimeout(t *testing.T) {
	fr := newFakeRegs()
	p := &PLL{New(fr), &pllcData}
	p.cm.retries = 3

	if err := p.Enable(); err != ErrTimeout {
		t.Errorf("Enable without lock bit got: %v, want: %v", err, ErrTimeout)
	}
}

func TestPLLDisable(t *testing.T) {
	fr := newFakeRegs()
	fr.mem[A2W_PLLC_CTRL] = A2W_PLL_CTRL_PRST_DISABLE | 78
	p := &PLL{New(fr), &pllcData}

	if !p.IsEnabled() {
		t.Fatalf("IsEnabled got false before Disable")
	}
	if err := p.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if fr.mem[CM_PLLC] != CM_PLL_ANARST {
		t.Errorf("CM_PLLC got: %08X, want: %08X", fr.mem[CM_PLLC], uint32(CM_PLL_ANARST))
	}
	if fr.mem[A2W_PLLC_CTRL] != A2W_PLL_CTRL_PWRDN {
		t.Errorf("A2W ctrl got: %08X, want: %08X", fr.mem[A2W_PLLC_CTRL], uint32(A2W_PLL_CTRL_PWRDN))
	}
	if p.IsEnabled() {
		t.Errorf("IsEnabled got true after Disable")
	}
}
