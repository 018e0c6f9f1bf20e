package cprman

import (
	"testing"
)

func TestTreeLookup(t *testing.T) {
	tr := NewTree(newFakeRegs(), 19200000)

	tests := []struct {
		id   ClockID
		name string
	}{
		{IDPLLC, "pllc"},
		{IDPLLHPix, "pllh_pix"},
		{IDClockTimer, "timer"},
		{IDClockPWM, "pwm"},
		{IDOsc, "osc"},
		{IDUART1PClk, "uart1_pclk"},
	}
	for _, test := range tests {
		n, err := tr.Lookup(test.id)
		if err != nil {
			t.Fatalf("Lookup(%d): %v", test.id, err)
		}
		if n.Name() != test.name {
			t.Errorf("Lookup(%d) got: %q, want: %q", test.id, n.Name(), test.name)
		}
		m, err := tr.LookupName(test.name)
		if err != nil {
			t.Fatalf("LookupName(%q): %v", test.name, err)
		}
		if m != n {
			t.Errorf("LookupName(%q) and Lookup(%d) disagree", test.name, test.id)
		}
	}

	if _, err := tr.Lookup(-1); err != ErrUnknownClock {
		t.Errorf("Lookup(-1) got: %v, want: %v", err, ErrUnknownClock)
	}
	if _, err := tr.Lookup(numClockIDs); err != ErrUnknownClock {
		t.Errorf("Lookup(max) got: %v, want: %v", err, ErrUnknownClock)
	}
	if _, err := tr.LookupName("bogus"); err != ErrUnknownClock {
		t.Errorf("LookupName(bogus) got: %v, want: %v", err, ErrUnknownClock)
	}

	if got := len(tr.Names()); got != int(numClockIDs) {
		t.Errorf("Names() got %d entries, want %d", got, int(numClockIDs))
	}
}

// Program the register file for PLLC at 3GHz feeding uart via pllc_per and
// check the rate walk resolves every level.
func TestTreeRateWalk(t *testing.T) {
	fr := newFakeRegs()
	fr.mem[A2W_PLLC_CTRL] = 78 | 1<<A2W_PLL_CTRL_PDIV_SHIFT
	fr.mem[A2W_PLLC_FRAC] = 131072
	fr.mem[A2W_PLLC_ANA0+4] = 1 << 14
	fr.mem[A2W_PLLC_PER] = 4
	fr.mem[CM_UARTCTL] = 5 // mux slot 5 is pllc_per
	fr.mem[CM_UARTDIV] = 2 << 12

	tr := NewTree(fr, 19200000)

	tests := []struct {
		name string
		want uint64
	}{
		{"osc", 19200000},
		{"sys_pclk", 250000000},
		{"pllc", 2997600000},
		{"pllc_per", 749400000},
		{"uart", 374700000},
		// timer's mux reads slot 0 = ground
		{"timer", 0},
	}
	for _, test := range tests {
		got, err := tr.Rate(test.name)
		if err != nil {
			t.Fatalf("Rate(%q): %v", test.name, err)
		}
		if got != test.want {
			t.Errorf("Rate(%q) got: %d, want: %d", test.name, got, test.want)
		}
	}

	if _, err := tr.Rate("bogus"); err != ErrUnknownClock {
		t.Errorf("Rate(bogus) got: %v, want: %v", err, ErrUnknownClock)
	}
	if got := tr.OscRate(); got != 19200000 {
		t.Errorf("OscRate got: %d, want: 19200000", got)
	}
}

func TestFixedClock(t *testing.T) {
	tr := NewTree(newFakeRegs(), 19200000)
	n, err := tr.Lookup(IDOsc)
	if err != nil {
		t.Fatalf("Lookup(IDOsc): %v", err)
	}

	if !n.IsEnabled() {
		t.Errorf("osc IsEnabled got false")
	}
	if got := n.GetRate(0); got != 19200000 {
		t.Errorf("GetRate got: %d, want: 19200000", got)
	}
	if got := n.RoundRate(12345, 0); got != 19200000 {
		t.Errorf("RoundRate got: %d, want: 19200000", got)
	}
	if err := n.SetRate(12345, 0); err == nil {
		t.Errorf("SetRate on fixed clock: got nil error")
	}
	if n.Parent() != "" {
		t.Errorf("Parent got: %q, want empty", n.Parent())
	}
}
