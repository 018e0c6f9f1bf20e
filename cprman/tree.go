package cprman

import (
	"fmt"
)

// Node is the operation contract every member of the tree satisfies: PLLs,
// PLL channel dividers, peripheral clock generators and the fixed-rate
// roots. Rates always flow through explicitly: GetRate and friends take the
// parent's rate rather than resolving it themselves, so multi-node rate
// propagation stays in the caller's hands. Tree.Rate does a read-only walk
// for the common "what is this running at" case.
type Node interface {
	Name() string
	// Parent names the node's current upstream, "" for roots.
	Parent() string
	IsEnabled() bool
	Enable() error
	Disable() error
	GetRate(parentRate uint64) uint64
	RoundRate(rate, parentRate uint64) uint64
	SetRate(rate, parentRate uint64) error
}

// ClockID is the stable index consumers wire against; these match positions
// in the device tree binding.
type ClockID int

const (
	IDPLLA ClockID = iota
	IDPLLB
	IDPLLC
	IDPLLD
	IDPLLH

	IDPLLACore
	IDPLLAPer
	IDPLLCCore0
	IDPLLCCore1
	IDPLLCCore2
	IDPLLCPer
	IDPLLDCore
	IDPLLDPer
	IDPLLHRCal
	IDPLLHAux
	IDPLLHPix

	IDClockTimer
	IDClockOTP
	IDClockTSens
	IDClockVPU
	IDClockV3D
	IDClockISP
	IDClockH264
	IDClockSDRAM
	IDClockUART
	IDClockVEC
	IDClockHSM
	IDClockEMMC
	IDClockGP0
	IDClockGP1
	IDClockGP2
	IDClockPWM

	IDOsc

	// Fixed bus clocks; probably gateable somewhere, but until that's
	// mapped out this is the only way they can be used.
	IDSysPClk
	IDApbPClk
	IDUART0PClk
	IDUART1PClk

	numClockIDs
)

// fixedClock is a root that always runs at one rate: the crystal oscillator
// and a few always-on bus clocks.
type fixedClock struct {
	name string
	rate uint64
}

func (f *fixedClock) Name() string    { return f.name }
func (f *fixedClock) Parent() string  { return "" }
func (f *fixedClock) IsEnabled() bool { return true }
func (f *fixedClock) Enable() error   { return nil }
func (f *fixedClock) Disable() error  { return nil }

func (f *fixedClock) GetRate(parentRate uint64) uint64 {
	return f.rate
}

func (f *fixedClock) RoundRate(rate, parentRate uint64) uint64 {
	return f.rate
}

func (f *fixedClock) SetRate(rate, parentRate uint64) error {
	return fmt.Errorf("%s: fixed-rate clock", f.name)
}

// Tree owns every node of one clock-manager block. Built once when the block
// is bound, torn down with it.
type Tree struct {
	cm      *Cprman
	oscRate uint64

	byID   [numClockIDs]Node
	byName map[string]Node
	order  []string
}

// NewTree builds the full node set over the given register window. oscRate
// is the crystal frequency (19.2MHz on everything before the Pi 4).
func NewTree(regs RegIO, oscRate uint64) *Tree {
	t := &Tree{
		cm:      New(regs),
		oscRate: oscRate,
		byName:  make(map[string]Node),
	}

	t.add(IDOsc, &fixedClock{OscName, oscRate})
	t.add(IDSysPClk, &fixedClock{"sys_pclk", 250000000})
	t.add(IDApbPClk, &fixedClock{"apb_pclk", 126000000})
	t.add(IDUART0PClk, &fixedClock{"uart0_pclk", 3000000})
	t.add(IDUART1PClk, &fixedClock{"uart1_pclk", 125000000})

	plls := []struct {
		id   ClockID
		data *pllData
	}{
		{IDPLLA, &pllaData},
		{IDPLLB, &pllbData},
		{IDPLLC, &pllcData},
		{IDPLLD, &plldData},
		{IDPLLH, &pllhData},
	}
	for _, p := range plls {
		t.add(p.id, &PLL{t.cm, p.data})
	}

	for i := range pllDividerDatas {
		t.add(IDPLLACore+ClockID(i), &PLLDivider{t.cm, &pllDividerDatas[i]})
	}
	for i := range clockDatas {
		t.add(IDClockTimer+ClockID(i), &Clock{t.cm, &clockDatas[i]})
	}

	return t
}

func (t *Tree) add(id ClockID, n Node) {
	t.byID[id] = n
	t.byName[n.Name()] = n
	t.order = append(t.order, n.Name())
}

// Lookup finds a node by stable ID.
func (t *Tree) Lookup(id ClockID) (Node, error) {
	if id < 0 || id >= numClockIDs || t.byID[id] == nil {
		return nil, ErrUnknownClock
	}
	return t.byID[id], nil
}

// LookupName finds a node by its human-readable name.
func (t *Tree) LookupName(name string) (Node, error) {
	n, ok := t.byName[name]
	if !ok {
		return nil, ErrUnknownClock
	}
	return n, nil
}

// Names lists every node in registration order.
func (t *Tree) Names() []string {
	return t.order
}

// OscRate reports the crystal frequency the tree was built with.
func (t *Tree) OscRate() uint64 {
	return t.oscRate
}

// ParentRate resolves the current rate of a node's upstream, walking
// muxes and dividers up to the oscillator. Mux slots that aren't real
// clocks (ground, the test debug taps) resolve to 0.
func (t *Tree) ParentRate(n Node) uint64 {
	pname := n.Parent()
	if pname == "" {
		return 0
	}
	p, ok := t.byName[pname]
	if !ok {
		return 0
	}
	return p.GetRate(t.ParentRate(p))
}

// Rate reports the effective output rate of the named node right now. This
// is a read-only convenience; it doesn't reconfigure anything.
func (t *Tree) Rate(name string) (uint64, error) {
	n, err := t.LookupName(name)
	if err != nil {
		return 0, err
	}
	return n.GetRate(t.ParentRate(n)), nil
}
