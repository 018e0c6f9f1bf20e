package cprman

import (
	"testing"

	mmap "github.com/edsrzf/mmap-go"
)

// fakeRegs is an in-memory RegIO. Writes are recorded in order with the
// password still attached, so tests can check both what got written and that
// every write carried the password; the stored value has the password
// stripped, the way the hardware reads back.
type regWrite struct {
	reg uint32
	val uint32
}

type fakeRegs struct {
	mem    map[uint32]uint32
	writes []regWrite
}

func newFakeRegs() *fakeRegs {
	return &fakeRegs{mem: make(map[uint32]uint32)}
}

func (f *fakeRegs) Read(reg uint32) uint32 {
	return f.mem[reg]
}

func (f *fakeRegs) Write(reg uint32, val uint32) {
	f.writes = append(f.writes, regWrite{reg, val})
	f.mem[reg] = val &^ uint32(CM_PASSWORD)
}

// writeIndex finds the position of the first recorded write to reg, -1 if
// there was none.
func (f *fakeRegs) writeIndex(reg uint32) int {
	for i, w := range f.writes {
		if w.reg == reg {
			return i
		}
	}
	return -1
}

func TestWritePassword(t *testing.T) {
	fr := newFakeRegs()
	cm := New(fr)

	cm.write(CM_VPUCTL, CM_ENABLE)
	if len(fr.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(fr.writes))
	}
	if got := fr.writes[0].val; got != CM_PASSWORD|CM_ENABLE {
		t.Errorf("write got: %08X, want: %08X", got, uint32(CM_PASSWORD|CM_ENABLE))
	}
	if got := cm.read(CM_VPUCTL); got != CM_ENABLE {
		t.Errorf("readback got: %08X, want: %08X", got, uint32(CM_ENABLE))
	}
}

func TestWaitFor(t *testing.T) {
	fr := newFakeRegs()
	cm := New(fr)
	cm.retries = 3

	fr.mem[CM_LOCK] = CM_LOCK_FLOCKC
	if err := cm.waitFor("pllc lock", CM_LOCK, CM_LOCK_FLOCKC, CM_LOCK_FLOCKC); err != nil {
		t.Errorf("waitFor with bit set got: %v, want nil", err)
	}
	if err := cm.waitFor("plld lock", CM_LOCK, CM_LOCK_FLOCKD, CM_LOCK_FLOCKD); err != ErrTimeout {
		t.Errorf("waitFor with bit clear got: %v, want: %v", err, ErrTimeout)
	}
}

func TestUint32Slice(t *testing.T) {
	m := mmap.MMap(make([]byte, 32))

	ws := uint32Slice(m, 4)
	if len(ws) != 7 {
		t.Errorf("len got: %d, want: 7", len(ws))
	}
	ws[0] = 0xdeadbeef

	// The same offset sees the write, and offset 0 sees it one word later.
	if got := uint32Slice(m, 4)[0]; got != 0xdeadbeef {
		t.Errorf("reread got: %08X, want: DEADBEEF", got)
	}
	if got := uint32Slice(m, 0)[1]; got != 0xdeadbeef {
		t.Errorf("offset-0 word 1 got: %08X, want: DEADBEEF", got)
	}
}

func TestNewMmapRegs(t *testing.T) {
	m := mmap.MMap(make([]byte, CprmanWindowSize+16))
	r, err := NewMmapRegs(m, 16)
	if err != nil {
		t.Fatalf("NewMmapRegs: %v", err)
	}
	r.Write(A2W_PLLC_FRAC, 131072)
	if got := r.Read(A2W_PLLC_FRAC); got != 131072 {
		t.Errorf("readback got: %d, want: 131072", got)
	}

	_, err = NewMmapRegs(mmap.MMap(make([]byte, 64)), 16)
	if err == nil {
		t.Errorf("undersized mapping: got nil error")
	}
}
