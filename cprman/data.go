package cprman

// Static description of the BCM283x clock tree: which PLLs exist, which
// channels tap them, which generators feed the peripherals and what each
// generator's mux can see. Offsets and quirk bits are from the downstream
// clk-bcm2835 sources; the ranges are the hardware-qualified ones.

// OscName is the registry name of the tree's root, the 19.2MHz crystal.
const OscName = "osc"

// PLLA drives the camera subsystem's CCP2 transmitter clock.
var pllaData = pllData{
	name:          "plla",
	cmCtrlReg:     CM_PLLA,
	a2wCtrlReg:    A2W_PLLA_CTRL,
	fracReg:       A2W_PLLA_FRAC,
	anaRegBase:    A2W_PLLA_ANA0,
	refEnableMask: A2W_XOSC_CTRL_PLLA_ENABLE,
	lockMask:      CM_LOCK_FLOCKA,
	ana:           &anaDefault,
	minRate:       600000000,
	maxRate:       2400000000,
	maxFBRate:     1750000000,
}

// PLLB feeds the ARM. Its channel divider is owned by the firmware, so we
// expose the PLL itself but no channel.
var pllbData = pllData{
	name:          "pllb",
	cmCtrlReg:     CM_PLLB,
	a2wCtrlReg:    A2W_PLLB_CTRL,
	fracReg:       A2W_PLLB_FRAC,
	anaRegBase:    A2W_PLLB_ANA0,
	refEnableMask: A2W_XOSC_CTRL_PLLB_ENABLE,
	lockMask:      CM_LOCK_FLOCKB,
	ana:           &anaDefault,
	minRate:       600000000,
	maxRate:       3000000000,
	maxFBRate:     1750000000,
}

// PLLC is the core PLL, driving the VPU.
var pllcData = pllData{
	name:          "pllc",
	cmCtrlReg:     CM_PLLC,
	a2wCtrlReg:    A2W_PLLC_CTRL,
	fracReg:       A2W_PLLC_FRAC,
	anaRegBase:    A2W_PLLC_ANA0,
	refEnableMask: A2W_XOSC_CTRL_PLLC_ENABLE,
	lockMask:      CM_LOCK_FLOCKC,
	ana:           &anaDefault,
	minRate:       600000000,
	maxRate:       3000000000,
	maxFBRate:     1750000000,
}

// PLLD is the display PLL, driving DSI panels.
var plldData = pllData{
	name:          "plld",
	cmCtrlReg:     CM_PLLD,
	a2wCtrlReg:    A2W_PLLD_CTRL,
	fracReg:       A2W_PLLD_FRAC,
	anaRegBase:    A2W_PLLD_ANA0,
	refEnableMask: A2W_XOSC_CTRL_DDR_ENABLE,
	lockMask:      CM_LOCK_FLOCKD,
	ana:           &anaDefault,
	minRate:       600000000,
	maxRate:       2400000000,
	maxFBRate:     1750000000,
}

// PLLH supplies the pixel clock and the TV encoder's AUX clock. Different
// analog layout from the others.
var pllhData = pllData{
	name:          "pllh",
	cmCtrlReg:     CM_PLLH,
	a2wCtrlReg:    A2W_PLLH_CTRL,
	fracReg:       A2W_PLLH_FRAC,
	anaRegBase:    A2W_PLLH_ANA0,
	refEnableMask: A2W_XOSC_CTRL_PLLC_ENABLE,
	lockMask:      CM_LOCK_FLOCKH,
	ana:           &anaPllh,
	minRate:       600000000,
	maxRate:       3000000000,
	maxFBRate:     1750000000,
}

var pllDividerDatas = []pllDividerData{
	{"plla_core", &pllaData, CM_PLLA, A2W_PLLA_CORE, CM_PLLA_LOADCORE, CM_PLLA_HOLDCORE, 1},
	{"plla_per", &pllaData, CM_PLLA, A2W_PLLA_PER, CM_PLLA_LOADPER, CM_PLLA_HOLDPER, 1},
	{"pllc_core0", &pllcData, CM_PLLC, A2W_PLLC_CORE0, CM_PLLC_LOADCORE0, CM_PLLC_HOLDCORE0, 1},
	{"pllc_core1", &pllcData, CM_PLLC, A2W_PLLC_CORE1, CM_PLLC_LOADCORE1, CM_PLLC_HOLDCORE1, 1},
	{"pllc_core2", &pllcData, CM_PLLC, A2W_PLLC_CORE2, CM_PLLC_LOADCORE2, CM_PLLC_HOLDCORE2, 1},
	{"pllc_per", &pllcData, CM_PLLC, A2W_PLLC_PER, CM_PLLC_LOADPER, CM_PLLC_HOLDPER, 1},
	{"plld_core", &plldData, CM_PLLD, A2W_PLLD_CORE, CM_PLLD_LOADCORE, CM_PLLD_HOLDCORE, 1},
	{"plld_per", &plldData, CM_PLLD, A2W_PLLD_PER, CM_PLLD_LOADPER, CM_PLLD_HOLDPER, 1},

	// The PLLH channels have no hold bit and a fixed /10 behind the
	// 8-bit divider; consumers only ever see the divided-by-10 rate.
	{"pllh_rcal", &pllhData, CM_PLLH, A2W_PLLH_RCAL, CM_PLLH_LOADRCAL, 0, 10},
	{"pllh_aux", &pllhData, CM_PLLH, A2W_PLLH_AUX, CM_PLLH_LOADAUX, 0, 10},
	{"pllh_pix", &pllhData, CM_PLLH, A2W_PLLH_PIX, CM_PLLH_LOADPIX, 0, 10},
}

// The three mux candidate sets, in hardware slot order. Slots that read as
// ground keep their debug names.
var (
	perParents = []string{
		"gnd", OscName, "testdebug0", "testdebug1",
		"plla_per", "pllc_per", "plld_per", "pllh_aux",
	}
	vpuParents = []string{
		"gnd", OscName, "testdebug0", "testdebug1",
		"plla_core", "pllc_core0", "plld_core", "pllh_aux",
		"pllc_core1", "pllc_core2",
	}
	oscParents = []string{
		"gnd", OscName, "testdebug0", "testdebug1",
	}
)

var clockDatas = []clockData{
	// 1MHz system timebase, also used by the watchdog and the camera
	// pulse generator.
	{name: "timer", parents: oscParents, ctlReg: CM_TIMERCTL, divReg: CM_TIMERDIV, intBits: 6, fracBits: 12},
	// One Time Programmable memory, max 10MHz.
	{name: "otp", parents: oscParents, ctlReg: CM_OTPCTL, divReg: CM_OTPDIV, intBits: 4, fracBits: 0},
	// Temperature sensor, nominally 2MHz, max 5MHz.
	{name: "tsens", parents: oscParents, ctlReg: CM_TSENSCTL, divReg: CM_TSENSDIV, intBits: 5, fracBits: 0},

	// The VPU clock drives the bus for everything else and is also known
	// as clk_audio in some documentation. It never stops.
	{name: "vpu", parents: vpuParents, ctlReg: CM_VPUCTL, divReg: CM_VPUDIV, intBits: 12, fracBits: 8, isNonstop: true},
	{name: "v3d", parents: vpuParents, ctlReg: CM_V3DCTL, divReg: CM_V3DDIV, intBits: 4, fracBits: 8},
	{name: "isp", parents: vpuParents, ctlReg: CM_ISPCTL, divReg: CM_ISPDIV, intBits: 4, fracBits: 8},
	{name: "h264", parents: vpuParents, ctlReg: CM_H264CTL, divReg: CM_H264DIV, intBits: 4, fracBits: 8},
	// Secondary SDRAM clock, for low-voltage modes where the SDRAM
	// controller's own PLL can't run.
	{name: "sdram", parents: vpuParents, ctlReg: CM_SDCCTL, divReg: CM_SDCDIV, intBits: 6, fracBits: 0},

	{name: "uart", parents: perParents, ctlReg: CM_UARTCTL, divReg: CM_UARTDIV, intBits: 10, fracBits: 12},
	// TV encoder; its only operating frequency is 108MHz.
	{name: "vec", parents: perParents, ctlReg: CM_VECCTL, divReg: CM_VECDIV, intBits: 4, fracBits: 0},
	// HDMI state machine.
	{name: "hsm", parents: perParents, ctlReg: CM_HSMCTL, divReg: CM_HSMDIV, intBits: 4, fracBits: 8},
	// Arasan EMMC controller.
	{name: "emmc", parents: perParents, ctlReg: CM_EMMCCTL, divReg: CM_EMMCDIV, intBits: 4, fracBits: 8},

	// General-purpose output clocks (GPIO-routable) and the PWM clock.
	{name: "gp0", parents: perParents, ctlReg: CM_GP0CTL, divReg: CM_GP0DIV, intBits: 12, fracBits: 12},
	{name: "gp1", parents: perParents, ctlReg: CM_GP1CTL, divReg: CM_GP1DIV, intBits: 12, fracBits: 12},
	{name: "gp2", parents: perParents, ctlReg: CM_GP2CTL, divReg: CM_GP2DIV, intBits: 12, fracBits: 12},
	{name: "pwm", parents: perParents, ctlReg: CM_PWMCTL, divReg: CM_PWMDIV, intBits: 12, fracBits: 12},
}
