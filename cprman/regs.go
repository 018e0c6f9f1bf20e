package cprman

// Register offsets and bits for the BCM283x clock manager (CPRMAN) and its
// analog-to-digital wrapper (A2W). The CM block is documented (partially) in
// the BCM2835 reference at
// https://www.raspberrypi.org/app/uploads/2012/02/BCM2835-ARM-Peripherals.pdf
// p105ff; the PLL/A2W registers are only described in the downstream
// clk-bcm2835 driver sources.

const (
	// Every CM/A2W write must carry this password in the top byte or the
	// hardware silently drops it.
	CM_PASSWORD = 0x5a000000

	CM_DIV_FRAC_BITS = 12
)

// Peripheral clock generator control/divisor pairs.
const (
	CM_VPUCTL   = 0x008
	CM_VPUDIV   = 0x00c
	CM_H264CTL  = 0x028
	CM_H264DIV  = 0x02c
	CM_ISPCTL   = 0x030
	CM_ISPDIV   = 0x034
	CM_V3DCTL   = 0x038
	CM_V3DDIV   = 0x03c
	CM_GP0CTL   = 0x070
	CM_GP0DIV   = 0x074
	CM_GP1CTL   = 0x078
	CM_GP1DIV   = 0x07c
	CM_GP2CTL   = 0x080
	CM_GP2DIV   = 0x084
	CM_HSMCTL   = 0x088
	CM_HSMDIV   = 0x08c
	CM_OTPCTL   = 0x090
	CM_OTPDIV   = 0x094
	CM_PWMCTL   = 0x0a0
	CM_PWMDIV   = 0x0a4
	CM_TSENSCTL = 0x0e0
	CM_TSENSDIV = 0x0e4
	CM_TIMERCTL = 0x0e8
	CM_TIMERDIV = 0x0ec
	CM_UARTCTL  = 0x0f0
	CM_UARTDIV  = 0x0f4
	CM_VECCTL   = 0x0f8
	CM_VECDIV   = 0x0fc
	CM_SDCCTL   = 0x1a8
	CM_SDCDIV   = 0x1ac
	CM_EMMCCTL  = 0x1c0
	CM_EMMCDIV  = 0x1c4
)

// General bits for the CM_*CTL registers.
const (
	CM_ENABLE    = 1 << 4
	CM_KILL      = 1 << 5
	CM_GATE      = 1 << 6
	CM_BUSY      = 1 << 7
	CM_BUSYD     = 1 << 8
	CM_SRC_SHIFT = 0
	CM_SRC_BITS  = 4
	CM_SRC_MASK  = 0xf
)

// CM-side PLL control registers. The divider channels' load/hold bits live
// here, in the owning PLL's register.
const (
	CM_PLLA = 0x104
	CM_PLLC = 0x108
	CM_PLLD = 0x10c
	CM_PLLH = 0x110
	CM_PLLB = 0x170

	CM_PLL_ANARST = 1 << 8

	CM_PLLA_HOLDPER  = 1 << 7
	CM_PLLA_LOADPER  = 1 << 6
	CM_PLLA_HOLDCORE = 1 << 5
	CM_PLLA_LOADCORE = 1 << 4

	CM_PLLC_HOLDPER   = 1 << 7
	CM_PLLC_LOADPER   = 1 << 6
	CM_PLLC_HOLDCORE2 = 1 << 5
	CM_PLLC_LOADCORE2 = 1 << 4
	CM_PLLC_HOLDCORE1 = 1 << 3
	CM_PLLC_LOADCORE1 = 1 << 2
	CM_PLLC_HOLDCORE0 = 1 << 1
	CM_PLLC_LOADCORE0 = 1 << 0

	CM_PLLD_HOLDPER  = 1 << 7
	CM_PLLD_LOADPER  = 1 << 6
	CM_PLLD_HOLDCORE = 1 << 5
	CM_PLLD_LOADCORE = 1 << 4

	CM_PLLH_LOADRCAL = 1 << 2
	CM_PLLH_LOADAUX  = 1 << 1
	CM_PLLH_LOADPIX  = 1 << 0
)

// CM_LOCK holds one lock-status bit per PLL.
const (
	CM_LOCK        = 0x114
	CM_LOCK_FLOCKH = 1 << 12
	CM_LOCK_FLOCKD = 1 << 11
	CM_LOCK_FLOCKC = 1 << 10
	CM_LOCK_FLOCKB = 1 << 9
	CM_LOCK_FLOCKA = 1 << 8
)

// A2W PLL control registers.
const (
	A2W_PLLA_CTRL = 0x1100
	A2W_PLLC_CTRL = 0x1120
	A2W_PLLD_CTRL = 0x1140
	A2W_PLLH_CTRL = 0x1160
	A2W_PLLB_CTRL = 0x11e0

	A2W_PLL_CTRL_PRST_DISABLE = 1 << 17
	A2W_PLL_CTRL_PWRDN        = 1 << 16
	A2W_PLL_CTRL_PDIV_MASK    = 0x000007000
	A2W_PLL_CTRL_PDIV_SHIFT   = 12
	A2W_PLL_CTRL_NDIV_MASK    = 0x0000003ff
	A2W_PLL_CTRL_NDIV_SHIFT   = 0
)

// Analog config blocks, four consecutive words each.
const (
	A2W_PLLA_ANA0 = 0x1010
	A2W_PLLC_ANA0 = 0x1030
	A2W_PLLD_ANA0 = 0x1050
	A2W_PLLH_ANA0 = 0x1070
	A2W_PLLB_ANA0 = 0x10f0
)

// A2W_XOSC_CTRL gates the crystal reference into each PLL.
const (
	A2W_XOSC_CTRL             = 0x1190
	A2W_XOSC_CTRL_PLLB_ENABLE = 1 << 7
	A2W_XOSC_CTRL_PLLA_ENABLE = 1 << 6
	A2W_XOSC_CTRL_PLLD_ENABLE = 1 << 5
	A2W_XOSC_CTRL_DDR_ENABLE  = 1 << 4
	A2W_XOSC_CTRL_HDMI_ENABLE = 1 << 1
	A2W_XOSC_CTRL_PLLC_ENABLE = 1 << 0
)

// Fractional divisor registers, 20-bit fixed point.
const (
	A2W_PLLA_FRAC = 0x1200
	A2W_PLLC_FRAC = 0x1220
	A2W_PLLD_FRAC = 0x1240
	A2W_PLLH_FRAC = 0x1260
	A2W_PLLB_FRAC = 0x12e0

	A2W_PLL_FRAC_BITS = 20
	A2W_PLL_FRAC_MASK = (1 << A2W_PLL_FRAC_BITS) - 1
)

// Per-channel divider registers off each PLL.
const (
	A2W_PLL_CHANNEL_DISABLE = 1 << 8
	A2W_PLL_DIV_BITS        = 8

	A2W_PLLA_CORE = 0x1400
	A2W_PLLA_PER  = 0x1500

	A2W_PLLC_CORE2 = 0x1320
	A2W_PLLC_CORE1 = 0x1420
	A2W_PLLC_PER   = 0x1520
	A2W_PLLC_CORE0 = 0x1620

	A2W_PLLD_CORE = 0x1440
	A2W_PLLD_PER  = 0x1540

	A2W_PLLH_AUX  = 0x1360
	A2W_PLLH_RCAL = 0x1460
	A2W_PLLH_PIX  = 0x1560
)
