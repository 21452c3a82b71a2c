package yardstick

import "time"

// USB identifiers
const (
	VendorID  = 0x1D50
	ProductID = 0x605B
)

// EP5 framing
const (
	EP5Endpoint      = 5
	EP5OutBufferSize = 516
	ResponseMarker   = 0x40 // '@'
	headerLen        = 4
	responseHeadLen  = 5
)

// USB timeouts
const (
	USBDefaultTimeout = 1000 * time.Millisecond
	readSlice         = 100 * time.Millisecond
)

// Application IDs
const (
	AppNIC    = 0x42
	AppSystem = 0xFF
)

// System commands
const (
	SysCmdPeek      = 0x80
	SysCmdPoke      = 0x81
	SysCmdPing      = 0x82
	SysCmdBuildType = 0x86
	SysCmdRFMode    = 0x88
	SysCmdPartNum   = 0x8E
)

// NIC commands
const (
	NICSetAmpMode = 0x0A
	NICGetAmpMode = 0x0B
)

// Amplifier modes
const (
	AmpModeOff = 0x00
	AmpModeOn  = 0x01
)

// RFST strobes
const (
	StrobeSRX   = 0x02
	StrobeSTX   = 0x03
	StrobeSIDLE = 0x04
)

// CC1111 radio registers in XDATA
const (
	RegPKTCTRL0  = 0xDF04
	RegFREQ2     = 0xDF09
	RegFREQ1     = 0xDF0A
	RegFREQ0     = 0xDF0B
	RegMDMCFG2   = 0xDF0E
	RegFREND0    = 0xDF1B
	RegPATABLE0  = 0xDF2E
	RegIOCFG0    = 0xDF31
	RegRSSI      = 0xDF3A
	RegMARCSTATE = 0xDF3B
	RegPKTSTATUS = 0xDF3C
	RegRFST      = 0xDFE1
)

// Register values for asynchronous OOK on GDO0
const (
	modASKOOK      = 0x30 // MDMCFG2 MOD_FORMAT, no sync word
	pktAsyncSerial = 0x32 // PKTCTRL0 async serial, infinite length
	gdoSerialData  = 0x0D // IOCFG0 async serial data out
	frendPATable0  = 0x10 // FREND0 PA_POWER index 0
)

// MARCSTATE values
const (
	MarcStateIdle = 0x01
	MarcStateRX   = 0x0D
	MarcStateTX   = 0x13
)

// CrystalHz is the CC1111 reference on the YardStick One
const CrystalHz = 24000000

// RSSI conversion
const (
	rssiOffsetDB = 74
	rssiStepDB   = 0.5
)
