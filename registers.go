package ov7670

// Register addresses and bit masks, per the OmniVision OV7670/OV7171
// datasheet. Only the registers the driver touches are named; the power-up
// table additionally pokes a handful of reserved addresses with values the
// vendor application notes recommend.
const (
	regGain           = 0x00 // AGC gain, bits 7:0 (bits 9:8 live in VREF)
	regBlue           = 0x01 // AWB blue channel gain
	regRed            = 0x02 // AWB red channel gain
	regVRef           = 0x03 // vertical frame control low bits
	regCOM1           = 0x04
	regCOM2           = 0x09
	regPID            = 0x0A // product ID MSB, read-only
	regVer            = 0x0B // product ID LSB, read-only
	regCOM3           = 0x0C
	regCOM4           = 0x0D
	regCOM5           = 0x0E
	regCOM6           = 0x0F
	regAECH           = 0x10 // exposure value bits 9:2
	regCLKRC          = 0x11 // internal clock prescaler
	regCOM7           = 0x12
	regCOM8           = 0x13
	regCOM9           = 0x14 // max AGC value
	regCOM10          = 0x15
	regHStart         = 0x17 // horizontal frame start, high bits
	regHStop          = 0x18 // horizontal frame end, high bits
	regVStart         = 0x19 // vertical frame start, high bits
	regVStop          = 0x1A // vertical frame end, high bits
	regMIDH           = 0x1C // manufacturer ID high byte
	regMIDL           = 0x1D // manufacturer ID low byte
	regMVFP           = 0x1E // mirror / vertical flip
	regADCCtr1        = 0x21
	regADCCtr2        = 0x22
	regAEW            = 0x24 // AGC/AEC upper limit
	regAEB            = 0x25 // AGC/AEC lower limit
	regVPT            = 0x26 // AGC/AEC fast mode operating region
	regHRef           = 0x32 // href edge offset and window low bits
	regCHLF           = 0x33 // array current control
	regADC            = 0x37
	regACom           = 0x38
	regOFON           = 0x39
	regTSLB           = 0x3A // line buffer test option
	regCOM11          = 0x3B
	regCOM12          = 0x3C
	regCOM13          = 0x3D
	regCOM14          = 0x3E
	regCOM15          = 0x40
	regCOM16          = 0x41
	regCOM17          = 0x42
	regAWBC1          = 0x43
	regAWBC2          = 0x44
	regAWBC3          = 0x45
	regAWBC4          = 0x46
	regAWBC5          = 0x47
	regAWBC6          = 0x48
	regMTX1           = 0x4F // color matrix coefficient 1
	regMTX2           = 0x50
	regMTX3           = 0x51
	regMTX4           = 0x52
	regMTX5           = 0x53
	regMTX6           = 0x54
	regBright         = 0x55
	regContrast       = 0x56
	regContrastCenter = 0x57
	regLCC3           = 0x64 // lens correction option 3
	regLCC4           = 0x65
	regLCC5           = 0x66
	regGFix           = 0x69 // fix gain control
	regAWBCtr3        = 0x6C
	regAWBCtr2        = 0x6D
	regAWBCtr1        = 0x6E
	regAWBCtr0        = 0x6F
	regScalingXSC     = 0x70 // test pattern bit 7, X scale factor bits 6:0
	regScalingYSC     = 0x71 // test pattern bit 7, Y scale factor bits 6:0
	regScalingDCWCtr  = 0x72 // downsample control
	regScalingPCLKDiv = 0x73 // DSP scale clock divider
	regReg74          = 0x74 // digital gain control
	regSlop           = 0x7A // gamma curve highest segment slope
	regGamBase        = 0x7B // first of 15 gamma curve registers
	regDMLnL          = 0x92 // dummy line LSB
	regLCC6           = 0x94
	regLCC7           = 0x95
	regHAECC1         = 0x9F // histogram AEC/AGC control 1
	regHAECC2         = 0xA0
	regScalingPCLKDly = 0xA2 // pixel clock delay after scaler
	regBD50Max        = 0xA5 // 50Hz banding step limit
	regHAECC3         = 0xA6
	regHAECC4         = 0xA7
	regHAECC5         = 0xA8
	regHAECC6         = 0xA9
	regHAECC7         = 0xAA
	regBD60Max        = 0xAB // 60Hz banding step limit
	regABLC1          = 0xB1
	regTHLSt          = 0xB3 // ABLC target
)

const (
	com2SSleep = 0x10 // soft sleep mode

	com3Swap    = 0x40 // output data MSB/LSB swap
	com3ScaleEn = 0x08
	com3DCWEn   = 0x04

	com7Reset    = 0x80 // SCCB register reset
	com7RGB      = 0x04
	com7YUV      = 0x00
	com7ColorBar = 0x02

	com8FastAEC = 0x80
	com8AECStep = 0x40
	com8Banding = 0x20
	com8AGC     = 0x04
	com8AWB     = 0x02
	com8AEC     = 0x01

	com10VSyncNeg = 0x02 // VSYNC negative polarity

	mvfpMirror = 0x20
	mvfpVFlip  = 0x10

	tslbYLast = 0x04 // UYVY/VYUY select, with COM13

	com11NightMask = 0xE0 // night mode enable and frame rate divider bits

	com14DCWEn = 0x10 // DCW and scaling PCLK enable

	com15R00FF  = 0xC0 // full 00-FF output range
	com15RGB565 = 0x10

	scalingTestPattern = 0x80 // bit 7 of SCALING_XSC/YSC
)

// productID and productVersion are the expected PID/VER register values for
// a genuine OV7670.
const (
	productID      = 0x76
	productVersion = 0x73
)
