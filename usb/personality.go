package usb

import (
	"maps"
	"slices"

	"github.com/bumblegum/guitarcore/mode"
)

// Product string index shared by both personalities.
const productString = 2

// hidReport describes the 7-byte generic joystick report: 16 buttons, a
// hat with a null state, then X, Y, Z and Rz as unsigned bytes.
var hidReport = []byte{
	0x05, 0x01,       // Usage Page (Generic Desktop)
	0x09, 0x05,       // Usage (Game Pad)
	0xA1, 0x01,       // Collection (Application)
	0x05, 0x09,       //   Usage Page (Button)
	0x19, 0x01,       //   Usage Minimum (1)
	0x29, 0x10,       //   Usage Maximum (16)
	0x15, 0x00,       //   Logical Minimum (0)
	0x25, 0x01,       //   Logical Maximum (1)
	0x75, 0x01,       //   Report Size (1)
	0x95, 0x10,       //   Report Count (16)
	0x81, 0x02,       //   Input (Data,Var,Abs)
	0x05, 0x01,       //   Usage Page (Generic Desktop)
	0x09, 0x39,       //   Usage (Hat switch)
	0x15, 0x00,       //   Logical Minimum (0)
	0x25, 0x07,       //   Logical Maximum (7)
	0x35, 0x00,       //   Physical Minimum (0)
	0x46, 0x3B, 0x01, //   Physical Maximum (315)
	0x65, 0x14,       //   Unit (Degrees)
	0x75, 0x08,       //   Report Size (8)
	0x95, 0x01,       //   Report Count (1)
	0x81, 0x42,       //   Input (Data,Var,Abs,Null)
	0x65, 0x00,       //   Unit (None)
	0x09, 0x30,       //   Usage (X)
	0x09, 0x31,       //   Usage (Y)
	0x09, 0x32,       //   Usage (Z)
	0x09, 0x35,       //   Usage (Rz)
	0x15, 0x00,       //   Logical Minimum (0)
	0x26, 0xFF, 0x00, //   Logical Maximum (255)
	0x75, 0x08,       //   Report Size (8)
	0x95, 0x04,       //   Report Count (4)
	0x81, 0x02,       //   Input (Data,Var,Abs)
	0xC0,             // End Collection
}

var hidDescriptor = Descriptor{
	Device: DeviceDescriptor{
		BcdUSB:             0x0200,
		BMaxPacketSize0:    0x40,
		IDVendor:           0x1209,
		IDProduct:          0x0001,
		BcdDevice:          0x0100,
		IManufacturer:      0x01,
		IProduct:           productString,
		ISerialNumber:      0x03,
		BNumConfigurations: 0x01,
	},
	Config: ConfigHeader{BConfigurationValue: 0x01, BMAttributes: 0x80, BMaxPower: 0xFA},
	Interfaces: []InterfaceConfig{
		{
			Descriptor: InterfaceDescriptor{BInterfaceClass: 0x03},
			Endpoints: []EndpointDescriptor{
				{BEndpointAddress: 0x81, BMAttributes: 0x03, WMaxPacketSize: 0x0040, BInterval: 0x01},
			},
			HIDReport: hidReport,
		},
	},
	Strings: map[uint8]string{
		0: "\x09\x04",
		1: "BumbleGum",
		2: "Guitar Controller",
		3: "BGG0001",
	},
}

var xinputDescriptor = Descriptor{
	Device: DeviceDescriptor{
		BcdUSB:             0x0200,
		BDeviceClass:       0xff,
		BDeviceSubClass:    0xff,
		BDeviceProtocol:    0xff,
		BMaxPacketSize0:    0x40,
		IDVendor:           0x045e,
		IDProduct:          0x028e,
		BcdDevice:          0x0114,
		IManufacturer:      0x01,
		IProduct:           productString,
		ISerialNumber:      0x03,
		BNumConfigurations: 0x01,
	},
	Config: ConfigHeader{BConfigurationValue: 0x01, BMAttributes: 0x80, BMaxPower: 0xFA},
	Interfaces: []InterfaceConfig{
		// ff/5d/01 with the capability descriptor the host driver looks for
		{
			Descriptor: InterfaceDescriptor{
				BInterfaceClass:    0xff,
				BInterfaceSubClass: 0x5d,
				BInterfaceProtocol: 0x01,
			},
			ClassDescriptors: []ClassSpecificDescriptor{
				{
					DescriptorType: 0x21,
					Payload:        []byte{0x00, 0x01, 0x01, 0x25, 0x81, 0x14, 0x00, 0x00, 0x00, 0x00, 0x13, 0x01, 0x08, 0x00, 0x00},
				},
			},
			Endpoints: []EndpointDescriptor{
				{BEndpointAddress: 0x81, BMAttributes: 0x03, WMaxPacketSize: 0x0020, BInterval: 0x01},
				{BEndpointAddress: 0x01, BMAttributes: 0x03, WMaxPacketSize: 0x0020, BInterval: 0x08},
			},
		},
	},
	Strings: map[uint8]string{
		0: "\x09\x04",
		1: "Microsoft",
		2: "Controller (XBOX 360 For Windows)",
		3: "BGG0001",
	},
}

// DescriptorFor returns a copy of the descriptor set of personality p.
func DescriptorFor(p mode.Personality) *Descriptor {
	src := hidDescriptor
	if p == mode.XInput {
		src = xinputDescriptor
	}
	d := src
	d.Interfaces = slices.Clone(src.Interfaces)
	d.Strings = maps.Clone(src.Strings)
	return &d
}

// HIDReportDescriptor returns the report descriptor of the generic joystick
// personality.
func HIDReportDescriptor() []byte {
	return slices.Clone(hidReport)
}

// WithProduct returns d with the product string replaced. An empty name
// keeps the default.
func (d *Descriptor) WithProduct(name string) *Descriptor {
	if name == "" {
		return d
	}
	out := *d
	out.Strings = maps.Clone(d.Strings)
	out.Strings[productString] = name
	return &out
}
