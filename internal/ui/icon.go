package ui

// iconBytes is the 16x16 PNG shown in the system tray.
var iconBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x19, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0x63, 0xa8, 0xb1, 0x7a, 0xfb,
	0x9f, 0x12, 0xcc, 0x30, 0x6a, 0xc0, 0xa8, 0x01, 0xa3, 0x06, 0x0c, 0x17,
	0x03, 0x00, 0x46, 0x38, 0xa2, 0x1f, 0x0a, 0x6f, 0xa9, 0x3b, 0x00, 0x00,
	0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
