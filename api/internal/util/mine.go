package util

// SniffImageFormat reports the encoding of an image payload by magic bytes:
// "png", "jpeg", "webp" or "" when unknown.
func SniffImageFormat(b []byte) string {
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "png"
	}
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "jpeg"
	}
	if len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP" {
		return "webp"
	}
	return ""
}

// MimeForFormat maps a SniffImageFormat result to its MIME type.
func MimeForFormat(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
