package service

// QRCodeService generates QR code images for shareable links.
type QRCodeService interface {
	// GenerateLinkQR encodes the URL as a PNG image.
	GenerateLinkQR(url string) ([]byte, error)
}
