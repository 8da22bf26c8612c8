// Package receipt renders the pickup QR code of an order.
package receipt

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/foodcourt/api/internal/model"
	"github.com/skip2/go-qrcode"
)

// Size is the edge length of the QR image in pixels.
const Size = 256

// Payload is the text encoded in an order's QR code: the order token and a
// link to the order when baseURL is set.
func Payload(o model.Order, baseURL string) string {
	if baseURL == "" {
		return o.Token
	}
	link := strings.TrimRight(baseURL, "/") + "/orders/" + url.PathEscape(o.ID)
	return o.Token + "\n" + link
}

// QRCode returns the order's QR code as a PNG.
func QRCode(o model.Order, baseURL string) ([]byte, error) {
	if o.Token == "" {
		return nil, fmt.Errorf("order %s has no token", o.ID)
	}
	png, err := qrcode.Encode(Payload(o, baseURL), qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
