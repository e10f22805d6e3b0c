package render

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mdp/qrterminal/v3"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrImageQR marks a QR value that is already a rendered image and cannot be
// redrawn as terminal blocks.
var ErrImageQR = errors.New("qr value is a rendered image, save it with --out instead")

// IsDataURL reports whether the QR value is a data-URL encoded image rather
// than the raw pairing string.
func IsDataURL(value string) bool {
	return strings.HasPrefix(value, "data:")
}

// QRTerminal draws a raw QR pairing string as half-block characters. Image
// payloads cannot be drawn and return ErrImageQR.
func QRTerminal(w io.Writer, value string) error {
	if value == "" {
		return errors.New("no qr value to render")
	}
	if IsDataURL(value) {
		return ErrImageQR
	}
	qrterminal.GenerateHalfBlock(value, qrterminal.L, w)
	return nil
}

// WriteQRPNG saves a QR value as a PNG file. Raw pairing strings are encoded
// fresh; data-URL images are decoded and written as-is.
func WriteQRPNG(path, value string) error {
	if value == "" {
		return errors.New("no qr value to save")
	}

	var png []byte
	if IsDataURL(value) {
		idx := strings.Index(value, "base64,")
		if idx < 0 {
			return errors.New("unsupported qr data url encoding")
		}
		decoded, err := base64.StdEncoding.DecodeString(value[idx+len("base64,"):])
		if err != nil {
			return fmt.Errorf("decode qr image: %w", err)
		}
		png = decoded
	} else {
		encoded, err := qrcode.Encode(value, qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("encode qr image: %w", err)
		}
		png = encoded
	}

	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write qr image: %w", err)
	}
	return nil
}
