package services

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/discround/internal/errors"
)

// JoinURL is the link players open to join a round session
func JoinURL(baseURL, sessionID string) string {
	return fmt.Sprintf("%s/sessions/%s", strings.TrimSuffix(baseURL, "/"), sessionID)
}

// JoinQRCode renders JoinURL as a 256px PNG
func JoinQRCode(baseURL, sessionID string) ([]byte, error) {
	if baseURL == "" {
		return nil, errors.Internalf("base URL not configured")
	}
	png, err := qrcode.Encode(JoinURL(baseURL, sessionID), qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render QR code")
	}
	return png, nil
}
