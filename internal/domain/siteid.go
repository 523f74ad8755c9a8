package domain

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSiteID returns an opaque site identifier of the form
// site-<timestamp base36>-<6 random base36 chars>.
func NewSiteID() string {
	var b strings.Builder
	b.WriteString("site-")
	b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 36))
	b.WriteByte('-')
	for i := 0; i < 6; i++ {
		b.WriteByte(base36Chars[rand.Intn(len(base36Chars))])
	}
	return b.String()
}

// FormatNZPhone normalizes an NZ phone number into display form
// (mobile "02X XXX XXXX", landline "0X XXX XXXX"). Numbers that do not
// match a known NZ shape are returned unchanged.
func FormatNZPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	local := digits.String()
	if strings.HasPrefix(local, "64") {
		local = "0" + local[2:]
	}

	// Mobile: 02X XXX XXXX
	if len(local) >= 9 && len(local) <= 11 && strings.HasPrefix(local, "02") {
		prefix, rest := local[:3], local[3:]
		if len(rest) <= 3 {
			return prefix + " " + rest
		}
		return prefix + " " + rest[:3] + " " + rest[3:]
	}

	// Landline: 0X XXX XXXX
	if len(local) >= 9 && len(local) <= 10 && strings.HasPrefix(local, "0") {
		prefix, rest := local[:2], local[2:]
		return prefix + " " + rest[:3] + " " + rest[3:]
	}

	return phone
}
