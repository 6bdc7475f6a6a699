package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	hsnPattern   = regexp.MustCompile(`^[0-9]{4}([0-9]{2}){0,2}$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

const gstinAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ValidateGSTIN checks the 15-character GST identification number: state code,
// PAN, entity code, the fixed Z and the mod-36 check character.
func ValidateGSTIN(gstin string) error {
	gstin = strings.ToUpper(strings.TrimSpace(gstin))
	if !gstinPattern.MatchString(gstin) {
		return fmt.Errorf("invalid GSTIN format: %s", gstin)
	}

	state := int(gstin[0]-'0')*10 + int(gstin[1]-'0')
	if state < 1 || state > 38 {
		return fmt.Errorf("invalid GSTIN state code %02d: %s", state, gstin)
	}

	if want := gstinCheckChar(gstin[:14]); gstin[14] != want {
		return fmt.Errorf("invalid GSTIN check character %c, expected %c: %s", gstin[14], want, gstin)
	}
	return nil
}

func gstinCheckChar(body string) byte {
	sum := 0
	for i := 0; i < len(body); i++ {
		factor := 1
		if i%2 == 1 {
			factor = 2
		}
		product := strings.IndexByte(gstinAlphabet, body[i]) * factor
		sum += product/36 + product%36
	}
	return gstinAlphabet[(36-sum%36)%36]
}

// ValidateHSN checks an HSN/SAC code of 4, 6 or 8 digits
func ValidateHSN(code string) error {
	if !hsnPattern.MatchString(code) {
		return fmt.Errorf("HSN code must be 4, 6 or 8 digits: %s", code)
	}
	return nil
}

// SanitizeString trims s and removes control characters
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
