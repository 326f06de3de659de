package utils

import "strings"

// MaskRune is the character substituted for hidden PII characters.
const MaskRune = '*'

// PhoneRevealSuffix is how many trailing characters of a phone number stay visible.
const PhoneRevealSuffix = 4

// MaskLastName obfuscates a last name for on-screen display: the first rune is
// revealed and every remaining rune is replaced with the mask character.
// Empty input returns an empty string. The returned value must never be used
// in outbound telephony requests.
func MaskLastName(name string) string {
	if name == "" {
		return ""
	}

	runes := []rune(name)
	var b strings.Builder
	b.WriteRune(runes[0])
	for range runes[1:] {
		b.WriteRune(MaskRune)
	}
	return b.String()
}

// MaskPhoneNumber obfuscates a phone number for on-screen display: the last
// four characters stay visible and everything before them is replaced with the
// mask character, so the masked string keeps the original's length. Numbers
// with four or fewer characters reveal only the final character.
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	runes := []rune(phone)
	reveal := PhoneRevealSuffix
	if len(runes) <= reveal {
		reveal = 1
	}

	var b strings.Builder
	for range runes[:len(runes)-reveal] {
		b.WriteRune(MaskRune)
	}
	b.WriteString(string(runes[len(runes)-reveal:]))
	return b.String()
}
