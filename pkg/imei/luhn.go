package imei

// ValidLuhn reports whether s is an all-digit string with a correct Luhn
// check digit, as IMEIs carry. Used for diagnostics only: the sheet contains
// typoed identifiers that operators still need to find, so lookup never
// filters on this.
func ValidLuhn(s string) bool {
	if len(s) == 0 {
		return false
	}
	var sum int
	nDigits := len(s)
	parity := nDigits % 2

	for i := 0; i < nDigits; i++ {
		d := int(s[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if i%2 == parity {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}
