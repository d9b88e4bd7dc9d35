package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Identifier helpers shared by the row transformer and the matching engine.
// All functions here are pure; they never touch the datastore or the logger.

var (
	sciDecimalPattern = regexp.MustCompile(`^(\d+)\.(\d+)[eE]([+-])(\d+)$`)
	sciIntegerPattern = regexp.MustCompile(`^(\d+)[eE]([+-]?)(\d+)$`)
)

// NormalizeIdentifier lower-cases an identifier and strips everything that is
// not a letter or digit, so "ABC-001" and "abc001" compare equal.
func NormalizeIdentifier(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RepairScientificNotation undoes the spreadsheet habit of collapsing long
// digit strings (EAN and UPC codes) into scientific notation, e.g. "8.40E+11"
// becomes "840000000000". Sentinel strings such as "nan" or "null" become
// empty. Anything that is not scientific notation is returned trimmed.
func RepairScientificNotation(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	switch strings.ToLower(s) {
	case "nan", "none", "null", "undefined":
		return ""
	}

	// Decimal mantissa form, e.g. 8.40E+11. A negative exponent means a tiny
	// fraction, not a squashed barcode, so it passes through untouched.
	if m := sciDecimalPattern.FindStringSubmatch(s); m != nil {
		if m[3] == "-" {
			return s
		}
		exp, err := strconv.Atoi(m[4])
		if err != nil {
			return s
		}
		return shiftDecimal(m[1], m[2], exp)
	}

	// Integer mantissa form, e.g. 5E9.
	if m := sciIntegerPattern.FindStringSubmatch(s); m != nil {
		if m[2] == "-" {
			return s
		}
		exp, err := strconv.Atoi(m[3])
		if err != nil {
			return s
		}
		return shiftDecimal(m[1], "", exp)
	}

	// Values like "840000000000.0" parse as floats too large for a plain
	// column; render those without an exponent. Pure digit strings are left
	// alone so oversized barcodes never lose precision to a float round-trip.
	if strings.ContainsAny(s, ".eE") {
		if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(v, 0) && math.Abs(v) > 1e10 {
			if v == math.Trunc(v) {
				return strconv.FormatFloat(v, 'f', 0, 64)
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return s
}

// shiftDecimal moves the decimal point of intPart.fracPart right by exp
// places using string arithmetic, so exponents beyond float precision still
// reconstruct the exact digit string.
func shiftDecimal(intPart, fracPart string, exp int) string {
	if exp >= len(fracPart) {
		whole := intPart + fracPart + strings.Repeat("0", exp-len(fracPart))
		whole = strings.TrimLeft(whole, "0")
		if whole == "" {
			return "0"
		}
		return whole
	}
	whole := strings.TrimLeft(intPart+fracPart[:exp], "0")
	if whole == "" {
		whole = "0"
	}
	frac := strings.TrimRight(fracPart[exp:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// ParseMonetary strips currency symbols and grouping characters from a price
// string and parses what is left, defaulting to 0 when nothing numeric
// remains. The second return reports whether a non-dollar currency symbol was
// seen, so callers can warn about unconverted foreign prices.
func ParseMonetary(raw string) (float64, bool) {
	foreign := false
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == '£' || r == '€':
			foreign = true
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, foreign
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, foreign
	}
	return v, foreign
}
