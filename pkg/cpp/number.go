package cpp

import (
	"math"
	"strconv"
	"strings"
)

// IEEE-754 single-precision bit patterns for the exceptional float forms
// recognized after a decimal point: 1.#INF, 1.#IND, 1.#NAN (and the
// Quiet/Signaling NaN spellings, which only affect how many characters are
// consumed — the materialized value is the same quiet NaN pattern).
const (
	bitsInfinite   uint32 = 0x7F800000
	bitsIndefinite uint32 = 0xFFC00000
	bitsNaN        uint32 = 0x7FC00000
)

func computeFloatValue(text string, flags NumberFlag) float64 {
	switch {
	case flags&FlagInfinite != 0:
		return float64(math.Float32frombits(bitsInfinite))
	case flags&FlagIndefinite != 0:
		return float64(math.Float32frombits(bitsIndefinite))
	case flags&FlagNaN != 0:
		return float64(math.Float32frombits(bitsNaN))
	}
	s := text
	// Trailing type suffix (f/F/l/L) is not part of the numeric text.
	if len(s) > 0 {
		switch s[len(s)-1] {
		case 'f', 'F', 'l', 'L':
			s = s[:len(s)-1]
		}
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// computeIPValue packs an IPv4[:port] literal into a 64-bit value:
// (port << 32) | (a<<24 | b<<16 | c<<8 | d), per spec.md section 4.2.
func computeIPValue(text string) int64 {
	host := text
	var port int64
	if idx := strings.IndexByte(text, ':'); idx != -1 {
		host = text[:idx]
		p, _ := strconv.ParseInt(text[idx+1:], 10, 64)
		port = p
	}
	parts := strings.Split(host, ".")
	var v uint32
	for _, p := range parts {
		n, _ := strconv.ParseUint(p, 10, 8)
		v = (v << 8) | uint32(n)
	}
	return (port << 32) | int64(v)
}

// scanNumber is the number sub-scanner described in spec.md section 4.2.
// It is entered once the caller has determined the current character is a
// digit, or '.' followed by a digit.
func (s *Scanner) scanNumber(out *Token) bool {
	out.Cat = CatNumber

	c1 := s.peekByte(0)
	c2 := s.peekByte(1)
	var flags NumberFlag

	if c1 == '0' && c2 != '.' {
		switch {
		case c2 == 'x' || c2 == 'X':
			out.Append(s.advanceByte())
			out.Append(s.advanceByte())
			for isHexDigit(s.peekByte(0)) {
				out.Append(s.advanceByte())
			}
			flags = FlagHexadecimal | FlagInteger

		case c2 == 'b' || c2 == 'B':
			out.Append(s.advanceByte())
			out.Append(s.advanceByte())
			for s.peekByte(0) == '0' || s.peekByte(0) == '1' {
				out.Append(s.advanceByte())
			}
			flags = FlagBinary | FlagInteger

		default: // octal
			out.Append(s.advanceByte())
			for isOctalDigit(s.peekByte(0)) {
				out.Append(s.advanceByte())
			}
			flags = FlagOctal | FlagInteger
		}
	} else {
		dots := 0
		for {
			c := s.peekByte(0)
			if isDigit(c) {
				// fallthrough to append below
			} else if c == '.' {
				dots++
			} else {
				break
			}
			out.Append(s.advanceByte())
		}

		c1 = s.peekByte(0)
		if c1 == 'e' && dots == 0 {
			dots++
		}

		switch {
		case dots == 1:
			flags = FlagDecimal | FlagFloatingPoint
			if s.peekByte(0) == 'e' {
				out.Append(s.advanceByte())
				if c := s.peekByte(0); c == '-' || c == '+' {
					out.Append(s.advanceByte())
				}
				for isDigit(s.peekByte(0)) {
					out.Append(s.advanceByte())
				}
			} else if s.peekByte(0) == '#' {
				name, excFlag, ok := s.matchFloatException()
				if !ok {
					return s.errorf("invalid floating-point exception marker")
				}
				flags |= excFlag
				out.SetText(out.Text + "#" + name)
				for isDigit(s.peekByte(0)) {
					out.Append(s.advanceByte())
				}
				if s.flags&ScanAllowFloatExceptions == 0 {
					return s.errorf("floating-point exception scanned: %s", out.Text)
				}
			}

		case dots > 1:
			if s.flags&ScanAllowIPAddresses == 0 {
				return s.errorf("more than one dot in number! set allow_ip_addresses to parse IP addresses")
			}
			if dots != 3 {
				return s.errorf("IP address should have three dots")
			}
			flags = FlagIPAddress

		default:
			flags = FlagDecimal | FlagInteger
		}
	}

	switch {
	case flags&FlagFloatingPoint != 0:
		switch s.peekByte(0) {
		case 'f', 'F':
			flags |= FlagSinglePrecision
			out.Append(s.advanceByte())
		case 'l', 'L':
			flags |= FlagExtendedPrecision
			out.Append(s.advanceByte())
		default:
			flags |= FlagDoublePrecision
		}

	case flags&FlagInteger != 0:
		intFlag := FlagSignedInteger
	suffixLoop:
		for i := 0; i < 2; i++ {
			switch s.peekByte(0) {
			case 'u', 'U':
				intFlag = FlagUnsignedInteger
			case 'l', 'L':
				// retained for symmetry with the source grammar; no-op
			default:
				break suffixLoop
			}
			out.Append(s.advanceByte())
		}
		flags |= intFlag

	case flags&FlagIPAddress != 0:
		if s.peekByte(0) == ':' {
			out.Append(s.advanceByte())
			for isDigit(s.peekByte(0)) {
				out.Append(s.advanceByte())
			}
			flags |= FlagIPPort
		}
	}

	out.SetFlags(flags)
	return true
}

// matchFloatException recognizes the '#INF', '#IND', '#NAN', '#QNAN',
// '#SNAN' suffix forms after a '#' has been peeked but not yet consumed.
// It consumes the '#' and the matched name and returns the matched name
// text (without '#') and the corresponding flag.
func (s *Scanner) matchFloatException() (name string, flag NumberFlag, ok bool) {
	rest := s.remaining()
	candidates := []struct {
		text string
		flag NumberFlag
	}{
		{"#QNAN", FlagNaN},
		{"#SNAN", FlagNaN},
		{"#INF", FlagInfinite},
		{"#IND", FlagIndefinite},
		{"#NAN", FlagNaN},
	}
	for _, c := range candidates {
		if strings.HasPrefix(rest, c.text) {
			for i := 0; i < len(c.text); i++ {
				s.advanceByte()
			}
			return c.text[1:], c.flag, true
		}
	}
	return "", 0, false
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isOctalDigit(c byte) bool { return c >= '0' && c <= '7' }
func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
