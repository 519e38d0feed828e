package cpp

// scanIdentifier implements the identifier sub-scanner of spec.md section
// 4.2: letters, digits, underscore, plus path-name characters when
// AllowPathNames is set. Sets the boolean flag when the text is exactly
// "true" or "false". Not used in OnlyStrings mode, which dispatches to
// scanOnlyStringsToken instead and tags the whole run as a string.
func (s *Scanner) scanIdentifier(out *Token) bool {
	out.Cat = CatIdentifier

	for {
		out.Append(s.advanceByte())
		c := s.peekByte(0)
		if isIdentContinue(c) {
			continue
		}
		if s.flags&ScanAllowPathNames != 0 && (c == '/' || c == '\\' || c == ':' || c == '.') {
			continue
		}
		break
	}

	if out.Text == "true" || out.Text == "false" {
		out.SetFlags(FlagBoolean)
	} else {
		out.SetFlags(0)
	}
	return true
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// scanPunctuation implements the punctuation sub-scanner of spec.md
// section 4.2: it walks the active PunctTable's chain for the current
// byte and accepts the longest matching variant, storing the variant id
// in the token's overloaded Flags field.
func (s *Scanner) scanPunctuation(out *Token) bool {
	d, ok := s.punct.Match(s.remaining())
	if !ok {
		return false
	}
	out.Cat = CatPunctuation
	out.Text = d.Text
	out.SetPunctID(d.ID)
	for range d.Text {
		s.advanceByte()
	}
	return true
}
