package label

// Acceptor decides whether a token is a value and returns it in canonical form.
type Acceptor func(tok string) (string, bool)

// FindNear searches for a value around the label at lines[i]: the label line
// first, then lines i+1, i-1, i+2, i-2 ... up to distance w. On every line the
// after-colon text is tried as a whole before the individual tokens. It
// returns the accepted value, its raw token and the line it was found on.
func FindNear(lines []Line, i, w int, accept Acceptor) (value, raw string, at int, ok bool) {
	if i < 0 || i >= len(lines) {
		return "", "", -1, false
	}
	if v, r, ok := scanLine(lines[i], accept); ok {
		return v, r, i, true
	}
	for d := 1; d <= w; d++ {
		for _, j := range [2]int{i + d, i - d} {
			if j < 0 || j >= len(lines) {
				continue
			}
			if v, r, ok := scanLine(lines[j], accept); ok {
				return v, r, j, true
			}
		}
	}
	return "", "", -1, false
}

func scanLine(l Line, accept Acceptor) (string, string, bool) {
	if ac := l.AfterColon(); ac != "" {
		if v, ok := accept(ac); ok {
			return v, ac, true
		}
	}
	for _, tok := range l.Tokens() {
		if v, ok := accept(tok); ok {
			return v, tok, true
		}
	}
	return "", "", false
}
