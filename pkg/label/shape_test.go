package label

import (
	"math/rand"
	"strings"
	"testing"
)

func TestLooksLikeStockCode(t *testing.T) {
	good := []string{"N4C3K7P9", "F-19", "AB12CD", "X1_Y2", "abc123def456"}
	bad := []string{"445566", "STEELBRACKET", "A1B2C", "abc123def4567", "www123abc", "QTY250", "-F19", "AB 123"}
	for _, s := range good {
		if !LooksLikeStockCode(s) {
			t.Fatalf("expected %q accepted", s)
		}
	}
	for _, s := range bad {
		if LooksLikeStockCode(s) {
			t.Fatalf("expected %q rejected", s)
		}
	}
}

// stockCodeLaw restates the accepted shape independently of the regexps.
func stockCodeLaw(s string) bool {
	sep := strings.ContainsAny(s, "-_")
	n := len(s)
	if sep {
		if n < 2 || n > 20 || strings.ContainsAny(s[:1]+s[n-1:], "-_") {
			return false
		}
	} else if n < 6 || n > 12 {
		return false
	}
	letter, digit := false, false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letter = true
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	if !letter || !digit {
		return false
	}
	low := strings.ToLower(s)
	for _, noise := range DefaultConfig().NoiseSubstrings {
		if strings.Contains(low, noise) {
			return false
		}
	}
	return true
}

func TestLooksLikeStockCodeLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const alphabet = "ABCXYZabcxyz0123456789-_"
	const plain = "ABCDEFGHJKMNPQRSTUVWXYZ0123456789"
	for i := 0; i < 5000; i++ {
		chars := plain
		if i%3 == 0 {
			chars = alphabet
		}
		n := 1 + rng.Intn(22)
		b := make([]byte, n)
		for j := range b {
			b[j] = chars[rng.Intn(len(chars))]
		}
		s := string(b)
		if got, want := LooksLikeStockCode(s), stockCodeLaw(s); got != want {
			t.Fatalf("%q: got %v want %v", s, got, want)
		}
	}
}

func TestRepairPO(t *testing.T) {
	cases := map[string]string{
		"GRO024":   "GRO024",
		"G0R024":   "GOR024",
		"a0b00123": "AOB00123",
		"12345":    "12345",
	}
	for in, want := range cases {
		if got := repairPO(in); got != want {
			t.Fatalf("repairPO(%q) = %q want %q", in, got, want)
		}
	}
}

func TestQtyValueUnits(t *testing.T) {
	c := DefaultConfig()
	if v, ok := c.qtyValue("12ctn"); !ok || v != "12" {
		t.Fatalf("expected 12 got %q %v", v, ok)
	}
	if _, ok := c.qtyValue("12kg"); ok {
		t.Fatalf("kg is not a quantity unit")
	}
	if _, ok := c.qtyValue("0"); ok {
		t.Fatalf("0 is below range")
	}
	if _, ok := c.qtyValue("50001"); ok {
		t.Fatalf("50001 is above range")
	}
}
