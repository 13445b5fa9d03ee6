package label

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	reAlnum      = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	reAlnumSep   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*[A-Za-z0-9]$`)
	rePO         = regexp.MustCompile(`^[A-Z][A-Z0]{1,7}[0-9]{2,10}$`)
	reDigits     = regexp.MustCompile(`^[0-9]+$`)
	reNumber     = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	reWeightTok  = regexp.MustCompile(`^(\d{1,4}(?:[.,]\d{1,3})?)(?:kgs?|g|lbs?)?$`)
	reBarcode    = regexp.MustCompile(`^\d{2,3}[A-Za-z]\d{4,8}$`)
	reDate       = regexp.MustCompile(`\d{1,4}[./-]\d{1,2}[./-]\d{1,4}`)
	reLeadDigits = regexp.MustCompile(`^(\d+)([a-z]*)$`)
)

// LooksLikeStockCode reports whether tok has the shape of a stock code under
// the default bounds.
func LooksLikeStockCode(tok string) bool {
	return DefaultConfig().looksLikeStockCode(tok)
}

// looksLikeStockCode accepts mixed letter/digit codes such as "N4C3K7P9" or
// "F-19" and rejects pure serials, pure words and known boilerplate.
func (c Config) looksLikeStockCode(tok string) bool {
	n := len(tok)
	if strings.ContainsAny(tok, "-_") {
		if n < c.StockCodeSepMinLen || n > c.StockCodeSepMaxLen || !reAlnumSep.MatchString(tok) {
			return false
		}
	} else if n < c.StockCodeMinLen || n > c.StockCodeMaxLen || !reAlnum.MatchString(tok) {
		return false
	}
	if !hasLetter(tok) || !hasDigit(tok) {
		return false
	}
	low := strings.ToLower(tok)
	for _, noise := range c.NoiseSubstrings {
		if noise != "" && strings.Contains(low, noise) {
			return false
		}
	}
	return true
}

// looksLikePO accepts letter-prefix + digit-suffix codes, tolerating 0 for O
// inside the letter run.
func looksLikePO(tok string) bool {
	return rePO.MatchString(strings.ToUpper(tok))
}

// repairPO replaces 0 with O in the leading alphabetic run (everything up to
// the last letter). The trailing numeric run is left as read.
func repairPO(v string) string {
	v = strings.ToUpper(v)
	last := strings.LastIndexFunc(v, unicode.IsLetter)
	if last < 0 {
		return v
	}
	return strings.ReplaceAll(v[:last+1], "0", "O") + v[last+1:]
}

func (c Config) isSalesOrder(tok string) bool {
	return reDigits.MatchString(tok) && len(tok) >= c.SalesOrderMinDigits && len(tok) <= c.SalesOrderMaxDigits
}

// qtyValue returns the integer part of tok when it is an in-range quantity,
// optionally followed by a known unit ("250pcs").
func (c Config) qtyValue(tok string) (string, bool) {
	m := reLeadDigits.FindStringSubmatch(strings.ToLower(tok))
	if m == nil {
		return "", false
	}
	if m[2] != "" && !c.isQtyUnit(m[2]) {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < c.QtyMin || n > c.QtyMax {
		return "", false
	}
	return m[1], true
}

func (c Config) isQtyUnit(s string) bool {
	for _, u := range c.QtyUnits {
		if s == u {
			return true
		}
	}
	return false
}

func weightValue(tok string) (string, bool) {
	m := reWeightTok.FindStringSubmatch(strings.ToLower(tok))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func hasLetter(s string) bool { return strings.IndexFunc(s, unicode.IsLetter) >= 0 }
func hasDigit(s string) bool  { return strings.IndexFunc(s, unicode.IsDigit) >= 0 }
