package label

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reQtyLoose = regexp.MustCompile(`^.ty(?:[^a-z]|$)`)
	reQtyShort = regexp.MustCompile(`^q.{0,2}$`)
)

// detector is one row of the anchored-pass table. Rows are tried in table
// order on every line until their kind is set.
type detector struct {
	kind   Kind
	detect func(c Config, l Line) bool
	accept func(c Config) Acceptor
	// extract overrides the default window search.
	extract func(c Config, lines []Line, i int, accept Acceptor) (value, raw string, at int, ok bool)
	// colon, when it returns an acceptor, is tried on the first after-colon
	// token of the label line before extract runs.
	colon func(c Config, l Line) Acceptor
	post  func(string) string
}

// detectors is ordered by priority.
var detectors = []detector{
	{kind: PurchaseOrder, detect: isPOLabel, accept: acceptPO, extract: extractPO, colon: poColon, post: repairPO},
	{kind: Weight, detect: isWeightLabel, accept: acceptWeight, extract: extractWeight},
	{kind: Quantity, detect: isQtyLabel, accept: acceptQty},
	{kind: SalesOrder, detect: isSalesOrderLabel, accept: acceptSalesOrder},
	{kind: StockCode, detect: isStockCodeLabel, accept: acceptStockCode},
	{kind: PartNumber, detect: isPartNumberLabel, accept: acceptCodeWithDigit(4)},
	{kind: SupplierID, detect: isSupplierLabel, accept: acceptCodeWithDigit(3)},
	{kind: Date, detect: isDateLabel, accept: acceptDate},
	{kind: BarcodeLike, detect: hasBarcodeToken, accept: acceptBarcode, extract: sameLineOnly},
}

// isPOLabel fires on any po/p0 prefix. Prose such as "Powder" is weeded out
// by extractPO.
func isPOLabel(_ Config, l Line) bool {
	return strings.HasPrefix(l.Compact, "po") || strings.HasPrefix(l.Compact, "p0") ||
		strings.Contains(l.Compact, "purchaseorder")
}

var poLabelWords = map[string]bool{
	"po": true, "p0": true, "pono": true, "p0no": true, "ponumber": true, "p0number": true,
	"purchaseorder": true, "purchaseorderno": true, "purchaseordernumber": true,
}

// isPOLabelWord reports whether s is a PO label written on its own, ignoring
// punctuation: "PO", "P0#", "PO No.", "Purchase Order".
func isPOLabelWord(s string) bool {
	return poLabelWords[strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)]
}

// poColon takes whatever follows "PO:" as the order number, numeric ones
// included.
func poColon(_ Config, l Line) Acceptor {
	if l.AfterColon() == "" || !isPOLabelWord(l.LabelKey()) {
		return nil
	}
	return func(tok string) (string, bool) { return strings.ToUpper(tok), tok != "" }
}

// extractPO handles the colon-less forms. A bare label ("PO", "P0 No.")
// searches the window; a label glued to its value ("POGRO024") yields the
// tail; any other po-prefixed line is prose and only its own tokens count.
func extractPO(c Config, lines []Line, i int, accept Acceptor) (string, string, int, bool) {
	l := lines[i]
	toks := l.Tokens()
	if len(toks) == 0 {
		return "", "", -1, false
	}
	if isPOLabelWord(toks[0]) || strings.Contains(l.Compact, "purchaseorder") {
		return FindNear(lines, i, c.Window, accept)
	}
	if low := strings.ToLower(toks[0]); strings.HasPrefix(low, "po") || strings.HasPrefix(low, "p0") {
		if v, ok := accept(strings.TrimLeft(toks[0][2:], "#.-")); ok {
			return v, toks[0], i, true
		}
	}
	return FindNear(lines, i, 0, accept)
}

func isWeightLabel(_ Config, l Line) bool {
	c := l.Compact
	return strings.Contains(c, "weight") || strings.Contains(c, "we1ght") ||
		(strings.Contains(c, "ight") && strings.Contains(c, ":"))
}

func isQtyLabel(c Config, l Line) bool {
	key := l.LabelKey()
	for _, ex := range c.QtyExclusions {
		if ex != "" && strings.Contains(key, ex) {
			return false
		}
	}
	return reQtyLoose.MatchString(key) || reQtyShort.MatchString(key) ||
		strings.Contains(key, "qty") || strings.Contains(key, "quantity")
}

func isSalesOrderLabel(_ Config, l Line) bool {
	return strings.Contains(l.Match, "sales") && strings.Contains(l.Match, "order")
}

func isStockCodeLabel(_ Config, l Line) bool {
	return strings.Contains(l.Compact, "stockcode") ||
		(strings.Contains(l.Match, "stock") && strings.Contains(l.Match, "code"))
}

func isPartNumberLabel(_ Config, l Line) bool {
	c := l.Compact
	return strings.Contains(c, "partnumber") || strings.Contains(c, "partno") ||
		strings.Contains(c, "part#") || strings.Contains(c, "p/n") || strings.HasPrefix(c, "pn:")
}

func isSupplierLabel(_ Config, l Line) bool {
	return strings.Contains(l.Compact, "supplier") || strings.Contains(l.Compact, "vendor")
}

func isDateLabel(_ Config, l Line) bool { return strings.Contains(l.Compact, "date") }

func hasBarcodeToken(_ Config, l Line) bool {
	for _, tok := range l.Tokens() {
		if reBarcode.MatchString(tok) {
			return true
		}
	}
	return false
}

func acceptPO(Config) Acceptor {
	return func(tok string) (string, bool) {
		if !looksLikePO(tok) {
			return "", false
		}
		return strings.ToUpper(tok), true
	}
}

func acceptWeight(Config) Acceptor { return weightValue }

func acceptQty(c Config) Acceptor { return c.qtyValue }

func acceptSalesOrder(c Config) Acceptor {
	return func(tok string) (string, bool) { return tok, c.isSalesOrder(tok) }
}

func acceptStockCode(c Config) Acceptor {
	return func(tok string) (string, bool) { return tok, c.looksLikeStockCode(tok) }
}

func acceptCodeWithDigit(minLen int) func(Config) Acceptor {
	return func(Config) Acceptor {
		return func(tok string) (string, bool) {
			ok := len(tok) >= minLen && hasDigit(tok) && (reAlnum.MatchString(tok) || reAlnumSep.MatchString(tok))
			return tok, ok
		}
	}
}

func acceptDate(Config) Acceptor {
	return func(tok string) (string, bool) {
		m := reDate.FindString(tok)
		return m, m != "" && m == tok
	}
}

func acceptBarcode(Config) Acceptor {
	return func(tok string) (string, bool) { return tok, reBarcode.MatchString(tok) }
}

// extractWeight prefers a number printed on the label line itself: after the
// colon, then after the keyword. Only then does it search nearby lines.
func extractWeight(c Config, lines []Line, i int, accept Acceptor) (string, string, int, bool) {
	l := lines[i]
	if ac := l.AfterColon(); ac != "" {
		if m := reNumber.FindString(ac); m != "" {
			if v, ok := accept(m); ok {
				return v, m, i, true
			}
		}
	}
	if k := strings.Index(l.Match, "ight"); k >= 0 {
		if m := reNumber.FindString(l.Match[k:]); m != "" {
			if v, ok := accept(m); ok {
				return v, m, i, true
			}
		}
	}
	return FindNear(lines, i, c.Window, accept)
}

func sameLineOnly(_ Config, lines []Line, i int, accept Acceptor) (string, string, int, bool) {
	return FindNear(lines, i, 0, accept)
}
