package label

// Parser extracts label fields from OCR text. It is immutable and safe for
// concurrent use.
type Parser struct {
	cfg Config
}

// NewParser builds a parser; invalid bounds in cfg fall back to defaults.
func NewParser(cfg Config) *Parser {
	return &Parser{cfg: cfg.normalized()}
}

// Config returns the effective configuration.
func (p *Parser) Config() Config { return p.cfg }

var defaultParser = NewParser(DefaultConfig())

// Parse runs the default parser.
func Parse(text string) ScanResult { return defaultParser.Parse(text) }

// Parse returns the five label fields found in text. It never fails; fields
// that cannot be located are nil.
func (p *Parser) Parse(text string) ScanResult { return p.Extract(text).Result }

// Extract is Parse plus the accepted candidates, decoys included.
func (p *Parser) Extract(text string) Extraction {
	lines := Normalize(text)
	acc := newAccumulator()
	p.anchored(lines, acc)
	p.fallbackStockCode(lines, acc)
	p.fallbackSalesOrder(lines, acc)
	p.fallbackQuantity(lines, acc)
	cands := make([]Candidate, len(acc.order))
	copy(cands, acc.order)
	return Extraction{Result: acc.result(), Candidates: cands}
}

// anchored runs every unset detector over every line, top to bottom. The
// first value found for a kind wins.
func (p *Parser) anchored(lines []Line, acc *accumulator) {
	for i, l := range lines {
		for _, d := range detectors {
			if acc.isSet(d.kind) || !d.detect(p.cfg, l) {
				continue
			}
			if d.colon != nil {
				if a := d.colon(p.cfg, l); a != nil {
					if toks := tokenize(l.AfterColon()); len(toks) > 0 {
						if v, ok := p.guardWith(d, a, acc)(toks[0]); ok && acc.claim(d.kind, v, i, true) {
							acc.reserve(d.kind, toks[0])
							continue
						}
					}
				}
			}
			accept := p.guard(d, acc)
			var (
				v, raw string
				at     int
				ok     bool
			)
			if d.extract != nil {
				v, raw, at, ok = d.extract(p.cfg, lines, i, accept)
			} else {
				v, raw, at, ok = FindNear(lines, i, p.cfg.Window, accept)
			}
			if !ok {
				continue
			}
			if acc.claim(d.kind, v, at, true) {
				acc.reserve(d.kind, raw)
			}
		}
	}
}

// guard wraps a detector's acceptor with post-processing and the exclusion
// set, so the window search skips values owned by another field.
func (p *Parser) guard(d detector, acc *accumulator) Acceptor {
	return p.guardWith(d, d.accept(p.cfg), acc)
}

func (p *Parser) guardWith(d detector, base Acceptor, acc *accumulator) Acceptor {
	return func(tok string) (string, bool) {
		v, ok := base(tok)
		if !ok {
			return "", false
		}
		if d.post != nil {
			v = d.post(v)
		}
		if v == "" || acc.isClaimed(v) || acc.isClaimed(tok) {
			return "", false
		}
		return v, true
	}
}

func (p *Parser) fallbackStockCode(lines []Line, acc *accumulator) {
	if acc.isSet(StockCode) {
		return
	}
	for _, l := range lines {
		for _, tok := range l.Tokens() {
			if p.cfg.looksLikeStockCode(tok) && acc.claim(StockCode, tok, l.Index, false) {
				return
			}
		}
	}
}

func (p *Parser) fallbackSalesOrder(lines []Line, acc *accumulator) {
	if acc.isSet(SalesOrder) {
		return
	}
	qty := acc.value(Quantity)
	for _, l := range lines {
		for _, tok := range l.Tokens() {
			if !p.cfg.isSalesOrder(tok) || tok == qty {
				continue
			}
			if acc.claim(SalesOrder, tok, l.Index, false) {
				return
			}
		}
	}
}

// fallbackQuantity takes the only in-range integer, or the most repeated one.
// Frequency ties go to the value seen first.
func (p *Parser) fallbackQuantity(lines []Line, acc *accumulator) {
	if acc.isSet(Quantity) {
		return
	}
	type tally struct {
		value string
		count int
		line  int
	}
	var seen []tally
	index := map[string]int{}
	for _, l := range lines {
		for _, tok := range l.Tokens() {
			v, ok := p.cfg.qtyValue(tok)
			if !ok || acc.isClaimed(v) || acc.isClaimed(tok) {
				continue
			}
			if j, ok := index[v]; ok {
				seen[j].count++
				continue
			}
			index[v] = len(seen)
			seen = append(seen, tally{value: v, count: 1, line: l.Index})
		}
	}
	if len(seen) == 0 {
		return
	}
	best := seen[0]
	for _, t := range seen[1:] {
		if t.count > best.count {
			best = t
		}
	}
	acc.claim(Quantity, best.value, best.line, false)
}
