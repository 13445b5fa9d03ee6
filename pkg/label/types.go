package label

import "strings"

// Kind identifies what a label line announces.
type Kind int

const (
	StockCode Kind = iota
	SalesOrder
	PurchaseOrder
	Quantity
	Weight
	// Decoy kinds: tracked only so their values are not mistaken for a real field.
	PartNumber
	SupplierID
	Date
	BarcodeLike

	numKinds
)

var kindNames = [numKinds]string{
	StockCode:     "stock_code",
	SalesOrder:    "sales_order",
	PurchaseOrder: "po",
	Quantity:      "qty",
	Weight:        "weight",
	PartNumber:    "part_number",
	SupplierID:    "supplier_id",
	Date:          "date",
	BarcodeLike:   "barcode",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// IsDecoy reports whether values of this kind are never returned.
func (k Kind) IsDecoy() bool { return k >= PartNumber && k < numKinds }

// ScanResult is the parser output. A nil field means "not found".
type ScanResult struct {
	StockCode  *string `json:"stock_code,omitempty"`
	SalesOrder *string `json:"sales_order,omitempty"`
	Qty        *string `json:"qty,omitempty"`
	PO         *string `json:"po,omitempty"`
	Weight     *string `json:"weight,omitempty"`
}

// Fields lists the real kinds in display order.
var Fields = []Kind{StockCode, SalesOrder, PurchaseOrder, Quantity, Weight}

// Get returns the value for a real kind and whether it is present.
func (r ScanResult) Get(k Kind) (string, bool) {
	var p *string
	switch k {
	case StockCode:
		p = r.StockCode
	case SalesOrder:
		p = r.SalesOrder
	case PurchaseOrder:
		p = r.PO
	case Quantity:
		p = r.Qty
	case Weight:
		p = r.Weight
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// Missing returns the names of absent fields so a UI can flag them.
func (r ScanResult) Missing() []string {
	out := []string{}
	for _, k := range Fields {
		if _, ok := r.Get(k); !ok {
			out = append(out, k.String())
		}
	}
	return out
}

// String renders the present fields as key=value pairs for logs.
func (r ScanResult) String() string {
	var parts []string
	for _, k := range Fields {
		if v, ok := r.Get(k); ok {
			parts = append(parts, k.String()+"="+v)
		}
	}
	return strings.Join(parts, " ")
}

// Empty reports whether no field was found.
func (r ScanResult) Empty() bool { return len(r.Missing()) == len(Fields) }

// Candidate is an accepted value and where it came from.
type Candidate struct {
	Kind     Kind   `json:"-"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Line     int    `json:"line"`
	Anchored bool   `json:"anchored"`
}

// Extraction is a ScanResult plus the claims that produced it, decoys included.
type Extraction struct {
	Result     ScanResult  `json:"result"`
	Candidates []Candidate `json:"candidates"`
}

// accumulator holds one slot per kind and the values already claimed.
type accumulator struct {
	slots   [numKinds]*Candidate
	order   []Candidate
	claimed map[string]Kind
}

func newAccumulator() *accumulator {
	return &accumulator{claimed: make(map[string]Kind)}
}

func (a *accumulator) isSet(k Kind) bool { return a.slots[k] != nil }

func claimKey(v string) string { return strings.ToUpper(v) }

func (a *accumulator) isClaimed(v string) bool {
	_, ok := a.claimed[claimKey(v)]
	return ok
}

// reserve marks a raw token as owned by k without filling a slot. Used when
// post-processing rewrote the claimed value.
func (a *accumulator) reserve(k Kind, raw string) {
	if raw == "" || a.isClaimed(raw) {
		return
	}
	a.claimed[claimKey(raw)] = k
}

func (a *accumulator) value(k Kind) string {
	if c := a.slots[k]; c != nil {
		return c.Value
	}
	return ""
}

// claim stores v for k. It refuses an already set kind or a value owned by
// another kind.
func (a *accumulator) claim(k Kind, v string, line int, anchored bool) bool {
	if v == "" || a.isSet(k) || a.isClaimed(v) {
		return false
	}
	c := Candidate{Kind: k, Field: k.String(), Value: v, Line: line, Anchored: anchored}
	a.slots[k] = &c
	a.order = append(a.order, c)
	a.claimed[claimKey(v)] = k
	return true
}

func (a *accumulator) result() ScanResult {
	get := func(k Kind) *string {
		c := a.slots[k]
		if c == nil {
			return nil
		}
		v := c.Value
		return &v
	}
	return ScanResult{
		StockCode:  get(StockCode),
		SalesOrder: get(SalesOrder),
		Qty:        get(Quantity),
		PO:         get(PurchaseOrder),
		Weight:     get(Weight),
	}
}
