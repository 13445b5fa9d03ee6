package label

// Config holds the tunable thresholds used by the parser. Zero values are not
// meaningful; start from DefaultConfig and override fields.
type Config struct {
	// Window is how many lines above and below a label line are searched
	// for its value.
	Window int

	QtyMin int
	QtyMax int

	SalesOrderMinDigits int
	SalesOrderMaxDigits int

	StockCodeMinLen    int
	StockCodeMaxLen    int
	StockCodeSepMinLen int
	StockCodeSepMaxLen int

	// NoiseSubstrings reject stock-code candidates (case-insensitive).
	NoiseSubstrings []string
	// QtyExclusions are label keys that look like "q.." but are prose.
	QtyExclusions []string
	// QtyUnits may trail a quantity value ("250pcs").
	QtyUnits []string
}

const (
	DefaultWindow              = 2
	DefaultQtyMin              = 1
	DefaultQtyMax              = 50000
	DefaultSalesOrderMinDigits = 5
	DefaultSalesOrderMaxDigits = 12
)

// DefaultConfig returns the bounds the parser is tuned for.
func DefaultConfig() Config {
	return Config{
		Window:              DefaultWindow,
		QtyMin:              DefaultQtyMin,
		QtyMax:              DefaultQtyMax,
		SalesOrderMinDigits: DefaultSalesOrderMinDigits,
		SalesOrderMaxDigits: DefaultSalesOrderMaxDigits,
		StockCodeMinLen:     6,
		StockCodeMaxLen:     12,
		StockCodeSepMinLen:  2,
		StockCodeSepMaxLen:  20,
		NoiseSubstrings:     []string{"www", "http", "iso900", "barcode", "stock", "sales", "order", "weight", "qty"},
		QtyExclusions:       []string{"search", "query"},
		QtyUnits:            []string{"units", "pcs", "ctn", "pc", "ea"},
	}
}

// normalized fills missing or inverted bounds from the defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Window < 0 {
		c.Window = d.Window
	}
	if c.QtyMax <= 0 || c.QtyMax < c.QtyMin {
		c.QtyMin, c.QtyMax = d.QtyMin, d.QtyMax
	}
	if c.SalesOrderMinDigits <= 0 || c.SalesOrderMaxDigits < c.SalesOrderMinDigits {
		c.SalesOrderMinDigits, c.SalesOrderMaxDigits = d.SalesOrderMinDigits, d.SalesOrderMaxDigits
	}
	if c.StockCodeMinLen <= 0 || c.StockCodeMaxLen < c.StockCodeMinLen {
		c.StockCodeMinLen, c.StockCodeMaxLen = d.StockCodeMinLen, d.StockCodeMaxLen
	}
	if c.StockCodeSepMinLen <= 0 || c.StockCodeSepMaxLen < c.StockCodeSepMinLen {
		c.StockCodeSepMinLen, c.StockCodeSepMaxLen = d.StockCodeSepMinLen, d.StockCodeSepMaxLen
	}
	if c.NoiseSubstrings == nil {
		c.NoiseSubstrings = d.NoiseSubstrings
	}
	if c.QtyExclusions == nil {
		c.QtyExclusions = d.QtyExclusions
	}
	if c.QtyUnits == nil {
		c.QtyUnits = d.QtyUnits
	}
	return c
}
