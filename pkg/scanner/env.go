package scanner

import (
	"log"
	"os"
	"strconv"
	"strings"

	"labelscan/pkg/label"
	"labelscan/pkg/ocr"
	"labelscan/pkg/ocr/tesseract"
)

// ConfigFromEnv reads OCR_* and LABEL_* overrides on top of the defaults.
// Unparseable values are logged and ignored.
func ConfigFromEnv() (ocr.ConsensusConfig, label.Config) {
	oc := ocr.DefaultConsensusConfig()
	if v, ok := envBool("OCR_PARALLEL"); ok {
		oc.Parallel = v
	}
	if v, ok := envInt("OCR_WORKERS"); ok {
		oc.Workers = v
	}
	if v, ok := envInt("OCR_EARLY_EXIT"); ok {
		oc.EarlyExitLength = v
	}
	if v, ok := envInt("OCR_TILT"); ok {
		oc.TiltAngle = float64(v)
	}

	lc := label.DefaultConfig()
	if v, ok := envInt("LABEL_WINDOW"); ok {
		lc.Window = v
	}
	if v, ok := envInt("LABEL_QTY_MAX"); ok {
		lc.QtyMax = v
	}
	if v, ok := envInt("LABEL_SO_MIN_DIGITS"); ok {
		lc.SalesOrderMinDigits = v
	}
	if v, ok := envInt("LABEL_SO_MAX_DIGITS"); ok {
		lc.SalesOrderMaxDigits = v
	}
	return oc, lc
}

// FromEnv builds the production scanner: Tesseract (languages from OCR_LANG,
// "+" separated) behind the consensus sweep, then the label parser.
func FromEnv() *Scanner {
	oc, lc := ConfigFromEnv()
	langs := []string{"eng"}
	if v := strings.TrimSpace(os.Getenv("OCR_LANG")); v != "" {
		langs = strings.Split(v, "+")
	}
	engine := tesseract.New(langs...)
	return New(ocr.NewConsensus(engine, ocr.WithConfig(oc)), label.NewParser(lc))
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}
