package scanner

import "testing"

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OCR_PARALLEL", "yes")
	t.Setenv("OCR_EARLY_EXIT", "40")
	t.Setenv("LABEL_WINDOW", "3")
	t.Setenv("LABEL_QTY_MAX", "not-a-number")
	oc, lc := ConfigFromEnv()
	if !oc.Parallel || oc.EarlyExitLength != 40 {
		t.Fatalf("unexpected ocr config %+v", oc)
	}
	if lc.Window != 3 || lc.QtyMax != 50000 {
		t.Fatalf("unexpected label config %+v", lc)
	}
}
