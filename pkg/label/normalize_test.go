package label

import (
	"reflect"
	"testing"
)

func TestNormalizeDropsBlanksAndCollapses(t *testing.T) {
	lines := Normalize("  PO:   GRO024 \r\n\n\t\nSales\t  Order\r95237\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines got %d: %+v", len(lines), lines)
	}
	if lines[0].Text != "PO: GRO024" || lines[0].Compact != "po:gro024" {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[1].Text != "Sales Order" || lines[1].Match != "sales order" || lines[1].Index != 1 {
		t.Fatalf("unexpected second line %+v", lines[1])
	}
	if lines[2].Index != 2 {
		t.Fatalf("expected index 2 after dropping blanks got %d", lines[2].Index)
	}
}

func TestStripDiacritics(t *testing.T) {
	cases := map[string]string{"Ôty": "Oty", "åty": "aty", "Wéight": "Weight", "plain": "plain"}
	for in, want := range cases {
		if got := StripDiacritics(in); got != want {
			t.Fatalf("StripDiacritics(%q) = %q want %q", in, got, want)
		}
	}
}

func TestLineHelpers(t *testing.T) {
	l := Normalize("Stock Code: (F-19), 12.5kg.")[0]
	if l.AfterColon() != "(F-19), 12.5kg." {
		t.Fatalf("unexpected after colon %q", l.AfterColon())
	}
	if l.LabelKey() != "stockcode" {
		t.Fatalf("unexpected label key %q", l.LabelKey())
	}
	want := []string{"Stock", "Code", "F-19", "12.5kg"}
	if got := l.Tokens(); !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens %v want %v", got, want)
	}
}
