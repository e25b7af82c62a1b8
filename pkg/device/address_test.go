package device

import (
	"testing"
)

func TestParseAddress_RoundTrip(t *testing.T) {
	a, err := ParseAddress("00:1B:DC:F2:1C:5A")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if got := a.String(); got != "00:1B:DC:F2:1C:5A" {
		t.Errorf("String: expected 00:1B:DC:F2:1C:5A, got %s", got)
	}
}

func TestParseAddress_LowerCase(t *testing.T) {
	a, err := ParseAddress("aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if got := a.String(); got != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("String: expected canonical upper case, got %s", got)
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	cases := []string{
		"",
		"00:1B:DC:F2:1C",
		"00:1B:DC:F2:1C:5A:99",
		"001BDCF21C5A",
		"zz:1B:DC:F2:1C:5A",
		"0:1B:DC:F2:1C:5A",
	}
	for _, s := range cases {
		if _, err := ParseAddress(s); err == nil {
			t.Errorf("ParseAddress(%q): expected error", s)
		}
	}
}

func TestAddress_IsZero(t *testing.T) {
	var a Address
	if !a.IsZero() {
		t.Error("zero value should report IsZero")
	}
	if MustParseAddress("01:00:00:00:00:00").IsZero() {
		t.Error("non-zero address should not report IsZero")
	}
}

func TestAddress_Comparable(t *testing.T) {
	m := map[Address]int{}
	a := MustParseAddress("AA:BB:CC:DD:EE:FF")
	b := MustParseAddress("aa:bb:cc:dd:ee:ff")
	m[a] = 1
	if m[b] != 1 {
		t.Error("equal addresses should hash to the same key")
	}
}
