package utils

import (
	"strings"
	"testing"
)

func TestNewPINUsesAlphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		pin, err := NewPIN()
		if err != nil {
			t.Fatalf("NewPIN: %v", err)
		}
		if !ValidPIN(pin) {
			t.Fatalf("invalid pin %q", pin)
		}
		if strings.ContainsAny(pin, "01IOL") {
			t.Fatalf("pin %q contains an ambiguous character", pin)
		}
	}
}

func TestValidPIN(t *testing.T) {
	cases := map[string]bool{
		"ABC234":  true,
		"abc234":  false,
		"ABC23":   false,
		"ABC2345": false,
		"ABC0DE":  false,
	}
	for pin, want := range cases {
		if got := ValidPIN(pin); got != want {
			t.Errorf("ValidPIN(%q) = %v, want %v", pin, got, want)
		}
	}
}
