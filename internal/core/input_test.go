package core

import "testing"

func TestActionFor(t *testing.T) {
	tests := []struct {
		name     string
		key      DecodedKey
		expected Action
	}{
		{"arrow up", RawKey(KeyArrowUp), ActionUp},
		{"arrow down", RawKey(KeyArrowDown), ActionDown},
		{"space", Unicode(' '), ActionRestart},
		{"arrow left", RawKey(KeyArrowLeft), ActionNone},
		{"letter", Unicode('w'), ActionNone},
		{"unknown raw", RawKey(KeyUnknown), ActionNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ActionFor(tc.key); got != tc.expected {
				t.Errorf("ActionFor(%v) = %v, expected %v", tc.key, got, tc.expected)
			}
		})
	}
}

func TestDecodedKeyString(t *testing.T) {
	if got := RawKey(KeyArrowUp).String(); got != "RawKey(ArrowUp)" {
		t.Errorf("String() = %q", got)
	}
	if got := Unicode('x').String(); got != "Unicode(x)" {
		t.Errorf("String() = %q", got)
	}
}
