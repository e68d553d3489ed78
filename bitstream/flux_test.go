package bitstream

import (
	"testing"

	"pgregory.net/rapid"
)

// Expansion of a single 2-bit sample, as documented for the controller
// firmware.
var sampleBits = [4]string{"", "01", "001", "0001"}

func TestExpandFluxSingleByte(t *testing.T) {
	testCases := []struct {
		name     string
		input    byte
		expected string
	}{
		{
			name:     "AllPadding",
			input:    0x00, // 00 00 00 00
			expected: "",
		},
		{
			name:     "AllShort",
			input:    0x55, // 01 01 01 01
			expected: "01010101",
		},
		{
			name:     "AllMedium",
			input:    0xaa, // 10 10 10 10
			expected: "001001001001",
		},
		{
			name:     "AllLong",
			input:    0xff, // 11 11 11 11
			expected: "0001000100010001",
		},
		{
			name:     "HighToLowOrder",
			input:    0x1b, // 00 01 10 11
			expected: "010010001",
		},
		{
			name:     "Mixed",
			input:    0xe4, // 11 10 01 00
			expected: "000100101",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExpandFlux([]byte{tc.input}).String()
			if got != tc.expected {
				t.Errorf("ExpandFlux(0x%02x) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

// The decoder is total: for every byte value, the expansion equals the
// concatenation of the four per-sample expansions taken high-to-low, and
// the output length is the sum of the per-sample lengths.
func TestExpandFluxTotality(t *testing.T) {
	for v := 0; v < 256; v++ {
		expected := ""
		expectedLen := 0
		for shift := 6; shift >= 0; shift -= 2 {
			s := (v >> shift) & 3
			expected += sampleBits[s]
			expectedLen += len(sampleBits[s])
		}
		got := ExpandFlux([]byte{byte(v)})
		if got.String() != expected {
			t.Errorf("ExpandFlux(0x%02x) = %q, expected %q", v, got.String(), expected)
		}
		if got.Len() != expectedLen {
			t.Errorf("ExpandFlux(0x%02x).Len() = %d, expected %d", v, got.Len(), expectedLen)
		}
	}
}

func TestExpandFluxConcatenation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 0, 512).Draw(t, "raw")
		whole := ExpandFlux(raw).String()
		parts := ""
		for _, b := range raw {
			parts += ExpandFlux([]byte{b}).String()
		}
		if whole != parts {
			t.Fatalf("per-byte concatenation differs from whole-stream expansion")
		}
	})
}
