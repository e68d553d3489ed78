package bitstream

import (
	"testing"

	"pgregory.net/rapid"
)

func TestAppendBitAndBit(t *testing.T) {
	b := New(0)
	pattern := []int{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 1}
	for _, bit := range pattern {
		b.AppendBit(bit)
	}
	if b.Len() != len(pattern) {
		t.Fatalf("Len() = %d, expected %d", b.Len(), len(pattern))
	}
	for i, expected := range pattern {
		if got := b.Bit(i); got != expected {
			t.Errorf("Bit(%d) = %d, expected %d", i, got, expected)
		}
	}
}

func TestSlice(t *testing.T) {
	b, err := Parse("110100111000101")
	if err != nil {
		t.Fatal(err)
	}
	s := b.Slice(3, 9)
	if s.String() != "100111" {
		t.Errorf("Slice(3, 9) = %q, expected %q", s.String(), "100111")
	}
	if s.Len() != 6 {
		t.Errorf("Slice(3, 9).Len() = %d, expected 6", s.Len())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("0101x01"); err == nil {
		t.Error("expected error for invalid character")
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := rapid.SliceOfN(rapid.IntRange(0, 1), 0, 200).Draw(t, "bits")
		b := New(len(bits))
		for _, bit := range bits {
			b.AppendBit(bit)
		}
		parsed, err := Parse(b.String())
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if parsed.String() != b.String() {
			t.Fatalf("round trip mismatch: %q != %q", parsed.String(), b.String())
		}
	})
}

func TestDecodeMFMProjectsOddBits(t *testing.T) {
	// Clock bits (even positions) all set to 1, data bits spell 0xC5.
	b := New(16)
	data := 0xc5
	for i := 7; i >= 0; i-- {
		b.AppendBit(1) // clock, must be ignored
		b.AppendBit((data >> i) & 1)
	}
	decoded := b.DecodeMFM()
	if len(decoded) != 1 || decoded[0] != 0xc5 {
		t.Errorf("DecodeMFM() = %v, expected [0xc5]", decoded)
	}
}

func TestDecodeMFMDiscardsPartialByte(t *testing.T) {
	b, err := Parse("0101010101") // 5 data bits, less than a byte
	if err != nil {
		t.Fatal(err)
	}
	if decoded := b.DecodeMFM(); len(decoded) != 0 {
		t.Errorf("DecodeMFM() = %v, expected empty", decoded)
	}
}

func TestMFMEncodeDecodeIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")
		encoded := EncodeMFM(data)
		if encoded.Len() != len(data)*16 {
			t.Fatalf("encoded length = %d bits, expected %d", encoded.Len(), len(data)*16)
		}
		decoded := encoded.DecodeMFM()
		if len(decoded) != len(data) {
			t.Fatalf("decoded %d bytes, expected %d", len(decoded), len(data))
		}
		for i := range data {
			if decoded[i] != data[i] {
				t.Fatalf("byte %d: got 0x%02x, expected 0x%02x", i, decoded[i], data[i])
			}
		}
	})
}

func TestMFMClockRule(t *testing.T) {
	// 0x00 after a zero bit encodes as 10 repeated: clock set between
	// consecutive zero data bits.
	b := EncodeMFM([]byte{0x00})
	if b.String() != "1010101010101010" {
		t.Errorf("EncodeMFM(00) = %q, expected %q", b.String(), "1010101010101010")
	}

	// 0xFF has no clock bits at all.
	b = EncodeMFM([]byte{0xff})
	if b.String() != "0101010101010101" {
		t.Errorf("EncodeMFM(FF) = %q, expected %q", b.String(), "0101010101010101")
	}
}

func TestSyncCellA1HasDataBitsOfA1(t *testing.T) {
	b := New(16)
	b.AppendUint16(SyncCellA1)
	decoded := b.DecodeMFM()
	if len(decoded) != 1 || decoded[0] != 0xa1 {
		t.Errorf("data bits of sync cell = %v, expected [0xa1]", decoded)
	}
}
