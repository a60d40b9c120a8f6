package pulse

import "testing"

func TestNewCapture(t *testing.T) {
	c := NewCapture([]uint32{570, 2000, 570, 4000})
	if c.Number != 4 {
		t.Errorf("Number: got %d, want 4", c.Number)
	}
	if c.Hash == 0 {
		t.Error("expected non-zero hash")
	}
	if c.Repeats {
		t.Error("expected Repeats=false")
	}
}

func TestConsume(t *testing.T) {
	c := NewCapture([]uint32{570, 2000})
	c.Consume()
	if c.Number != 0 {
		t.Errorf("Number: got %d, want 0", c.Number)
	}
	if !c.Repeats {
		t.Error("expected Repeats=true")
	}
	if len(c.Pulses) != 2 {
		t.Error("Consume must not touch the durations")
	}
}

func TestFingerprintIgnoresJitter(t *testing.T) {
	a := []uint32{576, 4032, 576, 1984, 576, 2016, 576, 4064}
	b := []uint32{544, 4096, 560, 2048, 592, 1952, 576, 4000}
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("retransmissions with jitter should share a fingerprint")
	}
}

func TestFingerprintDistinguishesFrames(t *testing.T) {
	a := []uint32{576, 4032, 576, 1984, 576, 2016, 576, 4064}
	b := []uint32{576, 1984, 576, 4032, 576, 2016, 576, 4064}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("different bit patterns should not share a fingerprint")
	}
	if Fingerprint(a) == Fingerprint(a[:6]) {
		t.Error("different lengths should not share a fingerprint")
	}
}

func TestFingerprintEmpty(t *testing.T) {
	if Fingerprint(nil) != 0 {
		t.Error("expected 0 for an empty capture")
	}
}

func TestFingerprintOneHeavyFrames(t *testing.T) {
	tests := []struct{ a, b string }{
		{"1111 1111 1011 0110", "1101 0111 1011 0111"},
		{"1111 1110", "1111 1101"},
		{"0111 1111", "1011 1111"},
	}
	for _, tt := range tests {
		a := Fingerprint(append(distancePulses(bitsOf(tt.a)...), 570, 9000))
		b := Fingerprint(append(distancePulses(bitsOf(tt.b)...), 570, 9000))
		if a == b {
			t.Errorf("%s and %s share fingerprint %#x", tt.a, tt.b, a)
		}
	}
}

func TestFingerprintIgnoresTrailingGap(t *testing.T) {
	frame := distancePulses(bitsOf("1101 0010 1111 0001")...)
	short := append(append([]uint32(nil), frame...), 570, 9000)
	long := append(append([]uint32(nil), frame...), 570, 60000)
	if Fingerprint(short) != Fingerprint(long) {
		t.Error("the gap that ends a capture should not change its fingerprint")
	}
}

func TestFingerprintUniformFrames(t *testing.T) {
	zeros := append(distancePulses(bitsOf("0000 0000")...), 570, 9000)
	ones := append(distancePulses(bitsOf("1111 1111")...), 570, 9000)
	if Fingerprint(zeros) == Fingerprint(ones) {
		t.Error("all-zero and all-one frames should not share a fingerprint")
	}
}
