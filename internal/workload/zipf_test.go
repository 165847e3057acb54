package workload

import "testing"

func TestUniformStaysWithinUint64(t *testing.T) {
	d := Uniform()
	for i := 0; i < 1000; i++ {
		_ = d.Next()
	}
}

func TestZipfStaysWithinKeySpace(t *testing.T) {
	const keySpace = 10000
	d := NewZipf(keySpace, 0.99, 42)
	for i := 0; i < 5000; i++ {
		v := d.Next()
		if v >= uint64(keySpace) {
			t.Fatalf("Next() = %d, out of range [0, %d)", v, keySpace)
		}
	}
}

func TestZipfIsSkewedTowardLowIndices(t *testing.T) {
	const keySpace = 1000
	d := NewZipf(keySpace, 0.99, 7)
	lowHits, highHits := 0, 0
	for i := 0; i < 20000; i++ {
		v := d.Next()
		switch {
		case v < 10:
			lowHits++
		case v >= keySpace-10:
			highHits++
		}
	}
	if lowHits <= highHits {
		t.Fatalf("expected low indices to dominate under skew, got lowHits=%d highHits=%d", lowHits, highHits)
	}
}

func TestZipfDeterministicForSameSeed(t *testing.T) {
	a := NewZipf(1000, 0.9, 99).(*zipfDist)
	b := NewZipf(1000, 0.9, 99).(*zipfDist)
	for i := 0; i < 100; i++ {
		if a.Next() != b.Next() {
			t.Fatal("same seed produced divergent sequences")
		}
	}
}

func TestComputeZetaMonotonic(t *testing.T) {
	if computeZeta(10, 0.9) <= computeZeta(5, 0.9) {
		t.Fatal("zeta should increase as n grows")
	}
}
