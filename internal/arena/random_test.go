package arena

import "testing"

func TestSeededRandom_SameSeedSameSequence(t *testing.T) {
	a := NewSeededRandom(424242)
	b := NewSeededRandom(424242)

	for i := 0; i < 1000; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("step %d: %v != %v", i, va, vb)
		}
	}
}

func TestSeededRandom_Bounds(t *testing.T) {
	seeds := []int64{0, 1, -7, 123456789, 1 << 40}

	for _, seed := range seeds {
		r := NewSeededRandom(seed)
		for i := 0; i < 500; i++ {
			v := r.Next()
			if v < 0 || v >= 1 {
				t.Fatalf("seed %d step %d: %v out of [0,1)", seed, i, v)
			}
			if n := r.Intn(3); n < 0 || n > 2 {
				t.Fatalf("seed %d: Intn(3) = %d", seed, n)
			}
		}
	}
}

func TestSeededRandom_DifferentSeedsDiverge(t *testing.T) {
	a := NewSeededRandom(1)
	b := NewSeededRandom(2)

	same := 0
	for i := 0; i < 50; i++ {
		if a.Next() == b.Next() {
			same++
		}
	}
	if same == 50 {
		t.Error("expected different seeds to produce different sequences")
	}
}

func TestSeededRandom_Range(t *testing.T) {
	r := NewSeededRandom(99)
	for i := 0; i < 200; i++ {
		v := r.Range(-5, 5)
		if v < -5 || v >= 5 {
			t.Fatalf("Range(-5,5) = %v", v)
		}
	}
	if got := r.Intn(0); got != 0 {
		t.Errorf("Intn(0) = %d, want 0", got)
	}
}
