package workload

import "testing"

func TestToOpsProducesCorrectCounts(t *testing.T) {
	m := Mix{Read: 70, Insert: 10, Remove: 5, Update: 10, Upsert: 5}
	ops := m.ToOps()
	if len(ops) != 100 {
		t.Fatalf("len(ops) = %d, want 100", len(ops))
	}

	var counts [5]int
	for _, op := range ops {
		counts[op]++
	}
	want := [5]int{70, 10, 5, 10, 5}
	if counts != want {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
}

func TestToOpsPanicsOnBadMix(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on a mix that does not sum to 100")
		}
	}()
	Mix{Read: 50}.ToOps()
}

func TestReadOnlyMix(t *testing.T) {
	ops := ReadOnly().ToOps()
	for _, op := range ops {
		if op != OpRead {
			t.Fatalf("read-only mix produced non-read op %v", op)
		}
	}
}
