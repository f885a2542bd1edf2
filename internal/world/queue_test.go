package world

import "testing"

func TestQueuePopsNearestWithinCap(t *testing.T) {
	q := newGenQueue()
	// distances 1, 5, 2 from the origin
	q.Push(ChunkCoord{X: 1})
	q.Push(ChunkCoord{X: 5})
	q.Push(ChunkCoord{Z: -2})

	got := q.PopNearest(ChunkCoord{}, 2)
	if len(got) != 2 || got[0] != (ChunkCoord{X: 1}) || got[1] != (ChunkCoord{Z: -2}) {
		t.Fatalf("popped %v, want [{1 0} {0 -2}]", got)
	}
	if q.Len() != 1 || !q.Has(ChunkCoord{X: 5}) {
		t.Fatalf("remaining queue wrong, len=%d", q.Len())
	}
}

func TestQueueDuplicatePushIsNoop(t *testing.T) {
	q := newGenQueue()
	if !q.Push(ChunkCoord{1, 1}) {
		t.Fatal("first push rejected")
	}
	if q.Push(ChunkCoord{1, 1}) {
		t.Error("duplicate push accepted")
	}
	if q.Len() != 1 {
		t.Errorf("len %d, want 1", q.Len())
	}
}

func TestQueueRemove(t *testing.T) {
	q := newGenQueue()
	q.Push(ChunkCoord{0, 0})
	q.Push(ChunkCoord{3, 3})
	if !q.Remove(ChunkCoord{3, 3}) {
		t.Fatal("queued coord not removed")
	}
	if q.Remove(ChunkCoord{3, 3}) {
		t.Error("second remove reported success")
	}
	if got := q.PopNearest(ChunkCoord{}, 10); len(got) != 1 || got[0] != (ChunkCoord{}) {
		t.Errorf("popped %v", got)
	}
}

func TestQueueTiesOrderedByCoordinate(t *testing.T) {
	q := newGenQueue()
	for _, c := range []ChunkCoord{{1, 0}, {0, 1}, {-1, 0}, {0, -1}} {
		q.Push(c)
	}
	got := q.PopNearest(ChunkCoord{}, 4)
	want := []ChunkCoord{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestFloorDivAndMod(t *testing.T) {
	cases := []struct{ a, q, m int }{
		{0, 0, 0}, {15, 0, 15}, {16, 1, 0}, {-1, -1, 15}, {-16, -1, 0}, {-17, -2, 15},
	}
	for _, c := range cases {
		if got := floorDiv(c.a, 16); got != c.q {
			t.Errorf("floorDiv(%d) = %d, want %d", c.a, got, c.q)
		}
		if got := mod(c.a, 16); got != c.m {
			t.Errorf("mod(%d) = %d, want %d", c.a, got, c.m)
		}
	}
	if got := ChunkCoordForPos(-0.5, 31.9); got != (ChunkCoord{-1, 1}) {
		t.Errorf("ChunkCoordForPos = %v", got)
	}
}
