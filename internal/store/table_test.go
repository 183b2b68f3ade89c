package store

import "testing"

type widget struct {
	ID    ID
	Owner string
	Rank  int64
}

func newWidgetTable(stack *UndoStack) *Table[widget] {
	tbl := NewTable[widget](stack)
	tbl.AddIndex("owner", func(w widget) Key { return Key{w.Owner} })
	tbl.AddIndex("rank", func(w widget) Key { return Key{w.Rank} })
	return tbl
}

func TestCreateAssignsAscendingIDs(t *testing.T) {
	stack := &UndoStack{}
	tbl := newWidgetTable(stack)

	var id1, id2 ID
	id1 = tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "alice", Rank: 3} })
	id2 = tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "bob", Rank: 1} })

	if id2 <= id1 {
		t.Fatalf("expected ascending ids, got %d then %d", id1, id2)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
}

func TestRangeOrdersByIndexKeyThenPrimaryID(t *testing.T) {
	stack := &UndoStack{}
	tbl := newWidgetTable(stack)
	tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "a", Rank: 5} })
	tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "a", Rank: 5} })
	tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "a", Rank: 1} })

	var ranks []int64
	tbl.Range("rank", Key{int64(0)}, Key{int64(10)}, func(_ ID, w widget) bool {
		ranks = append(ranks, w.Rank)
		return true
	})
	want := []int64{1, 5, 5}
	if len(ranks) != len(want) {
		t.Fatalf("got %v, want %v", ranks, want)
	}
	for i := range want {
		if ranks[i] != want[i] {
			t.Fatalf("got %v, want %v", ranks, want)
		}
	}
}

func TestModifyReindexes(t *testing.T) {
	stack := &UndoStack{}
	tbl := newWidgetTable(stack)
	id := tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "a", Rank: 1} })

	tbl.Modify(id, func(w *widget) { w.Rank = 9 })

	if _, _, ok := tbl.Find("rank", Key{int64(1)}); ok {
		t.Fatalf("stale index entry for old rank still present")
	}
	if _, w, ok := tbl.Find("rank", Key{int64(9)}); !ok || w.ID != id {
		t.Fatalf("expected row reindexed under new rank")
	}
}

func TestUndoRestoresCreateModifyRemove(t *testing.T) {
	stack := &UndoStack{}
	tbl := newWidgetTable(stack)

	sess := stack.Begin()
	id := tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "a", Rank: 1} })
	tbl.Modify(id, func(w *widget) { w.Rank = 2 })
	tbl.Remove(id)
	sess.Undo()

	if tbl.Len() != 0 {
		t.Fatalf("expected table empty after undoing create+modify+remove, got %d rows", tbl.Len())
	}
}

func TestCommitDiscardsInversesButKeepsMutation(t *testing.T) {
	stack := &UndoStack{}
	tbl := newWidgetTable(stack)

	sess := stack.Begin()
	id := tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "a", Rank: 1} })
	sess.Commit()

	if _, ok := tbl.Get(id); !ok {
		t.Fatalf("expected row to survive commit")
	}
	if len(stack.inverses) != 0 {
		t.Fatalf("expected no residual inverses after commit, got %d", len(stack.inverses))
	}
}

func TestNestedSessionUndoLeavesOuterIntact(t *testing.T) {
	stack := &UndoStack{}
	tbl := newWidgetTable(stack)

	outer := stack.Begin()
	outerID := tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "outer", Rank: 1} })

	inner := stack.Begin()
	tbl.Create(func(id ID) widget { return widget{ID: id, Owner: "inner", Rank: 2} })
	inner.Undo()

	if tbl.Len() != 1 {
		t.Fatalf("expected inner create to be undone, got %d rows", tbl.Len())
	}
	outer.Commit()
	if _, ok := tbl.Get(outerID); !ok {
		t.Fatalf("expected outer row to survive after inner undo and outer commit")
	}
}
