package resource

import (
	"testing"
	"time"
)

func TestStoreInsertModifyErase(t *testing.T) {
	tick := time.Unix(1000, 0)
	store := NewStore(func() time.Time {
		t := tick
		tick = tick.Add(time.Second)
		return t
	})

	var events []ChangeEvent
	unsub := store.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })
	defer unsub()

	node := NewNode("node-1", time.Now())
	if err := store.Insert(node); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(node); err == nil {
		t.Fatalf("expected duplicate-id error")
	}

	v1 := node.Envelope.Version

	if err := store.Modify("node-1", func(r Resource) error {
		r.(*Node).Label = "my node"
		return nil
	}); err != nil {
		t.Fatalf("modify: %v", err)
	}

	found, ok := store.Find("node-1", TypeNode)
	if !ok {
		t.Fatalf("expected to find node-1")
	}
	n := found.(*Node)
	if n.Label != "my node" {
		t.Fatalf("modify did not apply: %+v", n)
	}
	if !n.Version.After(v1) {
		t.Fatalf("version did not increase: %v -> %v", v1, n.Version)
	}

	if _, err := store.Erase("node-1"); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if _, ok := store.Find("node-1", TypeNode); ok {
		t.Fatalf("expected node-1 to be gone")
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 change events (insert/modify/erase), got %d: %+v", len(events), events)
	}
	wantActions := []ChangeAction{ChangeInsert, ChangeModify, ChangeErase}
	for i, want := range wantActions {
		if events[i].Action != want {
			t.Fatalf("event %d: want action %s, got %s", i, want, events[i].Action)
		}
	}
}

func TestStoreVersionMonotonic(t *testing.T) {
	store := NewStore(nil)
	node := NewNode("node-1", time.Now())
	_ = store.Insert(node)

	var last Version
	for i := 0; i < 5; i++ {
		_ = store.Modify("node-1", func(r Resource) error { return nil })
		found, _ := store.Find("node-1", TypeNode)
		v := found.Envelope().Version
		if i > 0 && !v.After(last) {
			t.Fatalf("iteration %d: version did not strictly increase: %v -> %v", i, last, v)
		}
		last = v
	}
}

func TestStoreFindByTag(t *testing.T) {
	store := NewStore(nil)
	sender := NewSender("sender-1", "device-1", "flow-1", time.Now())
	sender.SetTagOne(InternalIDTag, "sink-0")
	_ = store.Insert(sender)

	found, ok := store.FindByTag(TypeSender, InternalIDTag, "sink-0")
	if !ok {
		t.Fatalf("expected to find sender by tag")
	}
	if found.Envelope().ID != "sender-1" {
		t.Fatalf("found wrong resource: %+v", found)
	}

	if _, ok := store.FindByTag(TypeSender, InternalIDTag, "nope"); ok {
		t.Fatalf("expected no match for unknown tag value")
	}
}
