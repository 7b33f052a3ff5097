package main

import (
	"math/rand"
	"testing"
)

func TestReconcileAddsNewHolders(t *testing.T) {
	reg := NewRegistry()
	rng := rand.New(rand.NewSource(1))

	added, removed := reg.Reconcile([]Holder{
		{Address: "alice", Percent: 2.5},
		{Address: "bob", Percent: 0.05},
	}, rng)

	if len(added) != 2 || len(removed) != 0 {
		t.Fatalf("expected 2 added, 0 removed, got %d/%d", len(added), len(removed))
	}
	if reg.Len() != 2 {
		t.Errorf("expected 2 bubbles, got %d", reg.Len())
	}

	a := reg.Get("alice")
	if a.Tier != "shark" {
		t.Errorf("2.5%% should be shark, got %s", a.Tier)
	}
	b := reg.Get("bob")
	if b.Tier != "shrimp" {
		t.Errorf("0.05%% should be shrimp, got %s", b.Tier)
	}
}

func TestReconcileRemovesAfterTwoMisses(t *testing.T) {
	reg := NewRegistry()
	rng := rand.New(rand.NewSource(1))

	reg.Reconcile([]Holder{{Address: "alice", Percent: 1}, {Address: "bob", Percent: 1}}, rng)

	// First refresh without bob: flicker, not removal.
	_, removed := reg.Reconcile([]Holder{{Address: "alice", Percent: 1}}, rng)
	if len(removed) != 0 {
		t.Fatalf("one missed refresh should not remove, got %v", removed)
	}
	if reg.Get("bob") == nil {
		t.Fatal("bob should survive one missed refresh")
	}

	// Second consecutive miss removes for real.
	_, removed = reg.Reconcile([]Holder{{Address: "alice", Percent: 1}}, rng)
	if len(removed) != 1 || removed[0] != "bob" {
		t.Fatalf("expected bob removed, got %v", removed)
	}
	if reg.Get("bob") != nil {
		t.Error("bob should be gone")
	}
	if len(reg.Order()) != 1 {
		t.Errorf("order should shrink with removal, got %v", reg.Order())
	}
}

func TestReconcileMissCounterResets(t *testing.T) {
	reg := NewRegistry()
	rng := rand.New(rand.NewSource(1))

	reg.Reconcile([]Holder{{Address: "alice", Percent: 1}}, rng)
	reg.Reconcile([]Holder{}, rng)
	reg.Reconcile([]Holder{{Address: "alice", Percent: 1}}, rng)
	// Alice came back in between, so this is the first miss again.
	_, removed := reg.Reconcile([]Holder{}, rng)

	if len(removed) != 0 {
		t.Errorf("reappearing should reset the miss counter, got removed %v", removed)
	}
}

func TestReconcileKeepsPositionAndVelocity(t *testing.T) {
	reg := NewRegistry()
	rng := rand.New(rand.NewSource(1))

	reg.Reconcile([]Holder{{Address: "alice", Percent: 1}}, rng)
	b := reg.Get("alice")
	b.X, b.Y, b.VX, b.VY = 300, 400, 50, -20

	reg.Reconcile([]Holder{{Address: "alice", Percent: 4}}, rng)
	b = reg.Get("alice")
	if b.X != 300 || b.Y != 400 || b.VX != 50 || b.VY != -20 {
		t.Error("refresh must not move an existing bubble")
	}
	if b.Percent != 4 {
		t.Errorf("percent should update, got %v", b.Percent)
	}
	if b.Radius != radiusForPercent(4) {
		t.Errorf("radius should follow percent, got %v", b.Radius)
	}
}

func TestSpawnInBounds(t *testing.T) {
	reg := NewRegistry()
	rng := rand.New(rand.NewSource(42))

	holders := make([]Holder, 50)
	for i := range holders {
		holders[i] = Holder{Address: GenerateID(4), Percent: rng.Float64() * 10}
	}
	reg.Reconcile(holders, rng)

	reg.Each(func(b *Bubble) {
		if b.X < b.Radius || b.X > ArenaWidth-b.Radius ||
			b.Y < b.Radius || b.Y > ArenaHeight-b.Radius {
			t.Errorf("bubble %s spawned out of bounds at (%v, %v)", b.Address, b.X, b.Y)
		}
	})
}

func TestRadiusForPercent(t *testing.T) {
	if r := radiusForPercent(0); r != MinBubbleRadius {
		t.Errorf("zero percent should be minimum radius, got %v", r)
	}
	if r := radiusForPercent(-1); r != MinBubbleRadius {
		t.Errorf("negative percent should clamp to minimum, got %v", r)
	}
	if r := radiusForPercent(100); r != MaxBubbleRadius {
		t.Errorf("huge percent should clamp to maximum, got %v", r)
	}
	small := radiusForPercent(0.1)
	big := radiusForPercent(5)
	if small >= big {
		t.Errorf("radius should grow with percent: %v >= %v", small, big)
	}
}
