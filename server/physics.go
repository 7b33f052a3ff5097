package main

import (
	"math"
	"math/rand"
)

const (
	// Delta time is clamped so a hitch in the tick loop cannot tunnel
	// bubbles through each other or the walls.
	MaxDeltaTime = 1.0 / 20.0

	Restitution  = 0.7
	CollisionPad = 0.5
	WallDamping  = 0.85

	MinBubbleSpeed = 18.0
	MaxBubbleSpeed = 160.0
)

// stepPhysics integrates bubble motion and resolves collisions for one
// tick. Bubbles are mutated in place.
func stepPhysics(reg *Registry, dt float64, rng *rand.Rand) {
	if dt > MaxDeltaTime {
		dt = MaxDeltaTime
	}

	reg.Each(func(b *Bubble) {
		b.X += b.VX * dt
		b.Y += b.VY * dt
		containInArena(b)
	})

	resolveCollisions(reg, rng)

	reg.Each(func(b *Bubble) {
		clampSpeed(b, rng)
	})
}

// containInArena reflects a bubble off the arena walls with damping.
func containInArena(b *Bubble) {
	if b.X < b.Radius {
		b.X = b.Radius
		b.VX = -b.VX * WallDamping
	} else if b.X > ArenaWidth-b.Radius {
		b.X = ArenaWidth - b.Radius
		b.VX = -b.VX * WallDamping
	}
	if b.Y < b.Radius {
		b.Y = b.Radius
		b.VY = -b.VY * WallDamping
	} else if b.Y > ArenaHeight-b.Radius {
		b.Y = ArenaHeight - b.Radius
		b.VY = -b.VY * WallDamping
	}
}

// resolveCollisions separates every overlapping pair and applies an
// inelastic velocity correction to pairs that are still closing.
// O(n²) over the population; fine at the tens-to-hundreds scale this
// arena runs at.
func resolveCollisions(reg *Registry, rng *rand.Rand) {
	order := reg.Order()
	for i := 0; i < len(order); i++ {
		a := reg.Get(order[i])
		for j := i + 1; j < len(order); j++ {
			b := reg.Get(order[j])

			dx := b.X - a.X
			dy := b.Y - a.Y
			dist := math.Hypot(dx, dy)
			minDist := a.Radius + b.Radius + CollisionPad
			if dist >= minDist {
				continue
			}

			// Coincident centers have no usable normal; nudge apart in
			// a random direction instead of dividing by zero.
			if dist < 1e-9 {
				angle := rng.Float64() * 2 * math.Pi
				dx = math.Cos(angle)
				dy = math.Sin(angle)
				dist = 1
			}

			nx := dx / dist
			ny := dy / dist

			overlap := minDist - dist
			half := overlap / 2
			a.X -= nx * half
			a.Y -= ny * half
			b.X += nx * half
			b.Y += ny * half

			// Velocity correction only when the pair is still closing,
			// otherwise a separating pair would be pulled back together.
			rvx := b.VX - a.VX
			rvy := b.VY - a.VY
			closing := rvx*nx + rvy*ny
			if closing < 0 {
				impulse := -(1 + Restitution) * closing / 2
				a.VX -= impulse * nx
				a.VY -= impulse * ny
				b.VX += impulse * nx
				b.VY += impulse * ny
			}

			containInArena(a)
			containInArena(b)
		}
	}
}

// clampSpeed keeps every bubble visually alive: stalled bubbles get a
// fresh random heading at minimum speed, runaway bubbles are rescaled
// to the cap.
func clampSpeed(b *Bubble, rng *rand.Rand) {
	speed := math.Hypot(b.VX, b.VY)
	if speed < MinBubbleSpeed {
		angle := rng.Float64() * 2 * math.Pi
		b.VX = math.Cos(angle) * MinBubbleSpeed
		b.VY = math.Sin(angle) * MinBubbleSpeed
		return
	}
	if speed > MaxBubbleSpeed {
		scale := MaxBubbleSpeed / speed
		b.VX *= scale
		b.VY *= scale
	}
}
