package main

import (
	"math"
	"math/rand"
)

const (
	ProjectileRadius     = 4.0
	ProjectileTravelTime = 0.9 // seconds from origin to target, any distance
	ProjectileMargin     = 60.0

	CurveMagnitudeMin = 20.0
	CurveMagnitudeMax = 90.0

	BaseProjectileDamage = 8.0
	BaseFireCooldown     = 2.0 // seconds, before fire-rate effects
)

// Projectile follows a quadratic Bézier curve from its origin to the
// target's position at spawn time. Position is always recomputed from
// the curve, never integrated, so the shape survives frame-rate
// variance. Target is informational: a projectile hits whatever valid
// combatant it touches first.
type Projectile struct {
	ID      string
	Shooter string
	Target  string

	OX, OY float64 // origin
	TX, TY float64 // target point fixed at spawn
	CX, CY float64 // Bézier control point

	T         float64 // progress in [0,1]
	CurveSign float64
	CurveMag  float64

	Color  string
	Damage float64

	// Homing cannon shots re-aim at the target's live position each
	// tick instead of the spawn-time point.
	Homing bool

	X, Y float64 // current position, derived from T
}

// NewProjectile spawns a projectile from origin to target point with a
// random curve sign and magnitude chosen once at spawn.
func NewProjectile(shooter *Bubble, tx, ty float64, damage float64, rng *rand.Rand) *Projectile {
	mag := CurveMagnitudeMin + rng.Float64()*(CurveMagnitudeMax-CurveMagnitudeMin)
	sign := 1.0
	if rng.Float64() < 0.5 {
		sign = -1.0
	}
	return newProjectileCurve(shooter, tx, ty, damage, sign, mag)
}

// newProjectileCurve spawns with an explicit curve sign and magnitude.
// A zero-length path has no direction and no curve; the spawn is
// refused rather than letting NaN propagate.
func newProjectileCurve(shooter *Bubble, tx, ty, damage, sign, mag float64) *Projectile {
	dx := tx - shooter.X
	dy := ty - shooter.Y
	length := math.Hypot(dx, dy)
	if length < 1e-9 {
		return nil
	}

	p := &Projectile{
		ID:        GenerateID(3),
		Shooter:   shooter.Address,
		OX:        shooter.X,
		OY:        shooter.Y,
		TX:        tx,
		TY:        ty,
		CurveSign: sign,
		CurveMag:  mag,
		Color:     shooter.Color,
		Damage:    damage,
		X:         shooter.X,
		Y:         shooter.Y,
	}
	p.recomputeControl()
	return p
}

// recomputeControl places the control point at the segment midpoint,
// offset perpendicular to the origin→target line. The offset is twice
// the configured magnitude because a quadratic Bézier passes halfway
// between the midpoint and the control point at t=0.5, so the curve's
// actual midpoint deviation equals CurveMag exactly.
func (p *Projectile) recomputeControl() {
	dx := p.TX - p.OX
	dy := p.TY - p.OY
	length := math.Hypot(dx, dy)
	if length < 1e-9 {
		p.CX = p.OX
		p.CY = p.OY
		return
	}
	mx := (p.OX + p.TX) / 2
	my := (p.OY + p.TY) / 2
	px := -dy / length
	py := dx / length
	p.CX = mx + px*p.CurveSign*p.CurveMag*2
	p.CY = my + py*p.CurveSign*p.CurveMag*2
}

// PointAt evaluates the Bézier curve at progress t.
func (p *Projectile) PointAt(t float64) (float64, float64) {
	inv := 1 - t
	x := inv*inv*p.OX + 2*inv*t*p.CX + t*t*p.TX
	y := inv*inv*p.OY + 2*inv*t*p.CY + t*t*p.TY
	return x, y
}

// Retarget re-aims a homing projectile at a live target position.
func (p *Projectile) Retarget(tx, ty float64) {
	p.TX = tx
	p.TY = ty
	p.recomputeControl()
}

// Advance moves progress forward and recomputes the current position
// from the curve. Travel time is constant regardless of distance, so
// the progress increment is the tick delta over the travel time.
// Returns false when the projectile expired or left the arena.
func (p *Projectile) Advance(dt float64) bool {
	p.T += dt / ProjectileTravelTime
	if p.T > 1 {
		return false
	}
	p.X, p.Y = p.PointAt(p.T)
	if p.X < -ProjectileMargin || p.X > ArenaWidth+ProjectileMargin ||
		p.Y < -ProjectileMargin || p.Y > ArenaHeight+ProjectileMargin {
		return false
	}
	return true
}

// Hits reports whether the projectile touches the given bubble.
func (p *Projectile) Hits(b *Bubble) bool {
	return CheckCollision(p.X, p.Y, ProjectileRadius, b.X, b.Y, b.Radius)
}
