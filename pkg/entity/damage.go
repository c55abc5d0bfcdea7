// pkg/entity/damage.go
package entity

// DamageInfo describes a single application of damage: how much, and
// enough provenance to credit the kill.
type DamageInfo struct {
	Amount       float64
	SourceEntity ID
	SourcePlayer int
	WeaponName   string
}

// Damageable is implemented by entities that accept damage. TakeDamage
// returns the amount actually applied after clamping.
type Damageable interface {
	TakeDamage(info DamageInfo) float64
}

// Healable is implemented by entities that accept repairs
type Healable interface {
	HealDamage(amount float64) float64
}
