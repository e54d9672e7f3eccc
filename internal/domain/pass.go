package domain

import "time"

// PassType is the closed set of toll passes available for purchase.
type PassType string

const (
	PassTypeSingle   PassType = "single"    // one use, 1 hour from first use
	PassTypeReturn   PassType = "return"    // two uses, 24 hours from first use
	PassTypeSevenDay PassType = "seven_day" // unlimited uses, 7 days from first use
)

// PassStatus is the lifecycle classification of a pass. It is a derived
// value: the stored column is a cache, Classify is the authority.
type PassStatus string

const (
	PassStatusActive    PassStatus = "active"
	PassStatusExpired   PassStatus = "expired"
	PassStatusExhausted PassStatus = "exhausted"
)

// UnlimitedUses is the uses_remaining sentinel for the seven-day category.
const UnlimitedUses = -1

// PassCategory holds the non-monetary parameters of a pass type. Prices
// live in the pricing service.
type PassCategory struct {
	Duration  time.Duration
	Uses      int
	Unlimited bool
}

var passCategories = map[PassType]PassCategory{
	PassTypeSingle:   {Duration: time.Hour, Uses: 1},
	PassTypeReturn:   {Duration: 24 * time.Hour, Uses: 2},
	PassTypeSevenDay: {Duration: 7 * 24 * time.Hour, Uses: UnlimitedUses, Unlimited: true},
}

// IsValid reports whether the pass type is one of the known categories.
func (t PassType) IsValid() bool {
	_, ok := passCategories[t]
	return ok
}

// Category returns the category parameters for the pass type.
func (t PassType) Category() PassCategory {
	return passCategories[t]
}

// AllPassTypes returns the pass types in their canonical order.
func AllPassTypes() []PassType {
	return []PassType{PassTypeSingle, PassTypeReturn, PassTypeSevenDay}
}

// TollPass links a vehicle to a toll with validity and usage tracking.
// A pass purchased at toll A is never valid at toll B.
//
// The validity window starts at FIRST USE, not at purchase: both
// FirstUsedAt and ValidUntil stay nil until the pass is used, then are set
// together exactly once. A never-used pass cannot expire.
type TollPass struct {
	ID string `json:"id"`

	// Linking fields.
	VehicleReg string `json:"vehicle_reg"`
	TollID     string `json:"toll_id"`

	PassType    PassType    `json:"pass_type"`
	VehicleType VehicleType `json:"vehicle_type"`
	Price       int64       `json:"price"`

	PurchasedAt time.Time  `json:"purchased_at"`
	FirstUsedAt *time.Time `json:"first_used_at,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`

	// UsesRemaining is UnlimitedUses for the seven-day category.
	UsesRemaining int `json:"uses_remaining"`

	// Status is a cached classification. Admission decisions recompute it
	// via Classify instead of trusting this field.
	Status PassStatus `json:"status"`

	// Version backs the optimistic concurrency check on save.
	Version int64 `json:"-"`
}

// Activated reports whether the pass has been used at least once.
func (p *TollPass) Activated() bool {
	return p.FirstUsedAt != nil
}

// Unlimited reports whether the pass belongs to the unlimited-use category.
func (p *TollPass) Unlimited() bool {
	return p.PassType.Category().Unlimited
}

// Classify derives the pass status at the given instant. Pure: it never
// mutates the pass.
//
// A pass that was never used is always active regardless of elapsed time
// since purchase - purchase time never drives expiry.
func (p *TollPass) Classify(now time.Time) PassStatus {
	if !p.Unlimited() && p.UsesRemaining == 0 {
		return PassStatusExhausted
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return PassStatusExpired
	}
	return PassStatusActive
}

// Activate starts the validity window on first use. Calling it on an
// already-activated pass is an invariant violation, not a normal outcome.
func (p *TollPass) Activate(now time.Time) error {
	if p.FirstUsedAt != nil {
		return ErrPassAlreadyActivated
	}
	until := now.Add(p.PassType.Category().Duration)
	p.FirstUsedAt = &now
	p.ValidUntil = &until
	return nil
}

// ConsumeUse spends one use. No-op for the unlimited category. Consuming a
// use on a zero-remaining pass is an invariant violation: candidate
// filtering should have excluded the pass.
func (p *TollPass) ConsumeUse() error {
	if p.Unlimited() {
		return nil
	}
	if p.UsesRemaining <= 0 {
		return ErrNoUsesRemaining
	}
	p.UsesRemaining--
	return nil
}

// RefreshStatus recomputes and caches the status.
func (p *TollPass) RefreshStatus(now time.Time) {
	p.Status = p.Classify(now)
}

// Validate checks pass data.
func (p *TollPass) Validate() error {
	if p.VehicleReg == "" || p.TollID == "" {
		return ErrInvalidPassData
	}
	if !p.PassType.IsValid() {
		return ErrInvalidPassType
	}
	if !p.VehicleType.IsValid() {
		return ErrInvalidVehicleType
	}
	// Both-or-neither: a pass with exactly one lifecycle timestamp set is
	// corrupt.
	if (p.FirstUsedAt == nil) != (p.ValidUntil == nil) {
		return ErrInvalidPassData
	}
	return nil
}
