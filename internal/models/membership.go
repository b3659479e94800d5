package models

import "time"

// Membership rows are never deleted. At most one row per user is ACTIVE,
// enforced by a partial unique index created in database.Migrate.
type Membership struct {
	BaseModel
	UserID  string           `gorm:"type:uuid;not null;index" json:"userId"`
	Plan    MembershipPlan   `gorm:"type:varchar(20);not null" json:"plan"`
	Status  MembershipStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	EndDate *time.Time       `json:"endDate"`
}

// IsLapsed reports whether an ACTIVE row has run past its end date.
func (m *Membership) IsLapsed(now time.Time) bool {
	return m.EndDate != nil && m.EndDate.Before(now)
}
