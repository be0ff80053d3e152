package domain

import "time"

// Criticality is the qualitative risk tier of a medication. It drives both
// missed-dose escalation and adherence weighting.
type Criticality string

const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

// Valid reports whether the label is one of the four known tiers.
func (c Criticality) Valid() bool {
	switch c {
	case CriticalityLow, CriticalityMedium, CriticalityHigh, CriticalityCritical:
		return true
	}
	return false
}

// Weight maps the tier to its numeric adherence weight, monotonic in risk.
func (c Criticality) Weight() float64 {
	switch c {
	case CriticalityLow:
		return 1
	case CriticalityMedium:
		return 2
	case CriticalityHigh:
		return 3
	case CriticalityCritical:
		return 5
	default:
		return CriticalityMedium.Weight()
	}
}

// Escalates reports whether a missed dose of this tier alerts emergency contacts.
func (c Criticality) Escalates() bool {
	return c == CriticalityHigh || c == CriticalityCritical
}

// Medication is a catalog entry shared across users.
type Medication struct {
	ID          int64
	Name        string
	GenericName string
	BrandName   string
	Strength    string
	Criticality Criticality
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Subscription links a user to a medication with the prescribed regimen
// (the original system calls this a user-medication).
type Subscription struct {
	ID                  int64
	UserID              int64
	MedicationID        int64
	CustomName          string
	PrescribedDosage    string
	PrescribedFrequency string
	DoctorInstructions  string
	StartDate           *time.Time
	EndDate             *time.Time
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DisplayName prefers the user's custom name over the catalog name.
func (s Subscription) DisplayName(med Medication) string {
	if s.CustomName != "" {
		return s.CustomName
	}
	return med.Name
}

// SubscriptionDetail is a subscription with its medication resolved, the
// unit the adherence aggregator iterates over.
type SubscriptionDetail struct {
	Subscription Subscription
	Medication   Medication
}
