// Package adherence computes compliance scores from intake logs. It is a
// pure read-side computation: stable for fixed input data, no side effects.
package adherence

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

// ComplianceThreshold is the weighted-adherence percentage at or above which
// a day counts as compliant.
const ComplianceThreshold = 80.0

// MedicationStats is the per-subscription breakdown inside a Report.
type MedicationStats struct {
	MedicationID    int64
	SubscriptionID  int64
	MedicationName  string
	CustomName      string
	Criticality     domain.Criticality
	Weight          float64
	DosesPerDay     int
	SimpleAdherence float64
	Taken           int
	Missed          int
	Skipped         int
	Expected        int
	TotalRecorded   int
}

// Report aggregates adherence over a trailing day window.
type Report struct {
	PeriodDays               int
	StartDate                time.Time
	EndDate                  time.Time
	OverallWeightedAdherence float64
	OverallSimpleAdherence   float64
	TotalMedications         int
	TotalTaken               int
	TotalExpected            int
	TotalMissedCritical      int
	Medications              []MedicationStats
}

// DayMetrics is the single-calendar-day variant of the computation.
type DayMetrics struct {
	Date              time.Time
	TakenCount        int
	ExpectedCount     int
	SimpleAdherence   float64
	WeightedAdherence float64
	MissedCritical    int
	IsCompliant       bool
}

// Aggregator computes adherence metrics for one user on demand.
type Aggregator struct {
	subscriptions ports.SubscriptionStore
	intakes       ports.IntakeStore
	clock         ports.Clock
}

// NewAggregator wires the read-side stores and clock.
func NewAggregator(subs ports.SubscriptionStore, intakes ports.IntakeStore, clock ports.Clock) *Aggregator {
	return &Aggregator{subscriptions: subs, intakes: intakes, clock: clock}
}

// Report computes criticality-weighted adherence over the trailing window
// of the given number of days.
// Recorded intakes are never discounted: the effective expectation is the
// larger of the theoretical dose count and what the user actually logged.
func (a *Aggregator) Report(ctx context.Context, userID int64, days int) (Report, error) {
	end := a.clock.Now()
	start := end.AddDate(0, 0, -days)

	report := Report{
		PeriodDays: days,
		StartDate:  start,
		EndDate:    end,
	}

	subs, err := a.subscriptions.ActiveForUser(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return report, nil
	}

	var weightedTaken, totalWeight float64
	for _, sub := range subs {
		counts, err := a.intakes.CountsInWindow(ctx, sub.Subscription.ID, start, end)
		if err != nil {
			return Report{}, fmt.Errorf("intakes for subscription %d: %w", sub.Subscription.ID, err)
		}

		weight := sub.Medication.Criticality.Weight()
		dosesPerDay := DosesPerDay(sub.Subscription.PrescribedFrequency)
		expectedTotal := dosesPerDay * days

		effectiveExpected := expectedTotal
		if counts.Total() > effectiveExpected {
			effectiveExpected = counts.Total()
		}

		simple := 0.0
		if effectiveExpected > 0 {
			simple = float64(counts.Taken) / float64(effectiveExpected) * 100
		}

		totalWeight += weight * float64(effectiveExpected)
		weightedTaken += float64(counts.Taken) * weight
		report.TotalTaken += counts.Taken
		report.TotalExpected += effectiveExpected
		if sub.Medication.Criticality == domain.CriticalityCritical {
			report.TotalMissedCritical += counts.Missed
		}

		report.Medications = append(report.Medications, MedicationStats{
			MedicationID:    sub.Medication.ID,
			SubscriptionID:  sub.Subscription.ID,
			MedicationName:  sub.Medication.Name,
			CustomName:      sub.Subscription.CustomName,
			Criticality:     sub.Medication.Criticality,
			Weight:          weight,
			DosesPerDay:     dosesPerDay,
			SimpleAdherence: round2(simple),
			Taken:           counts.Taken,
			Missed:          counts.Missed,
			Skipped:         counts.Skipped,
			Expected:        effectiveExpected,
			TotalRecorded:   counts.Total(),
		})
	}

	report.TotalMedications = len(subs)
	if report.TotalExpected > 0 {
		report.OverallSimpleAdherence = round2(float64(report.TotalTaken) / float64(report.TotalExpected) * 100)
	}
	if totalWeight > 0 {
		report.OverallWeightedAdherence = round2(weightedTaken / totalWeight * 100)
	}

	sort.Slice(report.Medications, func(i, j int) bool {
		return report.Medications[i].Weight > report.Medications[j].Weight
	})

	return report, nil
}

// Daily computes one metrics bucket per calendar day for the trailing window,
// oldest day first.
func (a *Aggregator) Daily(ctx context.Context, userID int64, days int) ([]DayMetrics, error) {
	subs, err := a.subscriptions.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return []DayMetrics{}, nil
	}

	now := a.clock.Now()
	first := now.AddDate(0, 0, -(days - 1))

	metrics := make([]DayMetrics, 0, days)
	for offset := 0; offset < days; offset++ {
		day := first.AddDate(0, 0, offset)

		var taken, expected, missedCritical int
		var weightedTaken, dayWeight float64
		for _, sub := range subs {
			counts, err := a.intakes.CountsOnDay(ctx, sub.Subscription.ID, day)
			if err != nil {
				return nil, fmt.Errorf("intakes for subscription %d on %s: %w",
					sub.Subscription.ID, day.Format("2006-01-02"), err)
			}

			weight := sub.Medication.Criticality.Weight()
			dosesPerDay := DosesPerDay(sub.Subscription.PrescribedFrequency)

			dayWeight += weight * float64(dosesPerDay)
			weightedTaken += float64(counts.Taken) * weight
			taken += counts.Taken
			expected += dosesPerDay
			if sub.Medication.Criticality == domain.CriticalityCritical {
				missedCritical += counts.Missed
			}
		}

		simple := 0.0
		if expected > 0 {
			simple = float64(taken) / float64(expected) * 100
		}
		weighted := 0.0
		if dayWeight > 0 {
			weighted = weightedTaken / dayWeight * 100
		}

		metrics = append(metrics, DayMetrics{
			Date:              day,
			TakenCount:        taken,
			ExpectedCount:     expected,
			SimpleAdherence:   round2(simple),
			WeightedAdherence: round2(weighted),
			MissedCritical:    missedCritical,
			IsCompliant:       weighted >= ComplianceThreshold,
		})
	}

	return metrics, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
