package analysis

import (
	"sort"

	"github.com/celltrack/celltrack-backend-go/internal/apperr"
	"github.com/celltrack/celltrack-backend-go/internal/models"
	"github.com/celltrack/celltrack-backend-go/internal/stats"
)

// Aggregator derives per-subscriber movement patterns from a record batch.
// It is a pure transform over the batch it is handed; no state survives a call.
type Aggregator struct {
	// FrequentContactMin is the occurrence count at which a connected
	// number counts as a frequent contact.
	FrequentContactMin int
}

// NewAggregator creates an aggregator with the default frequent-contact threshold
func NewAggregator() *Aggregator {
	return &Aggregator{FrequentContactMin: 3}
}

// Aggregate groups records by subscriber and derives one MovementPattern per
// subscriber, plus batch-level totals. Records missing required fields reject
// the whole batch with a validation error naming the fields. Movement paths
// keep the input record order.
func (a *Aggregator) Aggregate(records []models.ActivityRecord) ([]models.MovementPattern, models.BatchStats, error) {
	if err := validateRecords(records); err != nil {
		return nil, models.BatchStats{}, err
	}

	groups := make(map[string][]models.ActivityRecord)
	order := make([]string, 0)
	for _, rec := range records {
		if _, seen := groups[rec.SubscriberID]; !seen {
			order = append(order, rec.SubscriberID)
		}
		groups[rec.SubscriberID] = append(groups[rec.SubscriberID], rec)
	}
	sort.Strings(order)

	patterns := make([]models.MovementPattern, 0, len(order))
	for _, sub := range order {
		patterns = append(patterns, a.aggregateSubscriber(sub, groups[sub]))
	}

	return patterns, a.batchStats(records, len(order)), nil
}

func (a *Aggregator) aggregateSubscriber(subscriberID string, records []models.ActivityRecord) models.MovementPattern {
	pattern := models.MovementPattern{
		SubscriberID: subscriberID,
		TotalRecords: len(records),
		FirstSeen:    records[0].Timestamp,
		LastSeen:     records[0].Timestamp,
		MovementPath: make([][2]float64, 0, len(records)),
	}

	towers := make(map[string]struct{})
	var durations []float64
	var contacts []string

	for _, rec := range records {
		towers[rec.TowerID] = struct{}{}
		pattern.MovementPath = append(pattern.MovementPath, [2]float64{rec.Latitude, rec.Longitude})

		if rec.Timestamp.Before(pattern.FirstSeen) {
			pattern.FirstSeen = rec.Timestamp
		}
		if rec.Timestamp.After(pattern.LastSeen) {
			pattern.LastSeen = rec.Timestamp
		}
		if rec.CallDuration != nil {
			durations = append(durations, float64(*rec.CallDuration))
		}
		if rec.ConnectedNumber != "" {
			contacts = append(contacts, rec.ConnectedNumber)
		}
	}

	pattern.TowerCount = len(towers)
	pattern.AvgCallDuration = stats.Mean(durations)
	pattern.MaxCallDuration = stats.Max(durations)
	pattern.ContactSummary = a.summarizeContacts(contacts)

	return pattern
}

// summarizeContacts counts connected numbers, returning nil when the
// subscriber has none
func (a *Aggregator) summarizeContacts(contacts []string) *models.ContactSummary {
	if len(contacts) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, c := range contacts {
		counts[c]++
	}

	summary := &models.ContactSummary{
		ContactCount:     len(counts),
		FrequentContacts: []string{},
	}

	best := 0
	for number, count := range counts {
		if count > best || (count == best && number < summary.MostFrequent) {
			summary.MostFrequent = number
			best = count
		}
		if count >= a.FrequentContactMin {
			summary.FrequentContacts = append(summary.FrequentContacts, number)
		}
	}
	sort.Strings(summary.FrequentContacts)

	return summary
}

func (a *Aggregator) batchStats(records []models.ActivityRecord, subscriberCount int) models.BatchStats {
	batchStats := models.BatchStats{
		TotalRecords:      len(records),
		UniqueSubscribers: subscriberCount,
	}
	if len(records) == 0 {
		return batchStats
	}

	towers := make(map[string]struct{})
	var durations []float64
	batchStats.DateRange = models.DateRange{Start: records[0].Timestamp, End: records[0].Timestamp}

	for _, rec := range records {
		towers[rec.TowerID] = struct{}{}
		if rec.Timestamp.Before(batchStats.DateRange.Start) {
			batchStats.DateRange.Start = rec.Timestamp
		}
		if rec.Timestamp.After(batchStats.DateRange.End) {
			batchStats.DateRange.End = rec.Timestamp
		}
		if rec.CallDuration != nil {
			durations = append(durations, float64(*rec.CallDuration))
		}
		if rec.CallType == models.CallIncoming || rec.CallType == models.CallOutgoing {
			batchStats.CallStats.TotalCalls++
		}
	}

	batchStats.UniqueTowers = len(towers)
	batchStats.CallStats.AvgDuration = stats.Mean(durations)
	batchStats.CallStats.MaxDuration = stats.Max(durations)

	return batchStats
}

// validateRecords checks the required-field contract for the whole batch
func validateRecords(records []models.ActivityRecord) error {
	missing := make(map[string]struct{})
	for _, rec := range records {
		if rec.SubscriberID == "" {
			missing["subscriber_id"] = struct{}{}
		}
		if rec.TowerID == "" {
			missing["tower_id"] = struct{}{}
		}
		if rec.Timestamp.IsZero() {
			missing["timestamp"] = struct{}{}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	fields := make([]string, 0, len(missing))
	for f := range missing {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return apperr.NewValidation("records missing required fields", fields...)
}
