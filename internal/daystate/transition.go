package daystate

import "github.com/RubeHicksCube/Djournal/internal/models"

// NeedsTransition reports whether a state stored for date stored has to be
// archived before it can serve current.
func NeedsTransition(stored, current string) bool {
	return stored != current
}

// NextDay builds the state for date from the previous day. Template fields
// are regenerated empty, counters keep their names with a zero value, both
// tracker kinds are copied unchanged and everything else starts empty.
// Gaps of several days collapse to date directly.
func NextDay(prev models.DayState, date string, templates []models.FieldTemplate, counters []models.Counter) models.DayState {
	next := models.NewDayState(date)

	for _, t := range templates {
		next.TemplateFields = append(next.TemplateFields, models.Field{ID: t.ID, Key: t.Key})
	}
	for _, c := range counters {
		next.CustomCounters = append(next.CustomCounters, models.Counter{ID: c.ID, Name: c.Name})
	}

	next.TimeSinceTrackers = append(next.TimeSinceTrackers, prev.TimeSinceTrackers...)
	for _, t := range prev.DurationTrackers {
		next.DurationTrackers = append(next.DurationTrackers, t.Clone())
	}
	return next
}
