package sqlite

import "github.com/RubeHicksCube/Djournal/internal/models"

func retention(maxAgeDays, maxCount int) models.RetentionPolicy {
	return models.RetentionPolicy{MaxAgeDays: maxAgeDays, MaxCount: maxCount}
}
