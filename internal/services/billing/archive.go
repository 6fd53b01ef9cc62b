package billing

import (
	"time"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/rules"
)

func archiveKey(now time.Time, eventID string) string {
	return "webhooks/" + rules.ArchivePrefix(now) + "/" + eventID + ".json"
}
