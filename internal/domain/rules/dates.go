package rules

import "time"

func DayKey(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}

// ArchivePrefix is the object storage folder for a given moment, e.g. 2026/02/08.
func ArchivePrefix(now time.Time) string {
	return now.UTC().Format("2006/01/02")
}
