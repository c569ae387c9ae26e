package database

import "time"

const storedTimeLayout = "2006-01-02 15:04:05.000"

// GetToday returns today's date (UTC) as YYYY-MM-DD.
func GetToday() string {
	return time.Now().UTC().Format("2006-01-02")
}

// FormatStoredTime renders t in the layout used by the analyzed_at column.
func FormatStoredTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// FormatAnalyzedAt formats a stored analyzed_at timestamp for display.
// Unparseable values are returned unchanged.
func FormatAnalyzedAt(stamp string) string {
	t, err := time.Parse(storedTimeLayout, stamp)
	if err != nil {
		return stamp
	}
	return t.Format("Jan 02, 2006 15:04 UTC")
}
