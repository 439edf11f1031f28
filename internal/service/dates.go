package service

import "time"

const dateLayout = "2006-01-02"

// parseDateRange reads optional YYYY-MM-DD bounds. The upper bound covers the
// whole day.
func parseDateRange(from, to string) (*time.Time, *time.Time, error) {
	var f, t *time.Time
	if from != "" {
		d, err := time.Parse(dateLayout, from)
		if err != nil {
			return nil, nil, invalid("from", "must be a date in YYYY-MM-DD format")
		}
		f = &d
	}
	if to != "" {
		d, err := time.Parse(dateLayout, to)
		if err != nil {
			return nil, nil, invalid("to", "must be a date in YYYY-MM-DD format")
		}
		end := d.Add(24*time.Hour - time.Nanosecond)
		t = &end
	}
	if f != nil && t != nil && f.After(*t) {
		return nil, nil, invalid("from", "must not be after to")
	}
	return f, t, nil
}
