//nolint:revive // exported
package dbtime

import "time"

// DBNow returns the current time normalized the way rows store it.
func DBNow() time.Time {
	return DBTime(time.Now())
}

func DBTime(t time.Time) time.Time {
	return t.UTC()
}
