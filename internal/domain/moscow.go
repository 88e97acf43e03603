package domain

import "time"

// Moscow is UTC+3 without DST, the zone all user-facing dates use.
var Moscow = time.FixedZone("MSK", 3*60*60)

const moscowLayout = "02.01.2006 15:04:05"

// FormatMoscow renders a UNIX timestamp as "dd.mm.yyyy HH:MM:SS" in UTC+3.
func FormatMoscow(unix int64) string {
	return time.Unix(unix, 0).In(Moscow).Format(moscowLayout)
}
