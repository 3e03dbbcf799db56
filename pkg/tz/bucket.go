package tz

import (
	"fmt"
	"time"

	"github.com/cuemby/photocore/pkg/catalogerr"
)

// DayBucket interprets ts as a Unix timestamp, converts it to local time
// in zoneName, truncates to local 00:00:00, and returns that midnight's
// own Unix timestamp. This is the Section key the fragment engine
// groups files under.
func DayBucket(ts int64, zoneName string) (int64, error) {
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown time zone %q: %v", catalogerr.ErrBadRequest, zoneName, err)
	}
	local := time.Unix(ts, 0).In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return midnight.Unix(), nil
}

// ValidZone reports whether zoneName loads as a known IANA zone,
// without computing a bucket. UpdateAlbum uses this to reject a bad
// time_zone before touching the engine.
func ValidZone(zoneName string) bool {
	_, err := time.LoadLocation(zoneName)
	return err == nil
}
