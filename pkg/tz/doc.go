/*
Package tz computes the calendar-day bucket the fragment engine uses to
group files by the day they were last modified, in an album's configured
IANA time zone. It blank-imports time/tzdata so day bucketing works the
same on a minimal container image that ships no system zoneinfo
database.
*/
package tz

import _ "time/tzdata"
