package persist

import (
	"time"

	"github.com/segmentio/ksuid"
)

// DBID represents a unique identifier generated client-side
type DBID string

// GenerateID generates an application-wide unique identifier
func GenerateID() DBID {
	return DBID(ksuid.New().String())
}

func (d DBID) String() string {
	return string(d)
}

// CreationTime marks the moment a record was created
type CreationTime time.Time

// Now returns the current time as a CreationTime
func Now() CreationTime {
	return CreationTime(time.Now())
}

func (c CreationTime) Time() time.Time {
	return time.Time(c)
}
