package reportdesk

import "time"

const defaultTimeZoneName = "Asia/Kolkata"

func loadLocation(name string) *time.Location {
	if name == "" {
		name = defaultTimeZoneName
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		if name == defaultTimeZoneName {
			return time.FixedZone(defaultTimeZoneName, 5*60*60+30*60)
		}
		return time.UTC
	}
	return location
}

func (c *Core) now() time.Time {
	return c.clock().In(c.location)
}

// nowRFC3339 returns the current timestamp in the configured report time zone.
func (c *Core) nowRFC3339() string {
	return c.now().Format(time.RFC3339)
}
