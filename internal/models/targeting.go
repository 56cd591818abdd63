package models

// GeoCriteria describes a geographic target or an observed user location.
// Empty strings mean the field is absent; Lat/Lon use pointers so that a
// missing coordinate is distinguishable from coordinate zero (the equator
// and the prime meridian are valid targets).
type GeoCriteria struct {
	Country string   `json:"country,omitempty"` // ISO 3166-1 alpha-2 code (e.g., "US", "CA").
	Region  string   `json:"region,omitempty"`  // Region or subdivision code (e.g., "CA" for California).
	City    string   `json:"city,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// DeviceCriteria describes device targeting rules, or the requesting user's
// actual device when used inside a UserContext. ScreenSize is a "WxH" string
// (e.g. "1920x1080"); on the ad side it is the minimum size the creative
// needs, on the user side it is the physical screen.
type DeviceCriteria struct {
	Type       string `json:"type,omitempty"`    // "mobile", "desktop", "tablet", "tv".
	Browser    string `json:"browser,omitempty"` // Browser name (e.g., "Chrome", "Safari").
	OS         string `json:"os,omitempty"`      // Operating system name (e.g., "iOS", "Android").
	ScreenSize string `json:"screen_size,omitempty"`
}

// DemographicCriteria describes advertiser demographic targeting.
// AgeRange accepts "min-max" (e.g. "18-34") or open-ended "min+" (e.g. "65+").
// Income is an opaque bracket label matched by exact string equality only.
type DemographicCriteria struct {
	AgeRange  string `json:"age_range,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Income    string `json:"income,omitempty"`
	Education string `json:"education,omitempty"`
}

// UserDemographics holds the observed demographic attributes of a requesting
// user. Age zero means unknown.
type UserDemographics struct {
	Age       int    `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Income    string `json:"income,omitempty"`
	Education string `json:"education,omitempty"`
}

// BehaviorSignal is a single behavioral data point. On the ad side Frequency
// is the frequency an advertiser wants to see for the (Type, Value) pair; on
// the user side it is how often the behavior was actually observed.
type BehaviorSignal struct {
	Type      string `json:"type"`  // e.g. "purchase", "page_view".
	Value     string `json:"value"` // e.g. a category or SKU.
	Frequency int    `json:"frequency,omitempty"`
}

// TargetingCriteria is the full set of conditions an advertiser attaches to a
// campaign or an individual ad. Every sub-field is optional; a nil sub-struct
// or empty slice means that dimension is untargeted and scores neutrally.
// Instances are read-only once handed to the evaluator.
type TargetingCriteria struct {
	Geo          *GeoCriteria         `json:"geo,omitempty"`
	Device       *DeviceCriteria      `json:"device,omitempty"`
	Interests    []string             `json:"interests,omitempty"`
	Demographics *DemographicCriteria `json:"demographics,omitempty"`
	Behaviors    []BehaviorSignal     `json:"behaviors,omitempty"`
}

// UserContext carries everything known about the requesting user for one
// decision call. It is supplied fresh per request by the serving layer and is
// never persisted by the engine.
type UserContext struct {
	UserID       string            `json:"user_id"`
	Geo          *GeoCriteria      `json:"geo,omitempty"`
	Device       *DeviceCriteria   `json:"device,omitempty"`
	Interests    []string          `json:"interests,omitempty"`
	Demographics *UserDemographics `json:"demographics,omitempty"`
	Behaviors    []BehaviorSignal  `json:"behaviors,omitempty"`
}

// MergeTargeting overlays ad-level criteria on top of campaign-level criteria
// field by field. A populated ad field always wins; absent ad fields fall
// through to the campaign value. Sub-structs are merged per field rather than
// replaced wholesale, so an ad that only narrows the city still inherits the
// campaign's country. Latitude and longitude are treated as a pair.
func MergeTargeting(campaign, ad *TargetingCriteria) TargetingCriteria {
	var merged TargetingCriteria
	if campaign != nil {
		merged = *campaign
	}
	if ad == nil {
		return merged
	}

	if ad.Geo != nil {
		g := GeoCriteria{}
		if merged.Geo != nil {
			g = *merged.Geo
		}
		if ad.Geo.Country != "" {
			g.Country = ad.Geo.Country
		}
		if ad.Geo.Region != "" {
			g.Region = ad.Geo.Region
		}
		if ad.Geo.City != "" {
			g.City = ad.Geo.City
		}
		if ad.Geo.Lat != nil && ad.Geo.Lon != nil {
			g.Lat = ad.Geo.Lat
			g.Lon = ad.Geo.Lon
		}
		merged.Geo = &g
	}

	if ad.Device != nil {
		d := DeviceCriteria{}
		if merged.Device != nil {
			d = *merged.Device
		}
		if ad.Device.Type != "" {
			d.Type = ad.Device.Type
		}
		if ad.Device.Browser != "" {
			d.Browser = ad.Device.Browser
		}
		if ad.Device.OS != "" {
			d.OS = ad.Device.OS
		}
		if ad.Device.ScreenSize != "" {
			d.ScreenSize = ad.Device.ScreenSize
		}
		merged.Device = &d
	}

	if len(ad.Interests) > 0 {
		merged.Interests = ad.Interests
	}

	if ad.Demographics != nil {
		dm := DemographicCriteria{}
		if merged.Demographics != nil {
			dm = *merged.Demographics
		}
		if ad.Demographics.AgeRange != "" {
			dm.AgeRange = ad.Demographics.AgeRange
		}
		if ad.Demographics.Gender != "" {
			dm.Gender = ad.Demographics.Gender
		}
		if ad.Demographics.Income != "" {
			dm.Income = ad.Demographics.Income
		}
		if ad.Demographics.Education != "" {
			dm.Education = ad.Demographics.Education
		}
		merged.Demographics = &dm
	}

	if len(ad.Behaviors) > 0 {
		merged.Behaviors = ad.Behaviors
	}

	return merged
}
