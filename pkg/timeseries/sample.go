package timeseries

import "time"

// MetricSample is one observation of a metric at a point in time.
// Numeric metrics populate Value; metrics whose natural value is
// non-numeric (e.g. a status string) populate StringValue instead and
// leave Value at zero — IsString reports which case applies.
type MetricSample struct {
	Name        string
	Labels      map[string]string
	Value       float64
	StringValue string
	IsString    bool
	Timestamp   time.Time
}

// Fingerprint returns the series identity this sample belongs to.
func (s MetricSample) Fingerprint() Fingerprint {
	return NewFingerprint(s.Name, s.Labels)
}

// point is the on-disk/in-memory representation of a sample with its
// series identity (name/labels) factored out into the series header.
type point struct {
	Value       float64
	StringValue string
	IsString    bool
	Timestamp   time.Time
}
