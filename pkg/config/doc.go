/*
Package config loads beacond's YAML configuration file and applies a
small set of environment variable overrides on top of it. The schema
covers per-collector settings, storage/retention, alert evaluation,
notification routing, and the Prometheus-style scrape endpoint.
*/
package config
