/*
Package log provides structured logging for beacon using zerolog.

It wraps zerolog to give every subsystem (event bus, hook dispatcher,
collectors, alert engine, notification router) a component-tagged
JSON or console logger, initialized once from pkg/config.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	hookLog := log.WithComponent("hooks")
	hookLog.Info().Str("hook_id", h.ID()).Msg("dispatching hook")

	log.Logger.Error().Err(err).Str("target", containerID).Msg("collector failed")

Component loggers (WithComponent, WithHookID, WithEventID, WithTarget)
attach a single context field and return a plain zerolog.Logger value,
so callers compose further fields with the usual zerolog chain
(.With().Str(...).Logger()).

JSON output is used in production; console (human-readable) output is
for local development. Both include a timestamp on every line.
*/
package log
