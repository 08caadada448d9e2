package runtime

import (
	"context"
	"errors"

	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/log"
)

// Probe tries preferred's `version` sub-command first; on failure it
// tries fallback. The winning adapter is returned so callers can
// record its Name() as the `runtime` label. Both failing is a
// Dependency error: no usable runtime is present.
func Probe(ctx context.Context, preferred, fallback Adapter) (Adapter, error) {
	logger := log.WithComponent("runtime")

	if _, err := preferred.Version(ctx); err == nil {
		return preferred, nil
	} else {
		logger.Warn().Err(err).Str("adapter", preferred.Name()).Msg("preferred runtime adapter unavailable, trying fallback")
	}

	if fallback != nil {
		if _, err := fallback.Version(ctx); err == nil {
			return fallback, nil
		} else {
			logger.Warn().Err(err).Str("adapter", fallback.Name()).Msg("fallback runtime adapter unavailable")
		}
	}

	return nil, errs.New(errs.Dependency, "runtime.probe", errors.New("no container runtime (docker or podman) available"))
}
