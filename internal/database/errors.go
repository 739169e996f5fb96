// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package database

import (
	"io"

	"github.com/tomtom215/mercatus/internal/logging"
)

// closeWithLog closes a resource and logs failures at warn level.
// Use for resources where a failed close is worth investigating.
func closeWithLog(closer io.Closer, resourceType string) {
	if err := closer.Close(); err != nil {
		logging.Warn().Err(err).Str("resource", resourceType).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource, discarding any error.
// Use in error paths where the original error matters more than cleanup.
func closeQuietly(closer io.Closer) {
	_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
}
