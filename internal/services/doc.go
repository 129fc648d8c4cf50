// Package services defines the shared error taxonomy for the sync
// pipeline and its external integrations.
//
// Failures are tagged with sentinel markers (transient fetch errors,
// transfer timeouts, external tool failures, validation problems) via the
// Wrap helper so callers can classify them with errors.Is without parsing
// messages. Use these markers when wiring new pipeline logic so error
// handling stays uniform across the reconciler and the scheduler.
package services
