// Package notifications publishes job completion and failure events to an
// ntfy topic. Without a configured topic every publish is a no-op.
package notifications
