// Package stageexec runs one pipeline step with uniform timing, logging, and
// a single audit event per invocation.
package stageexec
