// Package preflight provides readiness checks for the directories and
// external services talknote depends on.
//
// The daemon runs RunAll at startup and logs any failures; the CLI "deps"
// command prints the same results and, when asked, probes the LLM
// endpoint with CheckLLM.
package preflight
