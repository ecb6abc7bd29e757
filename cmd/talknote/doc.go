// Command talknote runs meeting summary jobs in the foreground and inspects
// the job ledger shared with the talknoted daemon.
package main
