// Package executor runs the actions the dispatcher fires.
//
// A Pool takes fired actions through the non-blocking Execute method and
// runs them on a fixed set of workers, so a slow action never stalls event
// ingestion. Actions either carry a Go body (Runner) or a script in a named
// language (Scripted) run by a registered Interpreter; shell and Lua
// interpreters are provided.
//
// HaltAll is cooperative: running bodies see their context cancelled and
// queued runs are skipped. Finished runs are counted in Metrics and, when
// a StatsSink is set, reported as Invocations for persistent statistics.
package executor
