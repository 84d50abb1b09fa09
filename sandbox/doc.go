// Package sandbox provides the software-level trust boundary of the gateway.
//
// It contains the single process-execution primitive every tool handler is
// built on, plus the pure validators that gate what the primitive may be
// asked to do: a path allow/block policy, a literal command-prefix policy,
// and a query mutation-keyword guard. The validators are deterministic for
// a given configuration and hold no mutable state, so they are safe for
// concurrent use.
//
// None of this is process isolation. The prefix policy matches only the
// start of a command, leaving everything after the matched prefix as
// unconstrained shell syntax, and the query guard is a substring scan that
// a determined caller can evade. They are coarse operator gates, not a
// security sandbox; the real perimeter is the fixed credential set and the
// fixed tool catalog in front of them.
package sandbox
