// Package tools holds the tool catalog of the gateway: the static
// registry of schema-described capabilities, the dispatcher that is the
// single choke point for invoking them, and the handler bodies.
//
// Every handler validates its inputs against the sandbox policies before
// producing any effect, and every effect runs through the shared process
// runner. The protocol surface, the legacy REST surface, and the stdio
// transport all reach handlers exclusively through Dispatcher.Dispatch,
// so all three enforce identical sandboxing.
package tools
