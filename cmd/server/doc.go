// Package main is the entry point for the opsgate server.
//
// Opsgate is a remote tool-execution gateway: an HTTP-reachable MCP
// server exposing a fixed catalog of operator tools against the host it
// administers, with a fixed credential set and static allowlists as the
// trust boundary.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main
