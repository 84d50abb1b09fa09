// Package config loads the immutable gateway configuration.
//
// All allow/block lists, the credential set, and the backend endpoints are
// read once at process start via viper and never mutated afterwards, so
// the rest of the application can share the Config value across requests
// without synchronization.
package config
