// Package app wires configuration, sessions, the network layer and request adapters
// together and implements the commands of the CLI: fetching a URL, inspecting and
// editing partition cookies, and managing the default request options.
package app
