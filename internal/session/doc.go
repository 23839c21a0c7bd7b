// Package session provides cookie sessions backed by net/http/cookiejar
// and a registry that resolves sessions by partition name.
//
// Partitions prefixed with "persist:" are saved as YAML files under the data directory
// and reloaded on the next lookup; any other partition lives in memory until the process exits.
package session
