// Package version provides version information for the price oracle.
package version

// Version is the current version of the oracle service.
const Version = "0.1.0"

// AgentString returns the identifier sent as part of outbound User-Agent
// headers, so upstream sites and APIs can attribute traffic to this
// service rather than to a generic HTTP client.
func AgentString() string {
	return "hwp-oracle/" + Version
}
