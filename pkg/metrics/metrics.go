// Package metrics holds the Prometheus collectors exported by every process.
package metrics

const namespace = "joyeria"

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
