// Package preflight runs environment checks before a packaging run
// writes anything: tool availability, destination access, and free
// space. Each check produces a Result suitable for the CLI checklist.
package preflight
