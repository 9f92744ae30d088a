// Command campack packages camera-card deposits into archival
// packages: classify, inventory, concatenate, verify, report,
// assemble.
package main
