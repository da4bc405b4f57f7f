//go:build !debug

package assert

// Enabled indica se violações entram em pânico.
const Enabled = false
