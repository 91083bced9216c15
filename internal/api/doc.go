// Package api serves the optional read-only ops endpoints of the stock keeper: liveness,
// the last poll cycle report and prometheus metrics.
package api
