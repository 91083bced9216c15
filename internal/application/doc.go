// Package application provides application initialization and dependency wiring.
// It builds the request signer, marketplace client, keeper loop, status store and the
// optional ops server from configuration, keeping the main package focused on CLI parsing
// and signal handling.
package application
