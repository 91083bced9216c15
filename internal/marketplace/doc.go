// Package marketplace is a small client for the seller marketplace REST surface used by the
// stock keeper: listing approved products, reading product detail and setting an item's
// stock quantity. Every request is signed immediately before it is sent and paced through
// a token bucket; failures come back as *HTTPStatusError or *NetworkError.
package marketplace
