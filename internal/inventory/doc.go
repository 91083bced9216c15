// Package inventory implements the poll-evaluate-update loop: each cycle lists the first
// page of approved products, reads every product's items one at a time and raises any item
// whose stock is below the configured floor back to the floor. A failing cycle is logged and
// abandoned; the next one starts from scratch after the sleep interval.
package inventory
