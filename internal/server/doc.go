// Package server hosts the Fiber HTTP service, request middleware chain, and
// the route table binding every mirrored resource and locally-owned endpoint.
// The package keeps transport concerns (status mapping, content types, request
// IDs) here and delegates all caching semantics to internal/mirror, so the
// route handlers stay thin adapters. Exports stay narrow: NewApp plus the
// option struct, everything else is wiring detail.
package server
