// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns such as
// authentication (via Clerk), JSON body capture, access logging, CORS,
// rate limiting, and panic recovery. The router decides their order.
package middleware
