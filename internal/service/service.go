// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives
// validated requests from the handler, applies the invoice rules
// (status transitions, defaults), and calls repository methods to
// persist the result. Database errors leave this layer as *errs.HTTPError.
package service
