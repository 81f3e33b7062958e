// Package handler is the HTTP layer: the first entry point after the
// router.
//
// It decodes requests (reusing the body the validation reporter already
// checked, when there is one), calls the service layer and writes the
// response. Errors are returned to the global error handler.
package handler
