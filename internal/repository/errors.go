// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver error strings themselves.
package repository

import "errors"

// ErrReasonNotFound is returned when a visit reason lookup or update
// targets an id that does not exist.  Handlers should translate this
// into an HTTP 404 response.
var ErrReasonNotFound = errors.New("visit reason not found")

// ErrSlugExists is returned when creating a visit reason whose slug is
// already taken.  Handlers should translate this into an HTTP 409
// response.
var ErrSlugExists = errors.New("slug already exists")

// ErrFeaturedCapReached is returned when featuring a reason would push
// the number of effectively-featured reasons past the cap.  Handlers
// should translate this into an HTTP 400 response with no mutation.
var ErrFeaturedCapReached = errors.New("featured cap reached")
