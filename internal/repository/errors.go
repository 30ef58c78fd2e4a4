// Package repository implements MongoDB-backed persistence for movies,
// shows, bookings and users.  Each repository is scoped to one collection
// and returns sentinel errors so handlers can translate outcomes without
// inspecting driver errors.
package repository

import "errors"

var (
	// ErrMovieNotFound is returned when no movie document matches the id.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrShowNotFound is returned when no show document matches the id.
	ErrShowNotFound = errors.New("show not found")
	// ErrBookingNotFound is returned when no booking document matches the id.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrUserNotFound is returned when no user document matches the id.
	ErrUserNotFound = errors.New("user not found")
	// ErrSeatsUnavailable is returned when at least one requested seat is
	// already present in the show's occupancy map.
	ErrSeatsUnavailable = errors.New("seats unavailable")
)
