package service

import "errors"

// Business error taxonomy surfaced to the API layer. Seat-race and credit
// failures roll the whole reservation back before these are returned, so a
// caller never observes a partially-applied state.
var (
	ErrAlreadyInSession    = errors.New("user already holds a seat in an overlapping session")
	ErrSessionFull         = errors.New("session has no free seats")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionPhase        = errors.New("operation not allowed in the session's current phase")
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrInvitationExpired   = errors.New("invitation has expired")
	ErrRoomService         = errors.New("room service failure")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInternalServer      = errors.New("internal server error")
)
