package models

import "errors"

// Sentinel errors surfaced by the storage and service layers. Every one of
// these is translated into a declined-action response at the HTTP boundary;
// none is fatal.
var (
	ErrActiveEventExists   = errors.New("an active event already exists")
	ErrNoActiveEvent       = errors.New("no active event")
	ErrEventAlreadyStarted = errors.New("event already started")
	ErrEventAlreadyEnded   = errors.New("event already ended")
	ErrGroupNotFound       = errors.New("group not found")
	ErrLeaderHasGroup      = errors.New("leader already has a group in this event")
	ErrAlreadyMember       = errors.New("user is already a member of this group")
	ErrNotAuthorized       = errors.New("not authorized to modify this group")
	ErrNotALeader          = errors.New("you are not a group leader")
	ErrMemberNotFound      = errors.New("platform member not found")
)
