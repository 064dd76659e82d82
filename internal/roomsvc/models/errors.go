package models

import "errors"

// Room errors
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrInvalidRoomID   = errors.New("invalid room code")
	ErrInvalidName     = errors.New("username must not be empty")
	ErrVersionConflict = errors.New("room was modified concurrently")
)

// Game errors
var (
	ErrNumberCalled  = errors.New("number has already been called")
	ErrNoNumbersLeft = errors.New("no numbers left to call")
)
