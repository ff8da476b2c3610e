// Package errors holds the coded errors the control API reports. Domain
// packages keep their own sentinels; the API maps them onto these codes.
package errors

import (
	"errors"
	"strconv"
	"strings"
)

// AppError is a refusal with a stable code and a message safe to show a
// player. Cause is only for logs.
type AppError struct {
	Code    int
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strconv.Itoa(e.Code))
	b.WriteString("] ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

func NewError(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches cause to a copy; the predefined errors stay shared.
func (e *AppError) Wrap(cause error) *AppError {
	wrapped := *e
	wrapped.Cause = cause
	return &wrapped
}

// As finds the AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// Is matches on the code, so a wrapped copy still equals its predefined error.
func Is(err error, target *AppError) bool {
	appErr, ok := As(err)
	return ok && target != nil && appErr.Code == target.Code
}

// GetCode returns err's code. Errors without one report CodeServerError.
func GetCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage returns the player-facing text for err.
func GetMessage(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return ErrServerError.Message
}

const (
	CodeSuccess = 0

	// rooms 20000-20999
	CodeRoomNotFound   = 20001
	CodeRoomFull       = 20002
	CodeRoomBusy       = 20003
	CodeNotRoomCreator = 20004
	CodeGameStarted    = 20005
	CodeNotInRoom      = 20006
	CodeInvalidParams  = 20007

	// match 21000-21999
	CodeNotHost            = 21001
	CodeMatchNotFinished   = 21002
	CodePlayersNotReady    = 21003
	CodeInvalidMapConfig   = 21004
	CodeLocalPlayerMissing = 21005
	CodeNotPlaying         = 21006
	CodePlayerDead         = 21007
	CodeWeaponCooldown     = 21008
	CodeBoxNotFound        = 21009

	// transport 22000-22999
	CodeNotConnected     = 22001
	CodeTransportFailure = 22002

	// system 50000-50999
	CodeServerError = 50001
	CodeTimeout     = 50002
)

// room refusals
var (
	ErrRoomNotFound   = NewError(CodeRoomNotFound, "room not found")
	ErrRoomFull       = NewError(CodeRoomFull, "room is full")
	ErrRoomBusy       = NewError(CodeRoomBusy, "room is busy, retry later")
	ErrNotRoomCreator = NewError(CodeNotRoomCreator, "only the room creator can do this")
	ErrGameStarted    = NewError(CodeGameStarted, "game already started")
	ErrNotInRoom      = NewError(CodeNotInRoom, "not in a room")
	ErrInvalidParams  = NewError(CodeInvalidParams, "invalid parameters")
)

// match refusals
var (
	ErrNotHost            = NewError(CodeNotHost, "only the host can do this")
	ErrMatchNotFinished   = NewError(CodeMatchNotFinished, "match is not finished")
	ErrPlayersNotReady    = NewError(CodePlayersNotReady, "not all players ready")
	ErrInvalidMapConfig   = NewError(CodeInvalidMapConfig, "invalid map config")
	ErrLocalPlayerMissing = NewError(CodeLocalPlayerMissing, "local player not ready")
	ErrNotPlaying         = NewError(CodeNotPlaying, "match is not running")
	ErrPlayerDead         = NewError(CodePlayerDead, "player is dead")
	ErrWeaponCooldown     = NewError(CodeWeaponCooldown, "weapon is cooling down")
	ErrBoxNotFound        = NewError(CodeBoxNotFound, "weapon box not found")
)

var (
	ErrNotConnected     = NewError(CodeNotConnected, "not connected to a channel")
	ErrTransportFailure = NewError(CodeTransportFailure, "transport failure")
)

var (
	ErrServerError = NewError(CodeServerError, "internal server error")
	ErrTimeout     = NewError(CodeTimeout, "request timed out")
)
