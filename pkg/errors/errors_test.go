package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewError(20002, "room is full"),
			expected: "[20002] room is full",
		},
		{
			name:     "with cause",
			err:      NewError(20002, "room is full").Wrap(errors.New("4/4")),
			expected: "[20002] room is full: 4/4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestAppError_WrapUnwrap(t *testing.T) {
	cause := errors.New("redis: connection refused")
	appErr := ErrTransportFailure.Wrap(cause)

	if appErr.Code != CodeTransportFailure {
		t.Errorf("Expected code %d, got %d", CodeTransportFailure, appErr.Code)
	}
	if errors.Unwrap(appErr) != cause {
		t.Error("Expected unwrapped error to be the cause")
	}
	if !errors.Is(appErr, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
	if ErrTransportFailure.Cause != nil {
		t.Error("Wrap must not mutate the predefined error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   *AppError
		expected bool
	}{
		{"same error", ErrRoomFull, ErrRoomFull, true},
		{"wrapped same error", ErrRoomFull.Wrap(errors.New("x")), ErrRoomFull, true},
		{"fmt wrapped", fmt.Errorf("join: %w", ErrNotHost), ErrNotHost, true},
		{"different error", ErrRoomBusy, ErrRoomFull, false},
		{"non-app error", errors.New("plain"), ErrRoomFull, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.target); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestGetCodeAndMessage(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{"app error", ErrPlayersNotReady, CodePlayersNotReady, "not all players ready"},
		{"wrapped app error", fmt.Errorf("start: %w", ErrNotRoomCreator), CodeNotRoomCreator, "only the room creator can do this"},
		{"plain error", errors.New("boom"), CodeServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.wantCode {
				t.Errorf("Expected code %d, got %d", tt.wantCode, got)
			}
			if got := GetMessage(tt.err); got != tt.wantMessage {
				t.Errorf("Expected message '%s', got '%s'", tt.wantMessage, got)
			}
		})
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("pickup: %w", ErrBoxNotFound.Wrap(errors.New("weapon-box-3")))

	appErr, ok := As(wrapped)
	if !ok {
		t.Fatal("Expected an AppError in the chain")
	}
	if appErr.Code != CodeBoxNotFound {
		t.Errorf("Expected code %d, got %d", CodeBoxNotFound, appErr.Code)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Error("Expected no AppError in a plain error")
	}
	if Is(wrapped, nil) {
		t.Error("Expected a nil target to match nothing")
	}
}
