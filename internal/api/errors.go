package api

import (
	"context"
	"errors"

	"github.com/jjweiting/hackthon001/internal/arena"
	"github.com/jjweiting/hackthon001/internal/match"
	"github.com/jjweiting/hackthon001/internal/peer"
	"github.com/jjweiting/hackthon001/internal/transport"
	apperrors "github.com/jjweiting/hackthon001/pkg/errors"
)

var errorCodes = []struct {
	err error
	app *apperrors.AppError
}{
	{transport.ErrRoomNotFound, apperrors.ErrRoomNotFound},
	{transport.ErrRoomFull, apperrors.ErrRoomFull},
	{transport.ErrRoomBusy, apperrors.ErrRoomBusy},
	{transport.ErrNotRoomCreator, apperrors.ErrNotRoomCreator},
	{transport.ErrGameStarted, apperrors.ErrGameStarted},
	{transport.ErrNotInRoom, apperrors.ErrNotInRoom},
	{transport.ErrNotConnected, apperrors.ErrNotConnected},
	{transport.ErrChannelClosed, apperrors.ErrNotConnected},

	{match.ErrNotHost, apperrors.ErrNotHost},
	{match.ErrMatchNotFinished, apperrors.ErrMatchNotFinished},
	{match.ErrLocalPlayerMissing, apperrors.ErrLocalPlayerMissing},
	{match.ErrNotPlaying, apperrors.ErrNotPlaying},
	{match.ErrPlayerDead, apperrors.ErrPlayerDead},
	{match.ErrWeaponCooldown, apperrors.ErrWeaponCooldown},
	{match.ErrBoxNotFound, apperrors.ErrBoxNotFound},
	{arena.ErrInvalidMapConfig, apperrors.ErrInvalidMapConfig},

	{context.DeadlineExceeded, apperrors.ErrTimeout},
	{peer.ErrLoopStopped, apperrors.ErrServerError},
}

// toAppError maps a domain error onto its coded counterpart. Unknown errors
// become ErrServerError with the cause attached.
func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.app.Wrap(err)
		}
	}
	return apperrors.ErrServerError.Wrap(err)
}
