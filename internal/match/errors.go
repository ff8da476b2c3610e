package match

import "errors"

var (
	ErrNotHost            = errors.New("NOT_HOST")
	ErrMatchNotFinished   = errors.New("MATCH_NOT_FINISHED")
	ErrLocalPlayerMissing = errors.New("LOCAL_PLAYER_MISSING")
	ErrNotPlaying         = errors.New("NOT_PLAYING")
	ErrPlayerDead         = errors.New("PLAYER_DEAD")
	ErrWeaponCooldown     = errors.New("WEAPON_COOLDOWN")
	ErrBoxNotFound        = errors.New("WEAPON_BOX_NOT_FOUND")
)
