package match

import (
	"math"
	"time"

	"github.com/jjweiting/hackthon001/internal/config"
)

type Options struct {
	GameMode         string
	MatchDuration    time.Duration
	TargetScore      int
	RespawnTime      time.Duration
	DefaultCountdown int // seconds, used when countdown-start carries none
	MaxHealth        float64
	DefaultWeapon    string
}

// DefaultOptions is a 2v2 match of 600 s to 3 points.
func DefaultOptions() Options {
	return Options{
		GameMode:         "2v2",
		MatchDuration:    600 * time.Second,
		TargetScore:      3,
		RespawnTime:      5 * time.Second,
		DefaultCountdown: 3,
		MaxHealth:        100,
		DefaultWeapon:    "pistol",
	}
}

func OptionsFromConfig(cfg config.MatchConfig) Options {
	return Options{
		GameMode:         cfg.GameMode,
		MatchDuration:    cfg.MatchDuration,
		TargetScore:      cfg.TargetScore,
		RespawnTime:      cfg.RespawnTime,
		DefaultCountdown: cfg.CountdownSeconds,
		MaxHealth:        cfg.MaxHealth,
		DefaultWeapon:    cfg.DefaultWeapon,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.GameMode == "" {
		o.GameMode = d.GameMode
	}
	if o.MatchDuration <= 0 {
		o.MatchDuration = d.MatchDuration
	}
	if o.TargetScore <= 0 {
		o.TargetScore = d.TargetScore
	}
	if o.RespawnTime <= 0 {
		o.RespawnTime = d.RespawnTime
	}
	if o.DefaultCountdown <= 0 {
		o.DefaultCountdown = d.DefaultCountdown
	}
	if o.MaxHealth <= 0 {
		o.MaxHealth = d.MaxHealth
	}
	if _, ok := Weapons[o.DefaultWeapon]; !ok {
		o.DefaultWeapon = d.DefaultWeapon
	}
	return o
}

// respawnSeconds rounds the respawn delay up to whole timer ticks.
func (o Options) respawnSeconds() int {
	return int(math.Ceil(o.RespawnTime.Seconds()))
}

// Weapon is one entry of the weapon catalog.
type Weapon struct {
	Name         string  `json:"name"`
	Damage       float64 `json:"damage"`
	Pellets      int     `json:"pellets,omitempty"`
	SplashRadius float64 `json:"splashRadius,omitempty"`
	FireRate     float64 `json:"fireRate"` // seconds between shots
	Range        float64 `json:"range"`
}

// HitDamage is the damage of one hit with every pellet landing.
func (w Weapon) HitDamage() float64 {
	if w.Pellets > 1 {
		return w.Damage * float64(w.Pellets)
	}
	return w.Damage
}

var Weapons = map[string]Weapon{
	"pistol":  {Name: "Pistol", Damage: 15, FireRate: 0.4, Range: 60},
	"shotgun": {Name: "Shotgun", Damage: 8, Pellets: 6, FireRate: 0.9, Range: 25},
	"rifle":   {Name: "Rifle", Damage: 20, FireRate: 0.25, Range: 70},
	"sniper":  {Name: "Sniper", Damage: 60, FireRate: 1.2, Range: 120},
	"rocket":  {Name: "Rocket Launcher", Damage: 80, SplashRadius: 4, FireRate: 1.5, Range: 80},
}

// WeaponFor returns the catalog entry for name, falling back to fallback.
func WeaponFor(name, fallback string) Weapon {
	if w, ok := Weapons[name]; ok {
		return w
	}
	return Weapons[fallback]
}
