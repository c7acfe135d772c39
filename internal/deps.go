package internal

import (
	"time"

	"github.com/Rusal42/floofwebsite/config"
	"github.com/Rusal42/floofwebsite/internal/discord"
	"github.com/Rusal42/floofwebsite/internal/store"
)

// Deps is handed to every handler. Tests build their own per case.
type Deps struct {
	Config    *config.Config
	Stats     *store.Stats
	Identity  discord.Identity
	StartedAt time.Time
}
