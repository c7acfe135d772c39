package discord

import (
	"time"

	"github.com/Rusal42/floofwebsite/internal/model"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/atomic"
)

// SessionSource reads the stats pushed to the website from a live bot session
type SessionSource struct {
	s        *discordgo.Session
	commands *atomic.Int64
	started  time.Time
	version  string
}

func NewSessionSource(s *discordgo.Session, version string) *SessionSource {
	return &SessionSource{
		s:        s,
		commands: atomic.NewInt64(0),
		started:  time.Now(),
		version:  version,
	}
}

// CountCommand records one executed command
func (src *SessionSource) CountCommand() {
	src.commands.Inc()
}

func (src *SessionSource) Snapshot() model.StatsPatch {
	var (
		servers int64
		users   int64
	)

	if src.s.State != nil {
		src.s.State.RLock()
		servers = int64(len(src.s.State.Guilds))
		for _, g := range src.s.State.Guilds {
			users += int64(g.MemberCount)
		}
		src.s.State.RUnlock()
	}

	var (
		commands = src.commands.Load()
		uptime   = time.Since(src.started).Seconds()
		ping     = float64(src.s.HeartbeatLatency().Milliseconds())
	)

	p := model.StatsPatch{
		ServerCount:  &servers,
		UserCount:    &users,
		CommandsUsed: &commands,
		Uptime:       &uptime,
		Ping:         &ping,
	}

	if src.version != "" {
		p.Version = &src.version
	}

	return p
}
