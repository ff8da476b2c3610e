package network

import (
	"sort"
	"time"

	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/protocol"
)

// RemoteActor is what this peer knows about another peer in its channel.
type RemoteActor struct {
	SessionID string           `json:"sessionId"`
	Profile   protocol.Profile `json:"profile"`
	Position  model.Vec3       `json:"position"`
	Rotation  model.Quat       `json:"rotation"`
	State     string           `json:"state,omitempty"`
	Animation map[string]any   `json:"animation,omitempty"`
	LastSeen  time.Time        `json:"lastSeen"`
}

func (m *Manager) remote(sessionID string) *RemoteActor {
	r, ok := m.remotes[sessionID]
	if !ok {
		r = &RemoteActor{SessionID: sessionID}
		m.remotes[sessionID] = r
		m.logger.Debug("Remote actor appeared", "remote", sessionID)
	}
	r.LastSeen = m.opts.Now()
	return r
}

func (m *Manager) purgeRemote(sessionID string) bool {
	if _, ok := m.remotes[sessionID]; !ok {
		return false
	}
	delete(m.remotes, sessionID)
	m.logger.Debug("Remote actor removed", "remote", sessionID)
	return true
}

// Remotes returns copies of every tracked remote actor sorted by session id.
func (m *Manager) Remotes() []RemoteActor {
	out := make([]RemoteActor, 0, len(m.remotes))
	for _, r := range m.remotes {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// Remote returns a copy of one tracked remote actor.
func (m *Manager) Remote(sessionID string) (RemoteActor, bool) {
	r, ok := m.remotes[sessionID]
	if !ok {
		return RemoteActor{}, false
	}
	return *r, true
}
