package network

import (
	"fmt"

	"github.com/jjweiting/hackthon001/internal/arena"
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/task"
)

func (m *Manager) taskID(kind string) string {
	return fmt.Sprintf("network:%s:%s", m.opts.SessionID, kind)
}

// repeatOnChannel sends msg every rebroadcast interval until the budget is
// spent or the channel goes away.
func (m *Manager) repeatOnChannel(kind string, msg protocol.Message) *task.Handle {
	var h *task.Handle
	h = task.Repeat(m.timer, m.taskID(kind), m.opts.RebroadcastInterval, m.opts.RebroadcastTimes, func(round int) {
		if m.channel == nil {
			h.Cancel()
			return
		}
		m.logger.Debug("Rebroadcast", "type", msg.Type(), "round", round)
		m.Send(msg)
	})
	return h
}

// ScheduleMapInitBroadcast repeats the host seed so peers still switching
// channels receive it. A new schedule replaces the previous one.
func (m *Manager) ScheduleMapInitBroadcast(seed int64) {
	m.mapInit.Cancel()
	m.mapInit = m.repeatOnChannel("map-init", &protocol.MapInit{Seed: seed})
}

// BroadcastMapConfig sends doc now and then repeats it on the rebroadcast
// schedule. A new document replaces the previous schedule.
func (m *Manager) BroadcastMapConfig(doc *arena.MapConfig) {
	if doc == nil {
		return
	}
	m.mapConfig.Cancel()

	msg := &protocol.MapConfig{MapConfig: doc}
	m.Send(msg)
	m.mapConfig = m.repeatOnChannel("map-config", msg)
}

// Rebroadcasting reports whether either rebroadcast is still scheduled.
func (m *Manager) Rebroadcasting() bool {
	return m.mapInit.Active() || m.mapConfig.Active()
}
