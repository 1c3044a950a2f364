package engine

import (
	"sort"
	"time"

	"github.com/amenongit/aranealarm-go/internal/notify"
)

// syncAlarm runs once per completed pass with e.mu held. It diffs the
// disconnect set against the previous pass, emits one Speak per newly
// disconnected node (edge-triggered), refreshes the level-triggered alarm
// state, and drives the audio pause/resume on alarm boundary transitions.
func (e *Engine) syncAlarm(now time.Time) {
	set := make(map[int]struct{})
	for i, n := range e.nodes {
		if !n.Connected {
			set[i] = struct{}{}
		}
	}

	var added []int
	for i := range set {
		if _, ok := e.lastDisconnSet[i]; !ok {
			added = append(added, i)
		}
	}
	sort.Ints(added)
	for _, i := range added {
		e.push(notify.Speak{Text: e.nodes[i].SpeechName + " disconnect"})
	}

	disconnects := len(set)
	if (e.lastDisconnects > 0) != (disconnects > 0) {
		e.lastAlarmChange = now
		if e.player != nil {
			if disconnects > 0 {
				e.player.Pause()
			} else {
				e.player.Resume()
			}
		}
	}

	e.lastDisconnSet = set
	e.lastDisconnects = disconnects

	// Emitted every pass; the notifier treats repeated equal counts as no-ops.
	e.push(notify.SetAlertCount{Count: disconnects})
}
