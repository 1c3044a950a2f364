package notify

import (
	"fmt"
	"time"
)

const defaultQueueSize = 256

// Speaker synthesizes speech. Say blocks for the duration of the utterance;
// Stop interrupts whatever is being said.
type Speaker interface {
	Say(text string) error
	Stop()
}

// Voice consumes engine commands from a queue and drives a Speaker,
// decoupled from the tick loop. While any node is disconnected it repeats an
// aggregate alarm announcement, throttled by the hush interval.
type Voice struct {
	cmds    chan Command
	speaker Speaker

	idle  time.Duration
	now   func() time.Time
	sleep func(time.Duration)

	alerts     int
	lastSpeech time.Time
	interval   time.Duration
}

// NewVoice returns a voice loop over the given speaker.
func NewVoice(speaker Speaker) *Voice {
	return &Voice{
		cmds:    make(chan Command, defaultQueueSize),
		speaker: speaker,
		idle:    10 * time.Millisecond,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Push queues one command. Safe for concurrent use.
func (v *Voice) Push(cmd Command) {
	v.cmds <- cmd
}

// Run processes commands until Shutdown. A command kind outside the protocol
// is a protocol violation and returns an error: it means the engine and the
// notifier have desynchronized, which is not recoverable.
func (v *Voice) Run() error {
	for {
		done, err := v.drain()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		v.announce()
		v.sleep(v.idle)
	}
}

// drain applies all currently queued commands without blocking.
func (v *Voice) drain() (done bool, err error) {
	for {
		select {
		case cmd := <-v.cmds:
			switch c := cmd.(type) {
			case SetAlertCount:
				if c.Count != v.alerts {
					v.alerts = c.Count
					v.lastSpeech = time.Time{}
					if c.Count == 0 {
						v.speaker.Stop()
					}
				}
			case Speak:
				_ = v.speaker.Say(c.Text)
			case SetHush:
				v.interval = c.Interval
			case Shutdown:
				return true, nil
			default:
				return false, fmt.Errorf("notify: unknown command %T", cmd)
			}
		default:
			return false, nil
		}
	}
}

// announce repeats the aggregate alarm while alerts are outstanding, at most
// once per hush interval.
func (v *Voice) announce() {
	if v.alerts <= 0 {
		return
	}
	now := v.now()
	if !v.lastSpeech.IsZero() && now.Sub(v.lastSpeech) <= v.interval {
		return
	}
	word := "disconnects"
	if v.alerts == 1 {
		word = "disconnect"
	}
	_ = v.speaker.Say(fmt.Sprintf("Alarm: %d %s", v.alerts, word))
	v.lastSpeech = now
}
