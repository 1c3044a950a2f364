package notify

import (
	"os/exec"
	"runtime"
	"sync"
)

// ExecSpeaker shells out to the platform speech synthesizer: say on macOS,
// espeak elsewhere.
type ExecSpeaker struct {
	mu      sync.Mutex
	current *exec.Cmd
}

// NewExecSpeaker returns a speaker backed by an external synthesizer.
func NewExecSpeaker() *ExecSpeaker {
	return &ExecSpeaker{}
}

// Say runs the synthesizer and blocks until the utterance completes.
func (s *ExecSpeaker) Say(text string) error {
	name, args := speechCommand(text)
	cmd := exec.Command(name, args...)

	s.mu.Lock()
	s.current = cmd
	s.mu.Unlock()

	err := cmd.Run()

	s.mu.Lock()
	if s.current == cmd {
		s.current = nil
	}
	s.mu.Unlock()

	return err
}

// Stop kills the in-flight utterance, if any. Best effort.
func (s *ExecSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Process != nil {
		_ = s.current.Process.Kill()
	}
}

func speechCommand(text string) (string, []string) {
	if runtime.GOOS == "darwin" {
		return "say", []string{text}
	}
	return "espeak", []string{text}
}

// SilentSpeaker discards all speech; used with -mute and in environments
// without a synthesizer.
type SilentSpeaker struct{}

func (SilentSpeaker) Say(string) error { return nil }
func (SilentSpeaker) Stop()            {}
