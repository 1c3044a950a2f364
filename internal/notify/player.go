package notify

// Player is the background-audio collaborator. The engine pauses it when the
// alarm raises and resumes it when all nodes reconnect; playback itself lives
// outside the core.
type Player interface {
	Pause()
	Resume()
}

// NopPlayer serves runs without configured music.
type NopPlayer struct{}

func (NopPlayer) Pause()  {}
func (NopPlayer) Resume() {}
