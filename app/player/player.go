// Package player defines the contract of the controllable video player
// widget. The sync core only ever drives a player through these four
// commands; everything else about the widget is the embedder's business.
package player

type Player interface {
	LoadVideo(videoId string)
	SeekTo(seconds float64)
	Play()
	Pause()
}

// Events are the widget's callbacks, each carrying the current playback
// position. Nil callbacks are simply not wired.
type Events struct {
	OnReady       func(seconds float64)
	OnPlay        func(seconds float64)
	OnPause       func(seconds float64)
	OnEnd         func(seconds float64)
	OnError       func(code int)
	OnStateChange func(seconds float64)
}
