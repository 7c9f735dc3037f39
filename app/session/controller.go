package session

import (
	"sync"

	"go.uber.org/zap"

	"marcel.works/nookstube-go/app/model"
	"marcel.works/nookstube-go/app/player"
	"marcel.works/nookstube-go/app/youtube"
)

// Controller is the two-way bridge between the shared session state and the
// local player widget, and the one place self-echo is suppressed. Remote
// snapshots come in through Reconcile; local user intent goes out as partial
// writes to the store.
type Controller struct {
	store   Store
	player  player.Player
	user    model.User
	session string

	mu            sync.Mutex
	videos        []string
	videosEdited  bool
	loadedVideoId string
	lastAction    model.PlayerAction
}

func NewController(store Store, p player.Player, user model.User, sessionId string) *Controller {
	return &Controller{
		store:   store,
		player:  p,
		user:    user,
		session: sessionId,
	}
}

// Reconcile drives the player widget toward the observed snapshot.
//
// The order matters: join bootstrap first, then the action edge (skipped for
// our own echoed writes), then the video change, which is honored no matter
// whose write it was. The action field is an edge, not a level, so it is
// applied once and remembered.
func (c *Controller) Reconcile(snapshot model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.videosEdited && snapshot.Videos != nil {
		c.videos = append([]string(nil), snapshot.Videos...)
	}

	if c.loadedVideoId == "" && snapshot.CurrentVideoId != "" {
		c.loadLocked(snapshot.CurrentVideoId, snapshot.Time)
	}

	if snapshot.UserId != c.user.Id && snapshot.Action != c.lastAction {
		switch snapshot.Action {
		case model.ActionPlay:
			c.player.SeekTo(snapshot.Time)
			c.player.Play()
			c.lastAction = model.ActionPlay
		case model.ActionPause:
			c.player.SeekTo(snapshot.Time)
			c.player.Pause()
			c.lastAction = model.ActionPause
		case model.ActionSeek:
			c.player.SeekTo(snapshot.Time)
			c.lastAction = model.ActionSeek
		case model.ActionStop, model.ActionNone:
			// no widget command
		}
	}

	if snapshot.CurrentVideoId != "" && snapshot.CurrentVideoId != c.loadedVideoId {
		c.loadLocked(snapshot.CurrentVideoId, snapshot.Time)
	}
}

func (c *Controller) loadLocked(videoId string, seconds float64) {
	c.player.LoadVideo(videoId)
	c.player.SeekTo(seconds)
	c.player.Play()
	c.loadedVideoId = videoId
}

// SelectVideo records videoId as the session's current video. The local
// player is not touched here: the echoed document reloads it through
// Reconcile, same as for every other participant.
func (c *Controller) SelectVideo(videoId string) error {
	if c.user.Id == "" {
		return ErrNotAuthenticated
	}
	if c.session == "" {
		return ErrNotSubscribed
	}
	c.write(model.SessionUpdate{
		CurrentVideoId: &videoId,
		UserId:         &c.user.Id,
	})
	return nil
}

// ReportPlay is wired to the player widget's play event.
func (c *Controller) ReportPlay(seconds float64) error {
	return c.reportAction(model.ActionPlay, seconds)
}

// ReportPause is wired to the player widget's pause event.
func (c *Controller) ReportPause(seconds float64) error {
	return c.reportAction(model.ActionPause, seconds)
}

// ReportSeek records a bare position change with no transport action.
func (c *Controller) ReportSeek(seconds float64) error {
	return c.reportAction(model.ActionSeek, seconds)
}

func (c *Controller) reportAction(action model.PlayerAction, seconds float64) error {
	if c.user.Id == "" {
		return ErrNotAuthenticated
	}
	c.write(model.SessionUpdate{
		Time:   &seconds,
		Action: &action,
		UserId: &c.user.Id,
	})
	return nil
}

// ReportProgress keeps the shared time current without recording an action,
// so late joiners land close to the live position.
func (c *Controller) ReportProgress(seconds float64) error {
	if c.user.Id == "" {
		return ErrNotAuthenticated
	}
	c.write(model.SessionUpdate{
		Time:   &seconds,
		UserId: &c.user.Id,
	})
	return nil
}

// VideoEnded advances to the next playlist entry, wrapping to the first at
// the end and falling back to the first when the current video is not in the
// list at all. The advance is a purely local decision written like a manual
// selection; whichever participant's write lands last wins.
func (c *Controller) VideoEnded() {
	c.mu.Lock()
	next, ok := c.nextVideoLocked()
	c.mu.Unlock()
	if !ok || c.user.Id == "" {
		return
	}
	c.write(model.SessionUpdate{
		CurrentVideoId: &next,
		UserId:         &c.user.Id,
	})
}

// nextVideoLocked picks the entry after the loaded one. Callers hold c.mu.
func (c *Controller) nextVideoLocked() (string, bool) {
	if len(c.videos) == 0 {
		return "", false
	}
	index := -1
	for i, id := range c.videos {
		if id == c.loadedVideoId {
			index = i
			break
		}
	}
	if index < 0 || index+1 >= len(c.videos) {
		return c.videos[0], true
	}
	return c.videos[index+1], true
}

// AddVideo extracts the video id from rawURL and appends it to the local
// playlist copy. A URL that does not yield an 11-character id is rejected
// and nothing changes; an id already present is a silent no-op.
func (c *Controller) AddVideo(rawURL string) error {
	if c.user.Id == "" {
		return ErrNotAuthenticated
	}
	videoId, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.videos {
		if id == videoId {
			return nil
		}
	}
	c.videos = append(c.videos, videoId)
	c.videosEdited = true
	return nil
}

// RemoveVideo filters videoId out of the local playlist copy. When the
// removed video is the one playing, the advance runs against the
// pre-removal list so playback moves to that video's successor instead of
// restarting the playlist.
func (c *Controller) RemoveVideo(videoId string) error {
	if c.user.Id == "" {
		return ErrNotAuthenticated
	}
	c.mu.Lock()
	wasLoaded := videoId == c.loadedVideoId
	var next string
	var advance bool
	if wasLoaded {
		next, advance = c.nextVideoLocked()
	}
	kept := make([]string, 0, len(c.videos))
	for _, id := range c.videos {
		if id != videoId {
			kept = append(kept, id)
		}
	}
	c.videos = kept
	c.videosEdited = true
	c.mu.Unlock()

	if advance && next != videoId {
		c.write(model.SessionUpdate{
			CurrentVideoId: &next,
			UserId:         &c.user.Id,
		})
	}
	return nil
}

// PlayerEvents returns widget callbacks wired to this controller. OnReady
// and OnError are left for the embedder: readiness drives subscription setup
// and errors are its to report.
func (c *Controller) PlayerEvents() player.Events {
	return player.Events{
		OnPlay:        func(seconds float64) { _ = c.ReportPlay(seconds) },
		OnPause:       func(seconds float64) { _ = c.ReportPause(seconds) },
		OnStateChange: func(seconds float64) { _ = c.ReportProgress(seconds) },
		OnEnd:         func(seconds float64) { c.VideoEnded() },
	}
}

// Playlist returns a copy of the local playlist.
func (c *Controller) Playlist() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.videos...)
}

// write is fire-and-forget: a failed write is traced and dropped, the next
// successful write restores convergence.
func (c *Controller) write(update model.SessionUpdate) {
	if err := c.store.Update(c.session, update); err != nil {
		zap.S().Warnw("could not update session", "sessionId", c.session, "error", err)
	}
}
