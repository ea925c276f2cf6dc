// Package autosave turns a stream of local edits into a bounded rate of
// persistence calls. Each open note gets a debounced, cancellable timer:
// an edit (re)arms it, and only a full quiet period with no further edits
// dispatches a save. At most one save is ever in flight per note; edits
// arriving during a save coalesce into exactly one follow-up save issued
// the moment the in-flight one resolves.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"cryptora/internal/common"
	"cryptora/internal/logging"
)

// DefaultQuietPeriod is the delay after the last edit before a save is
// dispatched.
const DefaultQuietPeriod = 1000 * time.Millisecond

// SaveFunc persists one snapshot and returns the fingerprint of the newly
// stored content. expectedFingerprint is the last fingerprint this client
// accepted; it arms the server-side staleness guard.
type SaveFunc func(ctx context.Context, noteID, title, content, expectedFingerprint string) (string, error)

// ResultFunc observes the outcome of every dispatched save. A nil err means
// fingerprint is the new accepted value. It is called without internal locks
// held.
type ResultFunc func(noteID, fingerprint string, err error)

type noteState int

const (
	stateIdle noteState = iota
	statePending
	stateSaving
)

type session struct {
	state noteState

	// timerGen invalidates timer callbacks from a previous arm: stopping a
	// timer cannot win a race against a callback already blocked on the
	// mutex, so each callback re-checks the generation it was armed with.
	timer    *time.Timer
	timerGen uint64

	// Latest edited values.
	title   string
	content string

	// Last successfully persisted values; a save whose snapshot equals
	// them is skipped entirely.
	lastTitle   string
	lastContent string

	// Last accepted fingerprint, tracked client-side.
	fingerprint string

	// Edits arrived while a save was in flight.
	dirty bool

	// A conflict halted autosave for this note until Refresh.
	conflicted bool
}

// Controller schedules autosaves for any number of open notes. All methods
// are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	sessions map[string]*session

	quiet    time.Duration
	save     SaveFunc
	onResult ResultFunc
	logger   logging.Logger
}

// New constructs a Controller. quiet <= 0 falls back to DefaultQuietPeriod.
// onResult may be nil.
func New(quiet time.Duration, save SaveFunc, onResult ResultFunc, logger logging.Logger) *Controller {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Controller{
		sessions: make(map[string]*session),
		quiet:    quiet,
		save:     save,
		onResult: onResult,
		logger:   logger.With("module", "autosave"),
	}
}

// Open registers a note for autosaving. title/content/fingerprint are the
// values as last read from the store; they form the baseline for the
// unchanged-snapshot skip and the staleness guard. Reopening an already
// open note resets it.
func (c *Controller) Open(noteID, title, content, fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.sessions[noteID]; ok && old.timer != nil {
		old.timer.Stop()
	}
	c.sessions[noteID] = &session{
		title:       title,
		content:     content,
		lastTitle:   title,
		lastContent: content,
		fingerprint: fingerprint,
	}
}

// Edit records a local edit and (re)arms the quiet-period timer. Edits on
// notes that are not open, or that are halted by an unresolved conflict,
// are ignored.
func (c *Controller) Edit(noteID, title, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[noteID]
	if !ok || sess.conflicted {
		return
	}

	sess.title = title
	sess.content = content

	if sess.state == stateSaving {
		// Coalesce: one follow-up save fires when the in-flight one resolves.
		sess.dirty = true
		return
	}

	sess.state = statePending
	c.armTimerLocked(noteID, sess)
}

// Close cancels any pending timer for the note and forgets it. An already
// dispatched in-flight save completes, but its result is discarded.
// Cancellation is synchronous: after Close returns, no new save for this
// note will be dispatched.
func (c *Controller) Close(noteID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.sessions[noteID]; ok {
		if sess.timer != nil {
			sess.timer.Stop()
		}
		delete(c.sessions, noteID)
	}
}

// Refresh clears a conflict halt after the caller re-read the note. The
// supplied values become the new persisted baseline and fingerprint.
func (c *Controller) Refresh(noteID, title, content, fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[noteID]
	if !ok {
		return
	}
	sess.conflicted = false
	sess.lastTitle = title
	sess.lastContent = content
	sess.title = title
	sess.content = content
	sess.fingerprint = fingerprint
	sess.state = stateIdle
	sess.dirty = false
}

// Fingerprint returns the last accepted fingerprint for an open note.
func (c *Controller) Fingerprint(noteID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[noteID]
	if !ok {
		return "", false
	}
	return sess.fingerprint, true
}

func (c *Controller) armTimerLocked(noteID string, sess *session) {
	if sess.timer != nil {
		sess.timer.Stop()
	}
	sess.timerGen++
	gen := sess.timerGen
	sess.timer = time.AfterFunc(c.quiet, func() {
		c.quietElapsed(noteID, sess, gen)
	})
}

// quietElapsed runs when a quiet period passed with no further edits. sess
// is the session the timer was armed for; a reopen replaces the session
// object, so a stale callback fails the identity check as well as the
// generation check.
func (c *Controller) quietElapsed(noteID string, sess *session, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessions[noteID] != sess || sess.timerGen != gen || sess.state != statePending {
		return
	}
	c.dispatchLocked(noteID, sess)
}

// dispatchLocked moves the session to Saving and launches the save, unless
// the snapshot is unchanged from the last persisted values, in which case
// the save is skipped with no network interaction.
func (c *Controller) dispatchLocked(noteID string, sess *session) {
	if sess.title == sess.lastTitle && sess.content == sess.lastContent {
		sess.state = stateIdle
		return
	}

	sess.state = stateSaving
	sess.dirty = false
	title, content, expected := sess.title, sess.content, sess.fingerprint

	go func() {
		fingerprint, err := c.save(context.Background(), noteID, title, content, expected)
		c.completed(noteID, sess, title, content, fingerprint, err)
	}()
}

// completed applies the outcome of the save dispatched for sess. The result
// belongs to that session object, not to the note id: Close followed by
// Open installs a fresh session with a re-read baseline, and applying a
// stale result to it would roll the fingerprint and persisted snapshot back.
func (c *Controller) completed(noteID string, sess *session, sentTitle, sentContent, fingerprint string, err error) {
	c.mu.Lock()

	if c.sessions[noteID] != sess {
		// Note was closed (and possibly reopened) while saving: the write
		// landed (or failed) at the store, but this session is gone and
		// its result must not touch any successor.
		c.mu.Unlock()
		return
	}

	switch {
	case err == nil:
		sess.fingerprint = fingerprint
		sess.lastTitle = sentTitle
		sess.lastContent = sentContent
		if sess.dirty {
			// Edits accumulated during the save: one follow-up, immediately.
			sess.state = statePending
			c.dispatchLocked(noteID, sess)
		} else {
			sess.state = stateIdle
		}
	case errors.Is(err, common.ErrorConflict):
		// The note changed under us. No automatic retry: the caller must
		// re-read and Refresh before autosave resumes for this note.
		sess.conflicted = true
		sess.dirty = false
		sess.state = stateIdle
	default:
		// Transient failure: editing continues locally, the next edit
		// re-arms the timer. If edits already accumulated, retry them
		// through a fresh quiet period rather than hammering the store.
		sess.state = statePending
		if sess.dirty {
			sess.dirty = false
			c.armTimerLocked(noteID, sess)
		} else {
			sess.state = stateIdle
		}
	}

	onResult := c.onResult
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn(context.Background(), "autosave failed", "note_id", noteID, "error", err.Error())
	}
	if onResult != nil {
		onResult(noteID, fingerprint, err)
	}
}
