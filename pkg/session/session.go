// Package session drives annotation of a frame sequence.
//
// A Session is a two-state machine: no frame loaded, or one frame loaded with
// its boxes, selection and undo history. Moving to another frame persists the
// current one first, then drops its history. Label files are only written when
// the frame was edited or already has boxes, so browsing never creates empty
// files for frames nobody looked at twice.
//
// Every exported method takes the session mutex, which serializes the
// autosave timer with operator actions.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menta2k/frame-annotator/internal/logging"
	"github.com/menta2k/frame-annotator/pkg/boxes"
	"github.com/menta2k/frame-annotator/pkg/frames"
	"github.com/menta2k/frame-annotator/pkg/history"
	"github.com/menta2k/frame-annotator/pkg/labelfmt"
	"github.com/menta2k/frame-annotator/pkg/types"
	"github.com/menta2k/frame-annotator/pkg/workspace"
)

// Errors returned by session operations
var (
	ErrNoFrame         = errors.New("no frame loaded")
	ErrNoFrames        = errors.New("session has no frames")
	ErrNoLabel         = errors.New("no label selected")
	ErrEmptyVocabulary = errors.New("vocabulary is empty, boxes cannot be saved")
	ErrClosed          = errors.New("session closed")
)

// State of the session
type State int

const (
	StateNoFrame State = iota
	StateFrameLoaded
)

func (s State) String() string {
	if s == StateFrameLoaded {
		return "frame-loaded"
	}
	return "no-frame"
}

// EnterResult describes a completed frame change
type EnterResult struct {
	Index int
	// Warnings from decoding the new frame's label file
	Warnings []types.Warning
	// Loaded is false when the frame had no label file
	Loaded bool
}

// Option customizes a Session
type Option func(*Session)

// WithScheduler replaces the timer used for autosave
func WithScheduler(sc Scheduler) Option {
	return func(s *Session) { s.scheduler = sc }
}

// Session is the annotation state for one output directory
type Session struct {
	mu sync.Mutex

	ws       *workspace.Workspace
	seq      *frames.Sequence
	desc     *workspace.Descriptor
	vocab    *labelfmt.Vocabulary
	settings Settings
	logger   *zap.Logger

	state   State
	index   int
	frame   frames.Frame
	store   *boxes.Store
	history *history.Stack
	dirty   bool
	closed  bool

	currentLabel string

	view    viewState
	pointer pointerState

	scheduler        Scheduler
	autosave         bool
	autosaveInterval time.Duration
	autosaveGen      int
	timer            Timer
}

// New creates a session with no frame loaded. The descriptor's labels become
// the vocabulary.
func New(ws *workspace.Workspace, seq *frames.Sequence, desc *workspace.Descriptor, settings Settings, logger *zap.Logger, opts ...Option) (*Session, error) {
	if seq == nil || seq.Len() == 0 {
		return nil, ErrNoFrames
	}
	if ws == nil {
		return nil, errors.New("workspace is required")
	}
	if desc == nil {
		desc = workspace.NewDescriptor("", ws.Root, false)
	}
	settings = settings.withDefaults()

	s := &Session{
		ws:        ws,
		seq:       seq,
		desc:      desc,
		vocab:     labelfmt.NewVocabulary(desc.Labels...),
		settings:  settings,
		logger:    logging.OrNop(logger).With(zap.String("session_id", desc.SessionID)),
		history:   history.New(),
		scheduler: clockScheduler{},
		view:      viewState{zoom: 1.0, grid: settings.GridEnabled},
		pointer:   pointerState{hover: -1},
	}
	s.desc.Labels = s.vocab.Names()
	if s.vocab.Len() > 0 {
		s.currentLabel = s.vocab.Names()[0]
	}
	for _, opt := range opts {
		opt(s)
	}
	if settings.AutosaveEnabled {
		s.autosave = true
		s.autosaveInterval = settings.AutosaveInterval
		s.scheduleLocked()
	}
	return s, nil
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Index returns the current frame index, or -1 when no frame is loaded
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFrameLoaded {
		return -1
	}
	return s.index
}

// Frame returns the loaded frame
func (s *Session) Frame() (frames.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.state == StateFrameLoaded
}

// FrameCount returns the length of the sequence
func (s *Session) FrameCount() int { return s.seq.Len() }

// Dirty reports whether the loaded frame has unsaved edits
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Descriptor returns a copy of the session descriptor
func (s *Session) Descriptor() workspace.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *s.desc
	d.Labels = s.vocab.Names()
	return d
}

// Settings returns the session settings
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Enter loads frame i. The current frame is persisted first; if that fails
// the session stays on the current frame and the error is returned.
func (s *Session) Enter(i int) (EnterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enterLocked(i)
}

// Goto moves to frame i, clamped to the sequence. Moving to the frame already
// loaded does nothing.
func (s *Session) Goto(i int) (EnterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gotoLocked(i)
}

// Next moves to the following frame
func (s *Session) Next() (EnterResult, error) { return s.step(1) }

// Prev moves to the preceding frame
func (s *Session) Prev() (EnterResult, error) { return s.step(-1) }

// NextPage jumps forward by the configured page size
func (s *Session) NextPage() (EnterResult, error) { return s.step(s.Settings().PageSize) }

// PrevPage jumps back by the configured page size
func (s *Session) PrevPage() (EnterResult, error) { return s.step(-s.Settings().PageSize) }

func (s *Session) step(delta int) (EnterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFrameLoaded {
		return s.gotoLocked(0)
	}
	return s.gotoLocked(s.index + delta)
}

func (s *Session) gotoLocked(i int) (EnterResult, error) {
	if s.closed {
		return EnterResult{}, ErrClosed
	}
	if i < 0 {
		i = 0
	}
	if i >= s.seq.Len() {
		i = s.seq.Len() - 1
	}
	if s.state == StateFrameLoaded && i == s.index {
		return EnterResult{Index: i}, nil
	}
	return s.enterLocked(i)
}

func (s *Session) enterLocked(i int) (EnterResult, error) {
	if s.closed {
		return EnterResult{}, ErrClosed
	}
	frame, ok := s.seq.At(i)
	if !ok {
		return EnterResult{}, errors.Wrapf(ErrNoFrame, "index %d of %d", i, s.seq.Len())
	}
	if err := s.persistLocked(false); err != nil {
		return EnterResult{Index: s.index}, errors.Wrap(err, "leaving frame")
	}

	res := EnterResult{Index: i}
	store := boxes.New(frame.Size, s.settings.MinBoxSize)
	data, exists, err := s.ws.ReadLabels(frame.Path)
	switch {
	case err != nil:
		res.Warnings = append(res.Warnings, types.Warning{Reason: err.Error()})
	case exists:
		decoded, warnings := labelfmt.Decode(data, s.vocab, frame.Size.W, frame.Size.H)
		store.Replace(decoded)
		res.Warnings = append(res.Warnings, warnings...)
		res.Loaded = true
	}
	for _, w := range res.Warnings {
		s.logger.Warn("label file problem", zap.String("frame", frame.Path), zap.String("warning", w.String()))
	}

	s.history.Reset()
	s.store = store
	s.frame = frame
	s.index = i
	s.state = StateFrameLoaded
	s.dirty = false
	s.pointer = pointerState{hover: -1}

	s.desc.CurrentFrameIndex = i
	if err := s.saveDescriptorLocked(); err != nil {
		s.logger.Error("failed to save session descriptor", zap.Error(err))
	}
	s.logger.Debug("frame entered", zap.Int("frame", i), zap.Int("boxes", store.Len()))
	return res, nil
}

// Save writes the current frame's label file, even when it has no boxes, and
// the session descriptor. In-memory state is not changed.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if err := s.persistLocked(true); err != nil {
		return err
	}
	return s.saveDescriptorLocked()
}

// Close stops autosave, persists the current frame and writes the descriptor.
// The session cannot be used afterwards. When a write fails the session stays
// open with autosave restored, so Close can be retried.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	wasAutosave := s.autosave
	s.stopAutosaveLocked()

	err := s.persistLocked(false)
	if err == nil {
		err = s.saveDescriptorLocked()
	}
	if err != nil {
		if wasAutosave {
			s.autosave = true
			s.scheduleLocked()
		}
		return errors.Wrap(err, "close")
	}
	s.closed = true
	return nil
}

// persistLocked encodes and writes the loaded frame. Without force, a clean
// frame with no boxes is left alone.
func (s *Session) persistLocked(force bool) error {
	if s.state != StateFrameLoaded {
		return nil
	}
	list := s.store.Boxes()
	if !force && !s.dirty && len(list) == 0 {
		return nil
	}
	if len(list) > 0 && s.vocab.Len() == 0 {
		return ErrEmptyVocabulary
	}
	data, warnings := labelfmt.Encode(list, s.vocab, s.frame.Size.W, s.frame.Size.H, s.settings.Precision)
	for _, w := range warnings {
		s.logger.Warn("box not written", zap.String("frame", s.frame.Path), zap.String("warning", w.String()))
	}
	if err := s.ws.WriteLabels(s.frame.Path, data); err != nil {
		return errors.Wrapf(err, "frame %d", s.index)
	}
	s.dirty = false
	return nil
}

func (s *Session) saveDescriptorLocked() error {
	s.desc.Labels = s.vocab.Names()
	return s.ws.SaveDescriptor(s.desc)
}

// Stats summarizes the session
type Stats struct {
	Frames          int
	AnnotatedFrames int
	CurrentFrame    int
	Boxes           int
	Selected        int
	UndoDepth       int
	RedoDepth       int
	Dirty           bool
	Labels          int
}

func (st Stats) String() string {
	return fmt.Sprintf("frame %d/%d, %d boxes (%d selected), %d/%d frames annotated, undo %d redo %d",
		st.CurrentFrame+1, st.Frames, st.Boxes, st.Selected, st.AnnotatedFrames, st.Frames, st.UndoDepth, st.RedoDepth)
}

// Stats counts frames with a label file on disk and the loaded frame's state
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Frames:       s.seq.Len(),
		CurrentFrame: -1,
		UndoDepth:    s.history.UndoDepth(),
		RedoDepth:    s.history.RedoDepth(),
		Dirty:        s.dirty,
		Labels:       s.vocab.Len(),
	}
	for _, p := range s.seq.Paths() {
		if s.ws.HasLabels(p) {
			st.AnnotatedFrames++
		}
	}
	if s.state == StateFrameLoaded {
		st.CurrentFrame = s.index
		st.Boxes = s.store.Len()
		st.Selected = len(s.store.Selection())
	}
	return st
}
