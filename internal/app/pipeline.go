package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/posesurf/internal/detector"
	"github.com/ayusman/posesurf/internal/gesture"
	"github.com/ayusman/posesurf/internal/store"
)

// Run acquires the session resources, waits for the warm-up and processes
// frames until ctx is cancelled, a renderer asks to quit, or a collaborator
// fails. Everything acquired is released before Run returns.
//
// Frame processing:
//  1. Read a frame; a read failure ends the session
//  2. Skip detection when paused or when the motion gate sees no change
//  3. Detect the pose; a detector failure ends the session
//  4. Classify and step the debounce state
//  5. Dispatch the fired action, if any; a dispatch failure ends the session
//  6. Record the action and publish the snapshot
func (s *Session) Run(ctx context.Context) (err error) {
	var closers []func() error
	defer func() {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		if cerr := errors.Join(errs...); cerr != nil {
			log.Printf("Error releasing session resources: %v", cerr)
		}
	}()

	// Renderers and the detector are owned from the start, even if a later
	// acquisition fails.
	for _, r := range s.config.Renderers {
		closers = append(closers, r.Close)
	}
	closers = append(closers, s.config.Detector.Close)
	if s.motion != nil {
		closers = append(closers, func() error {
			s.motion.Close()
			return nil
		})
	}

	if st := s.config.Store; st != nil {
		rec := &store.Session{Target: s.config.Target, Dispatcher: s.config.DispatcherKind}
		if err := st.Sessions().Create(rec); err != nil {
			return fmt.Errorf("record session: %w", err)
		}
		s.mu.Lock()
		s.sessionID = rec.ID
		s.mu.Unlock()

		closers = append(closers, func() error {
			return st.Sessions().Finish(rec.ID, s.Frames(), sessionError(err))
		})
	}

	if err := s.config.Camera.Open(); err != nil {
		return fmt.Errorf("%w: open camera: %w", ErrLandmarkSource, err)
	}
	closers = append(closers, s.config.Camera.Close)

	if err := s.config.Dispatcher.Open(ctx); err != nil {
		return fmt.Errorf("%w: open: %w", ErrDispatch, err)
	}
	closers = append(closers, s.config.Dispatcher.Close)

	if err := s.warmup(ctx); err != nil {
		return err
	}

	log.Println("Session started")
	defer func() {
		log.Printf("Session ended after %d frames: %v", s.Frames(), err)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		quit, err := s.processFrame(ctx)
		if err != nil {
			return err
		}
		if quit {
			return ErrStopped
		}
	}
}

// sessionError is the error stored with a finished session. A user stop or
// cancellation is a clean end.
func sessionError(err error) error {
	if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Session) warmup(ctx context.Context) error {
	if s.config.Warmup <= 0 {
		return nil
	}

	log.Printf("Waiting %s for the game to load", s.config.Warmup)
	timer := time.NewTimer(s.config.Warmup)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// processFrame runs one iteration of the frame loop.
func (s *Session) processFrame(ctx context.Context) (bool, error) {
	frame, err := s.config.Camera.ReadFrame()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLandmarkSource, err)
	}
	defer frame.Close()

	s.mu.Lock()
	s.frames++
	snap := Snapshot{
		Frame:  s.frames,
		Time:   time.Now(),
		Paused: !s.enabled,
	}
	s.mu.Unlock()

	var pose *detector.PoseLandmarks
	switch {
	case snap.Paused:
	case s.motion != nil && !s.motion.Changed(frame):
		// Too little motion since the last detection to run inference. The
		// state is left as is; a gesture made this slowly is picked up once
		// the accumulated change opens the gate.
		snap.Gated = true
	default:
		pose, err = s.config.Detector.Detect(frame)
		if err != nil {
			return false, fmt.Errorf("%w: detect: %w", ErrLandmarkSource, err)
		}
		s.lastPose = pose
	}

	if pose != nil {
		snap.Detected = true
		snap.Predicates = gesture.Classify(pose)

		action, fired := s.debounce.Update(snap.Predicates)

		if s.config.Verbose {
			log.Printf("Frame %d: %+v armed=%v", snap.Frame, snap.Predicates, s.debounce.State().Armed)
		}

		if fired {
			if err := s.fire(ctx, action, snap.Frame); err != nil {
				return false, err
			}
			snap.Action = action
			snap.Fired = true
		}
	}

	if snap.Gated {
		snap.Pose = s.lastPose
		snap.Detected = s.lastPose != nil
	} else {
		snap.Pose = pose
	}
	snap.State = s.debounce.State()
	snap.LastAction = s.lastAction

	return s.publish(frame, snap), nil
}

// fire dispatches action and records it in the history.
func (s *Session) fire(ctx context.Context, action gesture.Action, frame int) error {
	log.Printf("Action fired: %s (frame %d)", action, frame)

	if err := s.config.Dispatcher.Dispatch(ctx, action); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDispatch, action, err)
	}
	s.lastAction = action

	if st := s.config.Store; st != nil {
		err := st.Events().Create(&store.Event{
			SessionID: s.ID(),
			Action:    action.String(),
			Frame:     frame,
		})
		if err != nil {
			log.Printf("Failed to record %s: %v", action, err)
		}
	}

	return nil
}

// publish hands the snapshot to observers and the frame to renderers, and
// reports whether any renderer asked to quit.
func (s *Session) publish(frame *gocv.Mat, snap Snapshot) bool {
	for _, o := range s.config.Observers {
		o.Observe(snap)
	}

	quit := false
	for _, r := range s.config.Renderers {
		if r.Render(frame, snap) {
			quit = true
		}
	}
	return quit
}
