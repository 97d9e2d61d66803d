package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/posesurf/internal/app"
	"github.com/ayusman/posesurf/internal/capture"
	"github.com/ayusman/posesurf/internal/detector"
	"github.com/ayusman/posesurf/internal/dispatch"
	"github.com/ayusman/posesurf/internal/display"
	"github.com/ayusman/posesurf/internal/server"
	"github.com/ayusman/posesurf/internal/tray"
)

// Detector kinds accepted by --detector.
const (
	detectorMediaPipe = "mediapipe"
	detectorMock      = "mock"
)

// PlayOptions holds the flags of the play command.
type PlayOptions struct {
	URL             string
	CameraID        int
	Warmup          time.Duration
	DetectionConf   float64
	TrackingConf    float64
	Detector        string
	SidecarScript   string
	Dispatcher      string
	Headless        bool
	PluginDir       string
	PluginName      string
	MotionThreshold float64
	NoWindow        bool
	Tray            bool
	Listen          string
	StaticDir       string
	NoHistory       bool
	RecordPoses     string
}

// errTrayWithWindow rejects --tray with the camera window: both need the
// main thread.
var errTrayWithWindow = errors.New("--tray needs --no-window: the tray and the camera window both need the main thread")

// validate rejects flag combinations that cannot run together.
func (o PlayOptions) validate() error {
	if o.Tray && !o.NoWindow {
		return errTrayWithWindow
	}
	return nil
}

var playOpts PlayOptions

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the game and control it with body gestures",
	Long: `Open the game and control it with body gestures.

Gestures (one key press per gesture, return to a neutral pose between moves):
  both wrists above shoulders   jump  (up)
  nose below mid-frame          slide (down)
  left wrist above shoulder     left
  right wrist above shoulder    right

Press q or Esc in the camera window to stop. With --tray (which needs
--no-window) use the tray Quit item or Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if playOpts.URL == "" {
			playOpts.URL = os.Getenv(envURL)
		}
		if playOpts.URL == "" {
			playOpts.URL = dispatch.DefaultGameURL
		}
		return runPlay(cmd.Context(), playOpts)
	},
}

func init() {
	det := detector.DefaultConfig()
	disp := dispatch.DefaultConfig()

	f := playCmd.Flags()
	f.StringVar(&playOpts.URL, "url", "", "game URL (default: $"+envURL+" or "+dispatch.DefaultGameURL+")")
	f.IntVar(&playOpts.CameraID, "camera", capture.DefaultConfig().DeviceID, "camera device index")
	f.DurationVar(&playOpts.Warmup, "warmup", app.DefaultWarmup, "wait before reading gestures, while the game loads")
	f.Float64Var(&playOpts.DetectionConf, "detection-confidence", det.MinConfidence, "minimum pose detection confidence")
	f.Float64Var(&playOpts.TrackingConf, "tracking-confidence", det.MinTrackingConf, "minimum pose tracking confidence")
	f.StringVar(&playOpts.Detector, "detector", detectorMediaPipe, "pose detector: mediapipe or mock")
	f.StringVar(&playOpts.SidecarScript, "sidecar", "", "path to pose_service.py (default: searched)")
	f.StringVar(&playOpts.Dispatcher, "dispatcher", disp.Kind, "key dispatcher: browser, plugin or log")
	f.BoolVar(&playOpts.Headless, "headless", false, "run the browser without a window")
	f.StringVar(&playOpts.PluginDir, "plugin-dir", "", "plugin directory (default: ~/.posesurf/plugins)")
	f.StringVar(&playOpts.PluginName, "plugin", disp.PluginName, "keyboard plugin name")
	f.Float64Var(&playOpts.MotionThreshold, "motion-threshold", 0, "skip pose detection below this changed-pixel percentage (0 disables)")
	f.BoolVar(&playOpts.NoWindow, "no-window", false, "do not show the camera window")
	f.BoolVar(&playOpts.Tray, "tray", false, "show a system tray menu with pause and quit (requires --no-window)")
	f.StringVar(&playOpts.Listen, "listen", "", "serve live state and history over HTTP on this address, e.g. :8080")
	f.StringVar(&playOpts.StaticDir, "static", "", "directory of static files served with --listen")
	f.BoolVar(&playOpts.NoHistory, "no-history", false, "do not record the session")
	f.StringVar(&playOpts.RecordPoses, "record-poses", "", "write every frame's pose to this file, for replay")

	rootCmd.AddCommand(playCmd)
}

func runPlay(ctx context.Context, opts PlayOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	det, err := newDetector(opts)
	if err != nil {
		return err
	}

	disp, err := newDispatcher(opts)
	if err != nil {
		det.Close()
		return err
	}

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = opts.CameraID

	cfg := app.DefaultConfig()
	cfg.Camera = capture.NewCamera(camCfg)
	cfg.Detector = det
	cfg.Dispatcher = disp
	cfg.Target = opts.URL
	cfg.DispatcherKind = opts.Dispatcher
	cfg.Warmup = opts.Warmup
	cfg.MotionThreshold = opts.MotionThreshold
	cfg.Verbose = verbose

	if !opts.NoHistory {
		st, err := openStore()
		if err != nil {
			det.Close()
			return err
		}
		defer st.Close()
		cfg.Store = st
	}

	if !opts.NoWindow {
		cfg.Renderers = append(cfg.Renderers, display.NewWindow(display.DefaultConfig()))
	}

	var t *tray.Tray
	if opts.Tray {
		t = tray.New()
		cfg.Observers = append(cfg.Observers, t)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Listen != "" {
		hub := server.NewHub(display.DefaultConfig())
		cfg.Observers = append(cfg.Observers, hub)
		cfg.Renderers = append(cfg.Renderers, hub)

		srv := server.New(server.Config{Store: cfg.Store, Hub: hub, StaticDir: opts.StaticDir})
		go func() {
			if err := srv.ListenAndServe(ctx, opts.Listen); err != nil {
				log.Printf("HTTP server failed: %v", err)
			}
		}()
	}

	if opts.RecordPoses != "" {
		f, err := os.Create(opts.RecordPoses)
		if err != nil {
			det.Close()
			return fmt.Errorf("record poses: %w", err)
		}
		rec := app.NewPoseRecorder(f)
		cfg.Observers = append(cfg.Observers, rec)
		defer func() {
			if err := errors.Join(rec.Flush(), f.Close()); err != nil {
				log.Printf("Failed to save pose recording: %v", err)
				return
			}
			log.Printf("Recorded %d frames to %s", rec.Frames(), opts.RecordPoses)
		}()
	}

	session, err := app.New(cfg)
	if err != nil {
		det.Close()
		return err
	}

	fmt.Fprintf(os.Stderr, "Opening %s with the %s dispatcher\n", opts.URL, opts.Dispatcher)

	if t == nil {
		err = session.Run(ctx)
	} else {
		t.OnToggle(session.SetEnabled)
		t.OnQuit(cancel)

		errCh := make(chan error, 1)
		go func() {
			errCh <- session.Run(ctx)
			t.Quit()
		}()
		t.Run()
		cancel()
		err = <-errCh
	}

	return playResult(session, err)
}

// playResult turns a user stop or interrupt into a clean exit.
func playResult(session *app.Session, err error) error {
	if errors.Is(err, app.ErrStopped) || errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Stopped after %d frames\n", session.Frames())
		if id := session.ID(); id != "" {
			fmt.Fprintf(os.Stderr, "Session %s saved to history\n", id)
		}
		return nil
	}
	return err
}

func newDetector(opts PlayOptions) (detector.Detector, error) {
	switch opts.Detector {
	case detectorMediaPipe:
		cfg := detector.DefaultConfig()
		cfg.MinConfidence = opts.DetectionConf
		cfg.MinTrackingConf = opts.TrackingConf
		cfg.ScriptPath = opts.SidecarScript

		d, err := detector.NewMediaPipeDetector(cfg)
		if err != nil {
			if errors.Is(err, detector.ErrSidecarNotFound) {
				return nil, fmt.Errorf("%w (install scripts/pose_service.py or use --detector=%s)", err, detectorMock)
			}
			return nil, err
		}
		log.Println("Using MediaPipe pose detection")
		return d, nil

	case detectorMock:
		log.Println("Using mock pose detection, no gesture will fire")
		return detector.NewMockDetector(), nil
	}

	return nil, fmt.Errorf("unknown detector %q", opts.Detector)
}

func newDispatcher(opts PlayOptions) (dispatch.Dispatcher, error) {
	cfg := dispatch.DefaultConfig()
	cfg.Kind = opts.Dispatcher
	cfg.URL = opts.URL
	cfg.Headless = opts.Headless
	cfg.PluginName = opts.PluginName
	cfg.PluginDir = opts.PluginDir

	if cfg.PluginDir == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		cfg.PluginDir = filepath.Join(dir, "plugins")
	}

	return dispatch.New(cfg)
}
