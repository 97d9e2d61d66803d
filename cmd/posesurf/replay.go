package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/posesurf/internal/app"
	"github.com/ayusman/posesurf/internal/detector"
	"github.com/ayusman/posesurf/internal/dispatch"
	"github.com/ayusman/posesurf/internal/gesture"
	"github.com/ayusman/posesurf/internal/store"
)

// replayDispatcher is the dispatcher name recorded for replayed sessions.
const replayDispatcher = "replay"

var replayRecord bool

var replayCmd = &cobra.Command{
	Use:   "replay <script.jsonl|->",
	Short: "Run a recorded pose script through the gesture state machine",
	Long: `Run a recorded pose script through the gesture state machine and print the
actions that would fire. The script holds one pose message per line, as
written by the pose sidecar; "-" reads it from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.OutOrStdout(), args[0], replayRecord)
	},
}

func init() {
	replayCmd.Flags().BoolVar(&replayRecord, "record", false, "save the replay to the history")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(out io.Writer, path string, record bool) error {
	poses, err := readScript(path)
	if err != nil {
		return err
	}

	events, state := app.Replay(poses)
	if err := printReplay(out, events, len(poses), state); err != nil {
		return err
	}

	if !record {
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := recordReplay(st, path, events, len(poses))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved as session %s\n", id)
	return nil
}

func readScript(path string) ([]*detector.PoseLandmarks, error) {
	if path == "-" {
		return detector.ReadScript(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	poses, err := detector.ReadScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return poses, nil
}

func printReplay(out io.Writer, events []app.ReplayEvent, frames int, final gesture.State) error {
	if len(events) == 0 {
		_, err := fmt.Fprintf(out, "No action fired in %d frames.\n", frames)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FRAME\tACTION\tKEY")
	fmt.Fprintln(w, "-----\t------\t---")
	for _, e := range events {
		key, err := dispatch.KeyFor(e.Action)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.Frame, e.Action, key)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "%d actions in %d frames, ending %s.\n", len(events), frames, final)
	return err
}

func recordReplay(st *store.Store, path string, events []app.ReplayEvent, frames int) (string, error) {
	sess := &store.Session{Target: path, Dispatcher: replayDispatcher}
	if err := st.Sessions().Create(sess); err != nil {
		return "", fmt.Errorf("record replay: %w", err)
	}

	for _, e := range events {
		err := st.Events().Create(&store.Event{
			SessionID: sess.ID,
			Action:    e.Action.String(),
			Frame:     e.Frame,
		})
		if err != nil {
			return "", fmt.Errorf("record replay: %w", err)
		}
	}

	if err := st.Sessions().Finish(sess.ID, frames, nil); err != nil {
		return "", fmt.Errorf("record replay: %w", err)
	}
	return sess.ID, nil
}
