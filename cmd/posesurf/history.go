package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/posesurf/internal/gesture"
	"github.com/ayusman/posesurf/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List recorded sessions, or the actions of one session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 1 {
			return printSession(cmd.OutOrStdout(), st, args[0])
		}
		return printSessions(cmd.OutOrStdout(), st, historyLimit)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of sessions to list (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func printSessions(out io.Writer, st *store.Store, limit int) error {
	sessions, err := st.Sessions().List(limit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tFRAMES\tACTIONS\tDISPATCHER\tSTATUS")
	fmt.Fprintln(w, "--\t-------\t--------\t------\t-------\t----------\t------")

	for _, s := range sessions {
		counts, err := st.Events().CountBySession(s.ID)
		if err != nil {
			return fmt.Errorf("failed to count actions: %w", err)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			s.ID,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			formatDuration(s),
			s.Frames,
			formatCounts(counts),
			s.Dispatcher,
			status(s),
		)
	}
	return w.Flush()
}

func printSession(out io.Writer, st *store.Store, id string) error {
	s, err := st.Sessions().GetByID(id)
	if err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}

	events, err := st.Events().ListBySession(id)
	if err != nil {
		return fmt.Errorf("failed to list actions: %w", err)
	}

	fmt.Fprintf(out, "Session %s\n", s.ID)
	fmt.Fprintf(out, "Target:     %s\n", s.Target)
	fmt.Fprintf(out, "Dispatcher: %s\n", s.Dispatcher)
	fmt.Fprintf(out, "Started:    %s\n", s.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Duration:   %s\n", formatDuration(s))
	fmt.Fprintf(out, "Frames:     %d\n", s.Frames)
	fmt.Fprintf(out, "Status:     %s\n\n", status(s))

	if len(events) == 0 {
		fmt.Fprintln(out, "No action fired.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FRAME\tACTION\tTIME")
	fmt.Fprintln(w, "-----\t------\t----")
	for _, e := range events {
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.Frame, e.Action, e.CreatedAt.Local().Format("15:04:05.000"))
	}
	return w.Flush()
}

func formatDuration(s *store.Session) string {
	if s.Running() {
		return "-"
	}
	return s.Duration().Round(time.Second).String()
}

func status(s *store.Session) string {
	switch {
	case s.Running():
		return "running"
	case s.Error != "":
		return "failed: " + s.Error
	default:
		return "ok"
	}
}

// formatCounts renders action counts in action order, e.g. "jump=2 left=1".
func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}

	var parts []string
	for _, a := range gesture.Actions {
		if n := counts[a.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", a, n))
		}
	}

	var unknown []string
	for name, n := range counts {
		if _, err := gesture.ParseAction(name); err != nil {
			unknown = append(unknown, fmt.Sprintf("%s=%d", name, n))
		}
	}
	sort.Strings(unknown)

	return strings.Join(append(parts, unknown...), " ")
}
