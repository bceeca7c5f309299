package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"streakd/internal/bootstrap"
	streakdto "streakd/internal/modules/streak/dto"
	"streakd/internal/platform/config"
	"streakd/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globals struct {
	dataDir string
	userID  string
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "streakd",
		Short:         "Focus/break sessions recorded against habit streaks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.dataDir, "data", ".", "data directory holding streakd.yaml, the database and snapshots")
	root.PersistentFlags().StringVar(&g.userID, "user", "", "acting user id (defaults to user_id from config)")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newCategoryCmd(g))
	root.AddCommand(newStreakCmd(g))
	root.AddCommand(newSessionCmd(g))
	root.AddCommand(newHistoryCmd(g))
	root.AddCommand(newVerifyCmd(g))
	root.AddCommand(newVerifierCmd(g))
	return root
}

// loadApp builds the application and returns the acting user id.
func loadApp(g *globals) (*bootstrap.App, string, error) {
	cfg, err := config.Load(g.dataDir)
	if err != nil {
		return nil, "", err
	}
	app, err := bootstrap.New(cfg, logging.New("streakd", cfg.LogLevel))
	if err != nil {
		return nil, "", err
	}
	userID := cfg.UserID
	if g.userID != "" {
		userID = g.userID
	}
	return app, userID, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, _, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx)
		},
	}
}

func newCategoryCmd(g *globals) *cobra.Command {
	category := &cobra.Command{Use: "category", Short: "Category commands"}

	var parentID string
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category, or a subcategory with --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.StreakCLI.CreateCategory(context.Background(), userID, args[0], parentID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created category %s (%s)\n", out.Name, out.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&parentID, "parent", "", "parent category id")
	category.AddCommand(createCmd)
	return category
}

func newStreakCmd(g *globals) *cobra.Command {
	streak := &cobra.Command{Use: "streak", Short: "Streak commands"}

	var (
		categoryID, subcategoryID, difficulty, key string
		focus, brk, budget                         int
	)
	createCmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a streak",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			input := streakdto.CreateStreakInput{
				OwnerID:        userID,
				Title:          args[0],
				CategoryID:     categoryID,
				SubcategoryID:  subcategoryID,
				Difficulty:     difficulty,
				IdempotencyKey: key,
			}
			if cmd.Flags().Changed("focus") {
				input.FocusMinutes = &focus
			}
			if cmd.Flags().Changed("break") {
				input.BreakMinutes = &brk
			}
			if cmd.Flags().Changed("budget") {
				input.BreakRepetitionBudget = &budget
			}
			out, err := app.StreakCLI.Create(context.Background(), input)
			if err != nil {
				return err
			}
			if out.Replayed {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "replayed earlier response")
			}
			_, err = cmd.OutOrStdout().Write(append(out.Payload, '\n'))
			return err
		},
	}
	createCmd.Flags().StringVar(&categoryID, "category", "", "category id")
	createCmd.Flags().StringVar(&subcategoryID, "subcategory", "", "subcategory id")
	createCmd.Flags().StringVar(&difficulty, "difficulty", "", "easy|medium|hard")
	createCmd.Flags().StringVar(&key, "idempotency-key", "", "replay key for retried creates")
	createCmd.Flags().IntVar(&focus, "focus", 0, "focus minutes")
	createCmd.Flags().IntVar(&brk, "break", 0, "break minutes")
	createCmd.Flags().IntVar(&budget, "budget", 0, "breaks allowed per session")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your streaks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			streaks, err := app.StreakCLI.List(context.Background(), userID)
			if err != nil {
				return err
			}
			if len(streaks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no streaks")
				return nil
			}
			for _, s := range streaks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%dm focus / %dm break x%d\t%s\n", s.ID, s.Title, s.FocusMinutes, s.BreakMinutes, s.BreakRepetitionBudget, s.Difficulty)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <streak-id>",
		Short: "Show one streak",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.StreakCLI.Get(context.Background(), userID, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	var (
		newTitle, newDifficulty       string
		newFocus, newBreak, newBudget int
	)
	settingsCmd := &cobra.Command{
		Use:   "settings <streak-id>",
		Short: "Update timing and difficulty; running sessions keep their settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			input := streakdto.UpdateSettingsInput{CallerID: userID, StreakID: args[0]}
			flags := cmd.Flags()
			if flags.Changed("title") {
				input.Title = &newTitle
			}
			if flags.Changed("difficulty") {
				input.Difficulty = &newDifficulty
			}
			if flags.Changed("focus") {
				input.FocusMinutes = &newFocus
			}
			if flags.Changed("break") {
				input.BreakMinutes = &newBreak
			}
			if flags.Changed("budget") {
				input.BreakRepetitionBudget = &newBudget
			}
			out, err := app.StreakCLI.UpdateSettings(context.Background(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	settingsCmd.Flags().StringVar(&newTitle, "title", "", "title")
	settingsCmd.Flags().StringVar(&newDifficulty, "difficulty", "", "easy|medium|hard")
	settingsCmd.Flags().IntVar(&newFocus, "focus", 0, "focus minutes")
	settingsCmd.Flags().IntVar(&newBreak, "break", 0, "break minutes")
	settingsCmd.Flags().IntVar(&newBudget, "budget", 0, "breaks allowed per session")

	deleteCmd := &cobra.Command{
		Use:   "delete <streak-id>",
		Short: "Delete a streak with its history and verifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.StreakCLI.Delete(context.Background(), userID, args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	streak.AddCommand(createCmd, listCmd, showCmd, settingsCmd, deleteCmd)
	return streak
}

// sessionOps maps CLI verbs to engine operations.
var sessionOps = map[string]string{
	"pause":         "pause",
	"resume":        "resume",
	"take-break":    "take_break",
	"skip-break":    "skip_break",
	"back-to-focus": "back_to_focus",
	"cancel":        "cancel",
	"tick":          "tick",
}

func newSessionCmd(g *globals) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Run focus/break sessions"}

	session.AddCommand(&cobra.Command{
		Use:   "tui <streak-id>",
		Short: "Open the interactive timer for a streak",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app, userID, args[0])
		},
	})

	session.AddCommand(&cobra.Command{
		Use:   "open <streak-id>",
		Short: "Start or resume a run without the timer UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			view, err := app.SessionCLI.Open(context.Background(), userID, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	})

	for verb, op := range sessionOps {
		session.AddCommand(&cobra.Command{
			Use:   verb + " <streak-id>",
			Short: "Apply " + strings.ReplaceAll(op, "_", " ") + " to the current run",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return applySessionOp(cmd, g, args[0], op)
			},
		})
	}

	var confirm string
	endCmd := &cobra.Command{
		Use:   "end <streak-id>",
		Short: "End the run and record it (requires --confirm END)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if confirm != "END" {
				return fmt.Errorf("refusing to end without --confirm END")
			}
			return applySessionOp(cmd, g, args[0], "end")
		},
	}
	endCmd.Flags().StringVar(&confirm, "confirm", "", "must be END")
	session.AddCommand(endCmd)

	session.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List runs that can be resumed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			runs, err := app.SessionCLI.Pending(context.Background(), userID)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no pending runs")
				return nil
			}
			for _, r := range runs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%ds left\n", r.StreakID, r.Title, r.Mode, r.RemainingSeconds)
			}
			return nil
		},
	})
	return session
}

func applySessionOp(cmd *cobra.Command, g *globals, streakID, op string) error {
	app, userID, err := loadApp(g)
	if err != nil {
		return err
	}
	defer app.Close()
	out, err := app.SessionCLI.Do(context.Background(), userID, streakID, op)
	if err != nil {
		return err
	}
	if !out.Applied {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s ignored in mode %s\n", op, out.View.Mode)
	}
	return printJSON(cmd.OutOrStdout(), out.View)
}

func newHistoryCmd(g *globals) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Session history commands"}

	var page, limit int
	listCmd := &cobra.Command{
		Use:   "list <streak-id>",
		Short: "List recorded sessions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.LedgerCLI.History(context.Background(), userID, args[0], page, limit)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "page %d (%d per page) of %d records\n", out.Page, out.Limit, out.Total)
			for _, h := range out.Data {
				verified := ""
				if h.Verified {
					verified = "\tverified"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d min%s\n", h.ID, h.StartTime.Format("2006-01-02 15:04"), h.Status, h.DurationMinutes, verified)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&page, "page", 1, "page number")
	listCmd.Flags().IntVar(&limit, "limit", 20, "records per page (max 100)")

	var description, photoURL string
	submitCmd := &cobra.Command{
		Use:   "submit <streak-id> <history-id>",
		Short: "Attach a description and photo to a recorded session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.LedgerCLI.Submit(context.Background(), userID, args[0], args[1], description, photoURL)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	submitCmd.Flags().StringVar(&description, "description", "", "what was done")
	submitCmd.Flags().StringVar(&photoURL, "photo", "", "photo url")

	verificationsCmd := &cobra.Command{
		Use:   "verifications <streak-id>",
		Short: "List authenticity verdicts recorded for a streak",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.VerificationCLI.List(context.Background(), userID, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	history.AddCommand(listCmd, submitCmd, verificationsCmd)
	return history
}

func newVerifyCmd(g *globals) *cobra.Command {
	var historyID, description, photoURL string
	verify := &cobra.Command{
		Use:   "verify <streak-id>",
		Short: "Ask the analyzer plugin whether documented work looks authentic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.VerificationCLI.Verify(context.Background(), userID, args[0], historyID, description, photoURL)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	verify.Flags().StringVar(&historyID, "history", "", "history record to mark")
	verify.Flags().StringVar(&description, "description", "", "what was done")
	verify.Flags().StringVar(&photoURL, "photo", "", "photo url")
	return verify
}

func newVerifierCmd(g *globals) *cobra.Command {
	verifier := &cobra.Command{Use: "verifier", Short: "Analyzer plugin commands"}
	verifier.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check the analyzer binary, checksum and plugin handshake",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := loadApp(g)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.VerificationCLI.Doctor(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s binary=%t checksum=%t lifecycle=%t\n", out.Name, out.Version, out.BinaryReachable, out.ChecksumValid, out.LifecycleOK)
			if out.Error != "" {
				return fmt.Errorf("verifier unhealthy: %s", out.Error)
			}
			return nil
		},
	})
	return verifier
}
