package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/benvon/itsdone/internal/markup"
	"github.com/benvon/itsdone/internal/models"
	"github.com/spf13/cobra"
)

func newFocusCmd(opts *rootOptions) *cobra.Command {
	var clearFocus bool

	cmd := &cobra.Command{
		Use:   "focus [TEXT...]",
		Short: "Show or set today's focus",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			out := cmd.OutOrStdout()
			switch {
			case clearFocus:
				a.store.SetFocus(cmd.Context(), "")
				fmt.Fprintln(out, "Focus cleared")
			case len(args) > 0:
				a.store.SetFocus(cmd.Context(), strings.Join(args, " "))
				fmt.Fprintf(out, "Set focus to: %q\n", a.store.Focus())
			case a.store.Focus() == "":
				fmt.Fprintln(out, "No focus set")
			default:
				fmt.Fprintln(out, a.store.Focus())
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&clearFocus, "clear", false, "Clear the focus")
	return cmd
}

func newNotesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Show or edit the notes",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), markup.RenderTerminal(a.store.Notes()))
			return nil
		}),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [FILE]",
			Short: "Replace the notes with a file, or stdin",
			Args:  cobra.MaximumNArgs(1),
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
				text, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				a.store.UpdateNotes(cmd.Context(), text)
				fmt.Fprintln(cmd.OutOrStdout(), "Notes updated")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "append TEXT...",
			Short: "Append a line to the notes",
			Args:  cobra.MinimumNArgs(1),
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
				a.store.AppendNotes(cmd.Context(), "\n"+strings.Join(args, " "))
				fmt.Fprintln(cmd.OutOrStdout(), "Notes updated")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "summarize",
			Short: "Summarize the notes with the AI",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
				// Failures come back as a fallback text
				summary, _ := a.gateway.Summarize(cmd.Context(), a.store.Notes())
				fmt.Fprintln(cmd.OutOrStdout(), markup.RenderTerminal(summary))
				return nil
			}),
		},
	)
	return cmd
}

func newJournalCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal [DATE]",
		Short: "Show a journal entry, today's by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			date := a.store.Today()
			if len(args) == 1 {
				if _, err := time.Parse(models.JournalDateLayout, args[0]); err != nil {
					return fmt.Errorf("invalid date %q: use YYYY-MM-DD", args[0])
				}
				date = args[0]
			}
			entry, ok := a.store.JournalEntry(date)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "No journal entry for %s\n", date)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(entry.Date))
			fmt.Fprintln(cmd.OutOrStdout(), markup.RenderTerminal(entry.Content))
			return nil
		}),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "write [FILE]",
			Short: "Save today's entry from a file, or stdin",
			Args:  cobra.MaximumNArgs(1),
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
				text, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				created, err := a.store.UpsertJournalEntry(cmd.Context(), a.store.Today(), text)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintln(cmd.OutOrStdout(), "Journal entry created")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Journal entry updated")
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List journal entries, newest first",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
				entries := a.store.JournalEntries()
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No journal entries")
				}
				for _, e := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", e.Date, secondaryStyle.Render(firstLine(e.Content, 60)))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "prompt",
			Short: "Get a reflective writing prompt",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
				prompt, _ := a.gateway.JournalPrompt(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), prompt)
				return nil
			}),
		},
	)
	return cmd
}

func newPinCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pins",
		Aliases: []string{"pin"},
		Short:   "List pinned research results",
		Args:    cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			items := a.store.PinnedItems()
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing pinned")
			}
			for _, p := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleStyle.Render(fmt.Sprintf("[%d]", p.ID)), p.Prompt)
				fmt.Fprintln(cmd.OutOrStdout(), markup.RenderTerminal(p.Response))
				printSources(cmd.OutOrStdout(), p.Sources)
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "remove ID",
		Short: "Unpin a research result",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.UnpinItem(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Unpinned")
			return nil
		}),
	})
	return cmd
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render [FILE]",
		Short: "Render lightweight markup from a file, or stdin, for the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), markup.RenderTerminal(text))
			return nil
		},
	}
}

// readInput reads the named file, or stdin when no file or "-" is given
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func printSources(w io.Writer, sources []models.Source) {
	for _, s := range sources {
		title := s.Title
		if title == "" {
			title = s.URI
		}
		fmt.Fprintf(w, "  %s %s\n", title, secondaryStyle.Render(s.URI))
	}
}

func firstLine(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
