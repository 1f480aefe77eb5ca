package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/itsdone/internal/markup"
	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/services/ai"
	"github.com/spf13/cobra"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var clearHistory bool

	cmd := &cobra.Command{
		Use:   "ask PROMPT...",
		Short: "Ask the agent to act on the dashboard",
		Long:  "Ask the agent to act on the dashboard. It can add, complete and delete tasks, set reminders, edit notes, the focus and the journal.",
		Args: func(cmd *cobra.Command, args []string) error {
			if clearHistory {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			session, err := a.session()
			if err != nil {
				return err
			}
			if clearHistory {
				session.Clear(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "Agent history cleared")
				return nil
			}

			result, err := session.Turn(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, markup.RenderTerminal(result.Reply))
			if result.Duplicate != nil {
				fmt.Fprintln(out, rejectedStyle.Render(fmt.Sprintf("✗ Not added, already on the list: %q", result.Duplicate.Text)))
			}
			for _, o := range result.Outcomes {
				if o.Applied {
					fmt.Fprintln(out, appliedStyle.Render("✓ "+o.Summary))
					continue
				}
				fmt.Fprintln(out, rejectedStyle.Render(fmt.Sprintf("✗ %s: %s", o.Action.Tool(), o.Reason)))
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&clearHistory, "clear", false, "Clear the agent conversation")
	return cmd
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	var clearHistory bool

	cmd := &cobra.Command{
		Use:   "chat MESSAGE...",
		Short: "Talk to the assistant",
		Args: func(cmd *cobra.Command, args []string) error {
			if clearHistory {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if clearHistory {
				a.store.ClearAssistantHistory(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), models.AssistantCleared)
				return nil
			}

			message := strings.Join(args, " ")
			reply, _ := a.gateway.Chat(cmd.Context(), message)
			a.store.AppendAssistantMessages(cmd.Context(),
				models.ChatMessage{Sender: models.SenderUser, Text: message},
				models.ChatMessage{Sender: models.SenderAI, Text: reply},
			)
			fmt.Fprintln(cmd.OutOrStdout(), markup.RenderTerminal(reply))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&clearHistory, "clear", false, "Clear the conversation")
	return cmd
}

func newResearchCmd(opts *rootOptions) *cobra.Command {
	var deep, export, pin bool

	cmd := &cobra.Command{
		Use:   "research QUESTION...",
		Short: "Research a question with web sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			question := strings.Join(args, " ")
			prompt := question
			if deep {
				prompt = ai.DeepDivePrompt(question)
			}

			result, err := a.gateway.Research(cmd.Context(), prompt)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, markup.RenderTerminal(result.Text))
			printSources(out, result.Sources)
			if err != nil {
				// Nothing worth keeping
				return nil
			}

			if export {
				a.store.AppendNotes(cmd.Context(), ai.ExportToNotes(question, result))
				fmt.Fprintln(out, appliedStyle.Render("✓ Exported to notes"))
			}
			if pin {
				item := a.store.PinItem(cmd.Context(), question, result.Text, result.Sources)
				fmt.Fprintln(out, appliedStyle.Render(fmt.Sprintf("✓ Pinned as %d", item.ID)))
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "Ask for a detailed report")
	cmd.Flags().BoolVar(&export, "export", false, "Append the answer to the notes")
	cmd.Flags().BoolVar(&pin, "pin", false, "Pin the answer to the dashboard")
	return cmd
}
