package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/benvon/itsdone/internal/models"
)

const (
	// NotesContextLength is how much of the notes the agent sees
	NotesContextLength = 150
	// JournalContextEntries is how many journal entries the agent sees
	JournalContextEntries = 3
)

// AgentContext is the dashboard state shown to the agent
type AgentContext struct {
	Tasks          []models.Task
	Notes          string
	Focus          string
	JournalEntries []models.JournalEntry
}

const (
	chatSystemInstruction = "You are a helpful and friendly productivity assistant. Keep your answers concise and actionable. " +
		"You can use markdown for formatting like **bold** and * lists."

	researchSystemInstruction = "You are a research assistant. Provide factual answers and use markdown for formatting like " +
		"**bold**, * lists, and tables for comparisons."

	journalPromptRequest = "Give me a single, short, and insightful journal prompt for self-reflection. It should be a question."
)

func summarizePrompt(notes string) string {
	return "Please provide a concise summary of the following notes:\n\n---\n" + notes + "\n---"
}

func decomposePrompt(goal string) string {
	return fmt.Sprintf("Break down the following complex goal into a list of simple, actionable tasks.\n"+
		"Goal: %q\n\n"+
		"Respond ONLY with a JSON array of strings, where each string is a task.", goal)
}

const agentInstructions = `You are "feel_good", an AI agent integrated into the "it's_done." productivity dashboard.
Your primary goal is to be a supportive and empathetic companion. Your personality is warm, encouraging, and helpful.
Acknowledge the user's feelings (e.g., if they mention feeling stressed or overwhelmed) and offer encouragement.
You can use markdown for formatting like **bold** and * lists.

You can interact with the app by calling tools. You MUST respond with a JSON object of the form
{"actions": [{"toolName": "...", "args": {...}}], "responseText": "..."}. The 'actions' array can be empty.

Available Tools:
- addTask: Adds a new task. Args: { text: string, priority?: 'Low'|'Medium'|'High', category?: string, dueDate?: string (ISO format) }
- toggleTask: Marks a task as complete/incomplete. Args: { text: string }
- deleteTask: Removes a task. Args: { text: string }
- addJournalEntry: Adds or updates a journal entry for today. Args: { content: string }
- setFocus: Sets the user's main goal for the day. Args: { text: string }
- startTimer, pauseTimer, resetTimer: Controls the Pomodoro timer. Args: {}
- setReminder: Sets a reminder for a task. Args: { text: string, reminderTime: string (ISO format) }
- cancelReminder: Removes a reminder from a task. Args: { text: string }
- breakdownTask: Breaks a large goal into smaller, actionable sub-tasks. Args: { goal: string }

Analyze the user's prompt and the provided context to decide which actions to take.
- When modifying tasks (toggle, delete, remind), you must find them by their 'text' content. If multiple tasks match, ask for clarification.
- If a user asks to summarize their journal, do not call a tool. Instead, read the journal context and provide the summary in your 'responseText'.
- If a user wants to add a journal entry but does not provide content, ask them what they'd like to write in your 'responseText' and do not call a tool.
- Always provide a friendly, conversational 'responseText' that confirms your actions or asks clarifying questions.`

// AgentSystemInstruction renders the agent instructions with the current state
func AgentSystemInstruction(state AgentContext) string {
	tasks := state.Tasks
	if tasks == nil {
		tasks = []models.Task{}
	}
	journal := state.JournalEntries
	if len(journal) > JournalContextEntries {
		journal = journal[:JournalContextEntries]
	}
	if journal == nil {
		journal = []models.JournalEntry{}
	}
	tasksJSON, _ := json.Marshal(tasks)
	journalJSON, _ := json.Marshal(journal)

	var b strings.Builder
	b.WriteString(agentInstructions)
	b.WriteString("\n\nContext:\n")
	fmt.Fprintf(&b, "- Tasks: %s\n", tasksJSON)
	fmt.Fprintf(&b, "- Notes: %q\n", truncateRunes(state.Notes, NotesContextLength)+"...")
	fmt.Fprintf(&b, "- Focus: %q\n", state.Focus)
	fmt.Fprintf(&b, "- Recent Journal Entries: %s\n", journalJSON)
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
