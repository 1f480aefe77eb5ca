package models

import "time"

// JournalDateLayout is the calendar-day key format of journal entries
const JournalDateLayout = "2006-01-02"

// JournalEntry is one journal entry per calendar day
type JournalEntry struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// DateKey returns the local calendar-day key for t
func DateKey(t time.Time) string {
	return t.Local().Format(JournalDateLayout)
}

// Source is a web citation returned by grounded research
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// PinnedItem is a research result pinned to the dashboard
type PinnedItem struct {
	ID       int64    `json:"id"`
	Prompt   string   `json:"prompt"`
	Response string   `json:"response"`
	Sources  []Source `json:"sources,omitempty"`
}

// ResearchResult is the text and citations produced by a research request
type ResearchResult struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}
