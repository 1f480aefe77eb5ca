package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/benvon/itsdone/internal/models"
	"go.uber.org/zap"
)

// SetFocus replaces the daily focus
func (s *Store) SetFocus(ctx context.Context, focus string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = focus
	s.persistRaw(ctx, KeyFocus, focus)
}

// Focus returns the daily focus
func (s *Store) Focus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focus
}

// UpdateNotes replaces the notes
func (s *Store) UpdateNotes(ctx context.Context, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = notes
	s.persistRaw(ctx, KeyNotes, notes)
}

// AppendNotes adds text to the end of the notes and returns the result
func (s *Store) AppendNotes(ctx context.Context, text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes += text
	s.persistRaw(ctx, KeyNotes, s.notes)
	return s.notes
}

// Notes returns the notes
func (s *Store) Notes() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes
}

// Today returns the journal key of the current local day
func (s *Store) Today() string {
	return models.DateKey(s.now())
}

// UpsertJournalEntry replaces the entry for date in place or appends a new
// one. It reports whether an entry was created.
func (s *Store) UpsertJournalEntry(ctx context.Context, date, content string) (bool, error) {
	if _, err := time.Parse(models.JournalDateLayout, date); err != nil {
		return false, fmt.Errorf("invalid journal date %q: %w", date, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	created := true
	for i := range s.journal {
		if s.journal[i].Date == date {
			s.journal[i].Content = content
			created = false
			break
		}
	}
	if created {
		s.journal = append(s.journal, models.JournalEntry{Date: date, Content: content})
	}
	s.persistJSON(ctx, KeyJournalEntries, orEmpty(s.journal))
	s.logger.Debug("journal_entry_saved", zap.String("date", date), zap.Bool("created", created))
	return created, nil
}

// JournalEntry returns the entry for date
func (s *Store) JournalEntry(date string) (models.JournalEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.journal {
		if e.Date == date {
			return e, true
		}
	}
	return models.JournalEntry{}, false
}

// JournalEntries returns every entry in storage order
func (s *Store) JournalEntries() []models.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.JournalEntry(nil), s.journal...)
}

// RecentJournalEntries returns up to n entries, newest date first
func (s *Store) RecentJournalEntries(n int) []models.JournalEntry {
	entries := s.JournalEntries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// PinItem appends a research result to the pinned items
func (s *Store) PinItem(ctx context.Context, prompt, response string, sources []models.Source) models.PinnedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := models.PinnedItem{
		ID:       s.nextID(),
		Prompt:   prompt,
		Response: response,
		Sources:  append([]models.Source(nil), sources...),
	}
	s.pinned = append(s.pinned, item)
	s.persistJSON(ctx, KeyPinnedItems, orEmpty(s.pinned))
	return item
}

// UnpinItem removes a pinned item
func (s *Store) UnpinItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pinned {
		if p.ID == id {
			s.pinned = append(s.pinned[:i], s.pinned[i+1:]...)
			s.persistJSON(ctx, KeyPinnedItems, orEmpty(s.pinned))
			return nil
		}
	}
	return ErrPinNotFound
}

// PinnedItems returns the pinned items in pin order
func (s *Store) PinnedItems() []models.PinnedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePinned(s.pinned)
}

// SetResearchMode switches the research widget on or off
func (s *Store) SetResearchMode(ctx context.Context, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.researchMode = on
	s.persistJSON(ctx, KeyResearchMode, on)
}

// ResearchMode reports whether research mode is on
func (s *Store) ResearchMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.researchMode
}

// AssistantHistory returns the assistant conversation
func (s *Store) AssistantHistory() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.assistantHistory...)
}

// AppendAssistantMessages adds messages to the assistant conversation
func (s *Store) AppendAssistantMessages(ctx context.Context, msgs ...models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assistantHistory = append(s.assistantHistory, msgs...)
	s.persistJSON(ctx, KeyAssistantHistory, orEmpty(s.assistantHistory))
}

// ClearAssistantHistory resets the assistant conversation to its opener
func (s *Store) ClearAssistantHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assistantHistory = []models.ChatMessage{{Sender: models.SenderAI, Text: models.AssistantCleared}}
	s.persistJSON(ctx, KeyAssistantHistory, s.assistantHistory)
}

// AgentHistory returns the agent conversation
func (s *Store) AgentHistory() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.agentHistory...)
}

// AppendAgentMessages adds messages to the agent conversation
func (s *Store) AppendAgentMessages(ctx context.Context, msgs ...models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentHistory = append(s.agentHistory, msgs...)
	s.persistJSON(ctx, KeyAgentHistory, orEmpty(s.agentHistory))
}

// ClearAgentHistory empties the agent conversation
func (s *Store) ClearAgentHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentHistory = nil
	s.persistJSON(ctx, KeyAgentHistory, []models.ChatMessage{})
}
