package models

// ToolName names one of the state mutations the agent may propose
type ToolName string

const (
	ToolAddTask         ToolName = "addTask"
	ToolToggleTask      ToolName = "toggleTask"
	ToolDeleteTask      ToolName = "deleteTask"
	ToolSetFocus        ToolName = "setFocus"
	ToolAddJournalEntry ToolName = "addJournalEntry"
	ToolStartTimer      ToolName = "startTimer"
	ToolPauseTimer      ToolName = "pauseTimer"
	ToolResetTimer      ToolName = "resetTimer"
	ToolSetReminder     ToolName = "setReminder"
	ToolCancelReminder  ToolName = "cancelReminder"
	ToolBreakdownTask   ToolName = "breakdownTask"
)

// KnownTools lists every tool the agent is told about
var KnownTools = []ToolName{
	ToolAddTask,
	ToolToggleTask,
	ToolDeleteTask,
	ToolSetFocus,
	ToolAddJournalEntry,
	ToolStartTimer,
	ToolPauseTimer,
	ToolResetTimer,
	ToolSetReminder,
	ToolCancelReminder,
	ToolBreakdownTask,
}

// WireAction is an action exactly as the model produced it. It is decoded into
// an Action at the gateway boundary and otherwise only persisted in history.
type WireAction struct {
	ToolName string         `json:"toolName"`
	Args     map[string]any `json:"args,omitempty"`
}

// Action is a validated agent action. Each variant carries only its own fields.
type Action interface {
	Tool() ToolName
	isAction()
}

// TaskRef addresses a task by id, or by text until the id is resolved
type TaskRef struct {
	ID   int64  `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// Resolved reports whether the reference carries an id
func (r TaskRef) Resolved() bool {
	return r.ID != 0
}

// TaskTargeting is implemented by the actions that mutate one existing task
type TaskTargeting interface {
	Action
	Target() TaskRef
	WithTarget(ref TaskRef) Action
}

type AddTask struct {
	Text     string
	Priority Priority
	Category string
	DueDate  *Timestamp
}

type ToggleTask struct {
	Ref TaskRef
}

type DeleteTask struct {
	Ref TaskRef
}

type SetReminder struct {
	Ref          TaskRef
	ReminderTime Timestamp
}

type CancelReminder struct {
	Ref TaskRef
}

type SetFocus struct {
	Text string
}

type AddJournalEntry struct {
	Content string
}

type StartTimer struct{}

type PauseTimer struct{}

type ResetTimer struct{}

type BreakdownTask struct {
	Goal string
}

// InvalidAction stands in for a payload that named an unknown tool or lacked
// required arguments. It never mutates state.
type InvalidAction struct {
	Name   string
	Reason string
}

func (AddTask) Tool() ToolName         { return ToolAddTask }
func (ToggleTask) Tool() ToolName      { return ToolToggleTask }
func (DeleteTask) Tool() ToolName      { return ToolDeleteTask }
func (SetReminder) Tool() ToolName     { return ToolSetReminder }
func (CancelReminder) Tool() ToolName  { return ToolCancelReminder }
func (SetFocus) Tool() ToolName        { return ToolSetFocus }
func (AddJournalEntry) Tool() ToolName { return ToolAddJournalEntry }
func (StartTimer) Tool() ToolName      { return ToolStartTimer }
func (PauseTimer) Tool() ToolName      { return ToolPauseTimer }
func (ResetTimer) Tool() ToolName      { return ToolResetTimer }
func (BreakdownTask) Tool() ToolName   { return ToolBreakdownTask }
func (a InvalidAction) Tool() ToolName { return ToolName(a.Name) }

func (AddTask) isAction()         {}
func (ToggleTask) isAction()      {}
func (DeleteTask) isAction()      {}
func (SetReminder) isAction()     {}
func (CancelReminder) isAction()  {}
func (SetFocus) isAction()        {}
func (AddJournalEntry) isAction() {}
func (StartTimer) isAction()      {}
func (PauseTimer) isAction()      {}
func (ResetTimer) isAction()      {}
func (BreakdownTask) isAction()   {}
func (InvalidAction) isAction()   {}

func (a ToggleTask) Target() TaskRef     { return a.Ref }
func (a DeleteTask) Target() TaskRef     { return a.Ref }
func (a SetReminder) Target() TaskRef    { return a.Ref }
func (a CancelReminder) Target() TaskRef { return a.Ref }

func (a ToggleTask) WithTarget(ref TaskRef) Action {
	a.Ref = ref
	return a
}

func (a DeleteTask) WithTarget(ref TaskRef) Action {
	a.Ref = ref
	return a
}

func (a SetReminder) WithTarget(ref TaskRef) Action {
	a.Ref = ref
	return a
}

func (a CancelReminder) WithTarget(ref TaskRef) Action {
	a.Ref = ref
	return a
}

// AgentResponse is a validated agent turn: the reply to show and the actions to run
type AgentResponse struct {
	Actions      []Action
	ResponseText string
}

// Fixed agent replies
const (
	DuplicateTaskResponse = "You already have a task with that exact name. Would you like to add it anyway, or perhaps edit the existing one?"
)
