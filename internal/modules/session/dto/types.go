package dto

type Operation string

const (
	OpStart       Operation = "start"
	OpTick        Operation = "tick"
	OpPause       Operation = "pause"
	OpResume      Operation = "resume"
	OpTakeBreak   Operation = "take_break"
	OpSkipBreak   Operation = "skip_break"
	OpBackToFocus Operation = "back_to_focus"
	OpCancel      Operation = "cancel"
	OpEnd         Operation = "end"
)

type RunKey struct {
	UserID   string
	StreakID string
}

type ApplyInput struct {
	Key RunKey
	Op  Operation
}

type MoveInput struct {
	Key RunKey
	DX  int
	DY  int
}

type RunView struct {
	StreakID                string `json:"streakId"`
	Title                   string `json:"title"`
	HistoryID               string `json:"historyId"`
	Mode                    string `json:"mode"`
	Running                 bool   `json:"running"`
	RemainingSeconds        int    `json:"remainingSeconds"`
	FocusSeconds            int    `json:"focusSeconds"`
	BreakSeconds            int    `json:"breakSeconds"`
	TotalFocusSeconds       int    `json:"totalFocusSeconds"`
	RemainingBreakReps      int    `json:"remainingBreakReps"`
	UsedBreakReps           int    `json:"usedBreakReps"`
	BreakEvents             int    `json:"breakEvents"`
	UIX                     int    `json:"uiX"`
	UIY                     int    `json:"uiY"`
	Resumed                 bool   `json:"resumed"`
	Outcome                 string `json:"outcome,omitempty"`
	RecordedDurationMinutes *int   `json:"recordedDurationMinutes,omitempty"`
	LedgerError             string `json:"ledgerError,omitempty"`
}

type ApplyOutput struct {
	Applied bool
	View    RunView
}

type PendingRun struct {
	StreakID         string `json:"streakId"`
	Title            string `json:"title"`
	Mode             string `json:"mode"`
	RemainingSeconds int    `json:"remainingSeconds"`
}
