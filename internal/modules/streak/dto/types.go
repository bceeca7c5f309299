package dto

import "time"

type CreateCategoryInput struct {
	OwnerID  string
	Name     string
	ParentID string
}

type CategoryOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

type CreateStreakInput struct {
	OwnerID               string
	Title                 string
	CategoryID            string
	SubcategoryID         string
	FocusMinutes          *int
	BreakMinutes          *int
	BreakRepetitionBudget *int
	Difficulty            string
	IdempotencyKey        string
}

type UpdateSettingsInput struct {
	CallerID              string
	StreakID              string
	Title                 *string
	FocusMinutes          *int
	BreakMinutes          *int
	BreakRepetitionBudget *int
	Difficulty            *string
}

type StreakOutput struct {
	ID                    string    `json:"id"`
	OwnerID               string    `json:"ownerId"`
	Title                 string    `json:"title"`
	CategoryID            string    `json:"categoryId"`
	SubcategoryID         string    `json:"subcategoryId,omitempty"`
	FocusMinutes          int       `json:"focusMinutes"`
	BreakMinutes          int       `json:"breakMinutes"`
	BreakRepetitionBudget int       `json:"breakRepetitionBudget"`
	Difficulty            string    `json:"difficulty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// CreateStreakOutput carries the canonical payload so transports can replay
// it byte for byte.
type CreateStreakOutput struct {
	Streak   StreakOutput
	Payload  []byte
	Replayed bool
}
