package dto

import "time"

type VerifyInput struct {
	CallerID    string `json:"-"`
	StreakID    string `json:"-"`
	HistoryID   string `json:"historyId,omitempty"`
	Description string `json:"description"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

type VerificationOutput struct {
	ID                 string    `json:"id"`
	StreakID           string    `json:"streakId"`
	HistoryID          string    `json:"historyId,omitempty"`
	Verified           bool      `json:"verified"`
	Confidence         float64   `json:"confidence"`
	Authentic          bool      `json:"authentic"`
	MatchesDescription bool      `json:"matchesDescription"`
	Reasoning          string    `json:"reasoning"`
	ResultText         string    `json:"resultText"`
	CreatedAt          time.Time `json:"createdAt"`
}

type ListInput struct {
	CallerID string
	StreakID string
}

type DoctorOutput struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Binary          string `json:"binary"`
	BinaryReachable bool   `json:"binaryReachable"`
	ChecksumValid   bool   `json:"checksumValid"`
	LifecycleOK     bool   `json:"lifecycleOk"`
	Error           string `json:"error,omitempty"`
}
