package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrChecksumMismatch = errors.New("analyzer checksum mismatch")
	ErrAnalyzerTimeout  = errors.New("analyzer timeout")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Manifest pins the analyzer plugin binary by checksum.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Binary  string `json:"binary"`
	SHA256  string `json:"sha256"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("analyzer name is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("analyzer binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("analyzer sha256 must be lowercase 64-char hex")
	}
	return nil
}

// Request is what the analyzer sees of a documented session.
type Request struct {
	StreakID    string
	StreakTitle string
	HistoryID   string
	Description string
	PhotoURL    string
}

type Verification struct {
	ID         string
	StreakID   string
	HistoryID  string
	Verified   bool
	Confidence float64
	ResultText string
	Verdict    Verdict
	CreatedAt  time.Time
}

type Metadata struct {
	Name    string
	Version string
}
