package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"

	verifierrpc "streakd/internal/modules/verification/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

type verdict struct {
	Authentic          bool    `json:"authentic"`
	MatchesDescription bool    `json:"matchesDescription"`
	Confidence         float64 `json:"confidence"`
	Verified           bool    `json:"verified"`
	Reasoning          string  `json:"reasoning"`
}

type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *verifierrpc.Empty) (*verifierrpc.Metadata, error) {
	return &verifierrpc.Metadata{Name: "verifier", Version: "1.0.0"}, nil
}

// Analyze scores the description against the streak title. It never looks at
// the photo itself, only whether one was supplied.
func (s *server) Analyze(_ context.Context, in *verifierrpc.AnalyzeRequest) (*verifierrpc.AnalyzeResponse, error) {
	words := tokens(in.Description)
	titleWords := tokens(in.StreakTitle)

	authentic := len(words) >= 3
	matches := len(titleWords) == 0 || overlaps(words, titleWords)

	confidence := 0.3
	reasons := []string{}
	if authentic {
		confidence += 0.3
		reasons = append(reasons, fmt.Sprintf("description has %d words", len(words)))
	} else {
		reasons = append(reasons, "description is too short to judge")
	}
	if matches {
		confidence += 0.3
		reasons = append(reasons, "description mentions the streak topic")
	} else {
		reasons = append(reasons, "description does not mention the streak topic")
	}
	if strings.TrimSpace(in.PhotoURL) != "" {
		confidence += 0.1
		reasons = append(reasons, "photo attached")
	}
	confidence = math.Min(1, math.Round(confidence*100)/100)

	raw, err := json.Marshal(verdict{
		Authentic:          authentic,
		MatchesDescription: matches,
		Confidence:         confidence,
		Verified:           authentic && matches && confidence >= 0.6,
		Reasoning:          strings.Join(reasons, "; "),
	})
	if err != nil {
		return nil, err
	}
	return &verifierrpc.AnalyzeResponse{Text: string(raw)}, nil
}

func tokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, field := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[field] = struct{}{}
	}
	return out
}

func overlaps(words, title map[string]struct{}) bool {
	for word := range title {
		if len(word) < 3 {
			continue
		}
		if _, ok := words[word]; ok {
			return true
		}
	}
	return false
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: verifierrpc.HandshakeConfig,
		Plugins:         verifierrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
