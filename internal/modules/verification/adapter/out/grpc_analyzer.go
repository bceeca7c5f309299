package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	verifierrpc "streakd/internal/modules/verification/adapter/out/rpc"
	"streakd/internal/modules/verification/domain"
	verificationout "streakd/internal/modules/verification/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// GRPCAnalyzer launches the verifier plugin per call. Analyze honours the
// caller's deadline; the other calls fall back to a short default.
type GRPCAnalyzer struct{}

func NewGRPCAnalyzer() verificationout.Analyzer {
	return &GRPCAnalyzer{}
}

func (h *GRPCAnalyzer) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	_, err := h.GetMetadata(ctx, manifest)
	return err
}

func (h *GRPCAnalyzer) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version}, nil
}

func (h *GRPCAnalyzer) Analyze(ctx context.Context, manifest domain.Manifest, req domain.Request) (string, error) {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return "", err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	response, err := client.Analyze(callCtx, &verifierrpc.AnalyzeRequest{
		StreakID:    req.StreakID,
		StreakTitle: req.StreakTitle,
		HistoryID:   req.HistoryID,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", domain.ErrAnalyzerTimeout, manifest.Name)
		}
		return "", fmt.Errorf("analyze: %w", err)
	}
	return response.Text, nil
}

func (h *GRPCAnalyzer) connect(manifest domain.Manifest) (verifierrpc.VerifierClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  verifierrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          verifierrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start verifier plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(verifierrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense verifier plugin: %w", err)
	}
	typed, ok := raw.(verifierrpc.VerifierClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("verifier rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
