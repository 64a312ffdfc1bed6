package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/iliyamo/pestiq-backend/internal/config"
	"github.com/iliyamo/pestiq-backend/internal/logger"
	"github.com/iliyamo/pestiq-backend/internal/model"
)

// Analyzer failures.  The messages are shown to clients.
var (
	ErrAnalysisFailed    = errors.New("AI processing failed")
	ErrInvalidAIResponse = errors.New("Invalid response from AI engine")
)

// Analyzer runs the external detection engine on one image:
// <python> <script> <image> <model>.  The engine prints a JSON document on
// stdout.
type Analyzer struct {
	cfg config.AnalyzerConfig
}

func NewAnalyzer(cfg config.AnalyzerConfig) *Analyzer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.TmpDir == "" {
		cfg.TmpDir = os.TempDir()
	}
	return &Analyzer{cfg: cfg}
}

type engineOutput struct {
	model.AnalysisResult
	Error string `json:"error"`
}

// Analyze copies img to a temp file, runs the engine on it and parses its
// output.  The temp file is removed on every path.
func (a *Analyzer) Analyze(ctx context.Context, img io.Reader, ext string) (*model.AnalysisResult, error) {
	if err := os.MkdirAll(a.cfg.TmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}
	f, err := os.CreateTemp(a.cfg.TmpDir, "ai-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := io.Copy(f, img); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.cfg.PythonBin, a.cfg.ScriptPath, path, a.cfg.ModelPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second // bound the wait on orphaned pipes after a kill

	log := logger.FromContext(ctx)
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Error("ai engine timed out", "timeout", a.cfg.Timeout.String())
			return nil, fmt.Errorf("%w: timeout after %s", ErrAnalysisFailed, a.cfg.Timeout)
		}
		log.Error("ai engine failed", "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	raw := bytes.TrimSpace(stdout.Bytes())
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrInvalidAIResponse)
	}
	var out engineOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Error("ai engine returned invalid json", "error", err, "raw", string(raw))
		return nil, fmt.Errorf("%w: %v", ErrInvalidAIResponse, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisFailed, out.Error)
	}
	res := out.AnalysisResult
	if res.Top5Species == nil {
		res.Top5Species = []model.SpeciesCount{}
	}
	if res.Families == nil {
		res.Families = []model.SpeciesCount{}
	}
	return &res, nil
}
