package mteval

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/resilience"
)

var bleuPattern = regexp.MustCompile(`BLEU = ([0-9]+(?:\.[0-9]+)?)`)

// CumulativeBLEU is the 4-gram cumulative BLEU reported by multi-bleu.perl,
// on its 0-100 scale, with the script's raw report.
type CumulativeBLEU struct {
	Score  float64 `json:"score"`
	Output string  `json:"output"`
}

// MultiBleu runs the Moses multi-bleu.perl script. It has no line cap: the
// whole hypothesis file is scored.
type MultiBleu struct {
	command []string
	timeout time.Duration
	workDir string
	logger  *slog.Logger
}

// NewMultiBleu creates a MultiBleu runner from the scorer configuration.
func NewMultiBleu(cfg config.ScorerConfig) *MultiBleu {
	return &MultiBleu{
		command: cfg.MultiBleuCommand,
		timeout: cfg.Timeout,
		workDir: cfg.WorkDir,
		logger:  slog.Default().With("component", "multi-bleu"),
	}
}

// Run passes the reference paths as arguments and the hypothesis on stdin.
func (m *MultiBleu) Run(ctx context.Context, refs []string, hyp string) (CumulativeBLEU, error) {
	if len(m.command) == 0 {
		return CumulativeBLEU{}, apperrors.New(apperrors.ErrInvalidInput, "multi-bleu command is empty")
	}
	if len(refs) == 0 {
		return CumulativeBLEU{}, apperrors.New(apperrors.ErrInvalidInput, "at least one reference is required")
	}
	argv := append(append([]string{}, m.command...), refs...)
	cmdLine := strings.Join(argv, " ")

	in, err := os.ReadFile(hyp)
	if err != nil {
		return CumulativeBLEU{}, fmt.Errorf("reading hypothesis: %w", err)
	}

	var stdout, stderr bytes.Buffer
	var finished atomic.Bool
	runErr := resilience.WithTimeout(ctx, m.timeout, "multi-bleu", func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = m.workDir
		cmd.Stdin = bytes.NewReader(in)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		finished.Store(true)
		return err
	})
	if runErr != nil {
		m.logger.Error("multi-bleu failed", "cmd", cmdLine, "error", runErr)
		scorerErr := &ScorerError{Command: cmdLine, Err: fmt.Errorf("%w: %w", apperrors.ErrScorerFailed, runErr)}
		if finished.Load() {
			scorerErr.Stdout = stdout.String()
			scorerErr.Stderr = stderr.String()
		}
		return CumulativeBLEU{}, scorerErr
	}

	out := stdout.String()
	match := bleuPattern.FindStringSubmatch(out)
	if match == nil {
		return CumulativeBLEU{}, &ScorerError{
			Command: cmdLine,
			Stdout:  out,
			Stderr:  stderr.String(),
			Err:     apperrors.New(apperrors.ErrScorerProtocol, "no \"BLEU = \" line in multi-bleu output"),
		}
	}
	score, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return CumulativeBLEU{}, &ScorerError{Command: cmdLine, Stdout: out, Err: apperrors.Newf(apperrors.ErrScorerProtocol, "bad BLEU value %q", match[1])}
	}
	return CumulativeBLEU{Score: score, Output: out}, nil
}
