package mteval

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/resilience"
)

// ScorerError reports a failed scorer run together with everything needed to
// diagnose it by hand. Stdout and Stderr are empty when the process was still
// running at the deadline, since its output buffers cannot be read safely.
type ScorerError struct {
	Command string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *ScorerError) Error() string {
	return fmt.Sprintf("scorer %q: %v", e.Command, e.Err)
}

func (e *ScorerError) Unwrap() error {
	return e.Err
}

// Diagnostics renders the command line and captured streams.
func (e *ScorerError) Diagnostics() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cmd = %s\n", e.Command)
	fmt.Fprintf(&b, "error = %v\n", e.Err)
	fmt.Fprintf(&b, "--- stdout ---\n%s\n", e.Stdout)
	fmt.Fprintf(&b, "--- stderr ---\n%s\n", e.Stderr)
	return b.String()
}

// ResolveLineCap returns the number of segments to score: nLine when it is
// positive and no larger than the hypothesis, otherwise the hypothesis line
// count. Every reference must cover the resolved count.
func ResolveLineCap(refs []string, hyp string, nLine int) (int, error) {
	if len(refs) == 0 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, "at least one reference is required")
	}
	hypLines, err := corpus.CountLines(hyp)
	if err != nil {
		return 0, err
	}
	if hypLines == 0 {
		return 0, fmt.Errorf("hypothesis %s: %w", hyp, apperrors.ErrEmptyCorpus)
	}
	if nLine <= 0 || nLine > hypLines {
		nLine = hypLines
	}
	for _, ref := range refs {
		refLines, err := corpus.CountLines(ref)
		if err != nil {
			return 0, err
		}
		if refLines < nLine {
			return 0, apperrors.Newf(apperrors.ErrMisaligned,
				"reference %s has %d lines, need %d", ref, refLines, nLine)
		}
	}
	return nLine, nil
}

// Scorer runs mteval-v14c.pl over a hypothesis and its references.
type Scorer struct {
	command []string
	timeout time.Duration
	workDir string
	logger  *slog.Logger
}

// NewScorer creates a Scorer from the scorer configuration.
func NewScorer(cfg config.ScorerConfig) *Scorer {
	return &Scorer{
		command: cfg.Command,
		timeout: cfg.Timeout,
		workDir: cfg.WorkDir,
		logger:  slog.Default().With("component", "mteval-scorer"),
	}
}

// Score writes the scorer documents for the first nLine lines into outDir,
// runs the scorer and parses cumulative NIST and BLEU from its report.
// Failures to start, time out or parse are returned as *ScorerError.
func (s *Scorer) Score(ctx context.Context, refs []string, hyp string, outDir string, nLine int) (Scores, error) {
	nLine, err := ResolveLineCap(refs, hyp, nLine)
	if err != nil {
		return Scores{}, err
	}
	docs, err := WriteDocuments(ctx, refs, hyp, outDir, nLine)
	if err != nil {
		return Scores{}, fmt.Errorf("writing scorer documents: %w", err)
	}
	return s.ScoreDocuments(ctx, docs)
}

// ScoreDocuments runs the scorer on an already written document triple.
func (s *Scorer) ScoreDocuments(ctx context.Context, docs Documents) (Scores, error) {
	if len(s.command) == 0 {
		return Scores{}, apperrors.New(apperrors.ErrInvalidInput, "scorer command is empty")
	}
	args, err := documentArgs(docs)
	if err != nil {
		return Scores{}, err
	}
	argv := append(append([]string{}, s.command...), args...)
	cmdLine := strings.Join(argv, " ")

	stdout, stderr, runErr := s.run(ctx, argv)
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			s.logger.Error("scorer did not run", "cmd", cmdLine, "error", runErr)
			return Scores{}, &ScorerError{Command: cmdLine, Stdout: stdout, Stderr: stderr, Err: runErr}
		}
		s.logger.Warn("scorer exited with non-zero status", "cmd", cmdLine, "exit_code", exitErr.ExitCode())
	}

	scores, err := ParseOutput(stdout)
	if err != nil {
		if runErr != nil {
			err = fmt.Errorf("%w (%w: %v)", err, apperrors.ErrScorerFailed, runErr)
		}
		s.logger.Error("scorer returned unexpected output", "cmd", cmdLine, "error", err)
		return Scores{}, &ScorerError{Command: cmdLine, Stdout: stdout, Stderr: stderr, Err: err}
	}
	s.logger.Debug("scorer finished", "segments", docs.Segments, "nist4", scores.NIST[3], "bleu4", scores.BLEU[3])
	return scores, nil
}

func (s *Scorer) run(ctx context.Context, argv []string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	var finished atomic.Bool
	start := time.Now()
	err := resilience.WithTimeout(ctx, s.timeout, "mteval", func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = s.workDir
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		finished.Store(true)
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return fmt.Errorf("mteval: %w: %w (limit: %v)", apperrors.ErrTimeout, ctxErr, s.timeout)
			}
			return ctxErr
		}
		return err
	})
	s.logger.Debug("scorer process returned", "duration", time.Since(start), "error", err)
	if err != nil && !finished.Load() {
		// The process goroutine may still be writing; its buffers are not
		// safe to read.
		return "", "", err
	}
	return stdout.String(), stderr.String(), err
}

func documentArgs(docs Documents) ([]string, error) {
	paths := []string{docs.Source, docs.Hypothesis, docs.Reference}
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving document path %s: %w", p, err)
		}
		paths[i] = abs
	}
	return []string{"-s", paths[0], "-t", paths[1], "-r", paths[2]}, nil
}
