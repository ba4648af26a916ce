// Package mteval drives the NIST mteval scoring script: it serialises
// hypothesis and reference corpora into the script's markup documents,
// launches it, and reads NIST and BLEU scores from its text report.
package mteval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
)

// Role selects which of the three scorer documents is written.
type Role string

const (
	RoleSource     Role = "src"
	RoleHypothesis Role = "hyp"
	RoleReference  Role = "ref"
)

// EmptySegment replaces blank lines; the scorer rejects empty segments.
const EmptySegment = "__empty__"

// Document file names inside the output directory.
const (
	SourceFile     = "src.xml"
	HypothesisFile = "hyp.xml"
	ReferenceFile  = "ref.xml"
)

var markupReplacer = strings.NewReplacer("&", " ", "<", " ")

// Documents holds the paths of a written document triple.
type Documents struct {
	Source     string
	Hypothesis string
	Reference  string
	Segments   int
}

// WriteDocuments writes src.xml, hyp.xml and ref.xml into dir, each
// declaring exactly nLine segments. It returns only once all three files are
// synced and closed, so a process started afterwards sees complete files.
func WriteDocuments(ctx context.Context, refs []string, hyp string, dir string, nLine int) (Documents, error) {
	if nLine <= 0 {
		return Documents{}, apperrors.Newf(apperrors.ErrInvalidInput, "segment count must be positive, got %d", nLine)
	}
	docs := Documents{
		Source:     filepath.Join(dir, SourceFile),
		Hypothesis: filepath.Join(dir, HypothesisFile),
		Reference:  filepath.Join(dir, ReferenceFile),
		Segments:   nLine,
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Documents{}, fmt.Errorf("creating output directory: %w", err)
	}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return WriteDocument(nil, docs.Source, RoleSource, nLine) })
	g.Go(func() error { return WriteDocument([]string{hyp}, docs.Hypothesis, RoleHypothesis, nLine) })
	g.Go(func() error { return WriteDocument(refs, docs.Reference, RoleReference, nLine) })
	if err := g.Wait(); err != nil {
		return Documents{}, err
	}
	return docs, nil
}

// WriteDocument serialises the corpora at paths into an mteval document at
// out. Each input path becomes one set element; each of its first nLine lines
// becomes a segment numbered from 1. The source role reads no input and emits
// nLine placeholder segments. An existing file at out is replaced atomically.
func WriteDocument(paths []string, out string, role Role, nLine int) error {
	var sets [][]string
	switch role {
	case RoleSource:
		if nLine <= 0 {
			return apperrors.New(apperrors.ErrInvalidInput, "source document needs a positive segment count")
		}
		sets = [][]string{make([]string, nLine)}
		paths = []string{""}
	case RoleHypothesis, RoleReference:
		if len(paths) == 0 {
			return apperrors.Newf(apperrors.ErrInvalidInput, "%s document needs at least one input", role)
		}
		for _, p := range paths {
			lines, err := corpus.ReadLines(p, nLine)
			if err != nil {
				return fmt.Errorf("reading %s input: %w", role, err)
			}
			sets = append(sets, lines)
		}
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, "unknown document role %q", role)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<!DOCTYPE mteval SYSTEM "">` + "\n")
	b.WriteString("<!-- generated by nlg-metrics -->\n")
	fmt.Fprintf(&b, "<!-- from: %s -->\n", commentSafe(fmt.Sprintf("%q", paths)))
	b.WriteString("<!-- as inputs for mteval-v14c.pl -->\n")
	b.WriteString("<mteval>")
	for i, lines := range sets {
		b.WriteString("\n" + setOpen(role, i))
		b.WriteString("\n" + `<doc docid="unnamed" genre="unnamed">`)
		for j, line := range lines {
			fmt.Fprintf(&b, "\n<p><seg id=\"%d\"> %s </seg></p>", j+1, segmentText(line))
		}
		b.WriteString("\n</doc>")
		b.WriteString("\n" + setClose(role))
	}
	b.WriteString("\n</mteval>")

	return writeFileSync(out, []byte(b.String()))
}

func segmentText(line string) string {
	line = markupReplacer.Replace(line)
	if line == "" {
		return EmptySegment
	}
	return line
}

func setOpen(role Role, i int) string {
	switch role {
	case RoleSource:
		return `<srcset setid="unnamed" srclang="src">`
	case RoleHypothesis:
		return `<tstset setid="unnamed" srclang="src" trglang="tgt" sysid="unnamed">`
	default:
		return fmt.Sprintf(`<refset setid="unnamed" srclang="src" trglang="tgt" refid="ref%d">`, i)
	}
}

func setClose(role Role) string {
	switch role {
	case RoleSource:
		return "</srcset>"
	case RoleHypothesis:
		return "</tstset>"
	default:
		return "</refset>"
	}
}

// commentSafe keeps arbitrary text from terminating an XML comment.
func commentSafe(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}

// writeFileSync writes data to a temp file next to path, fsyncs, closes and
// renames it over path. The temp file is removed if any step fails.
func writeFileSync(path string, data []byte) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp document: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
		}
	}()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing document %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing document %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing document %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming document %s: %w", path, err)
	}
	return nil
}
