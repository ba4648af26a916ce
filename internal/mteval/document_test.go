package mteval

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
)

var segPattern = regexp.MustCompile(`<p><seg id="(\d+)"> (.*) </seg></p>`)

func writeCorpus(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func readSegments(t *testing.T, path string) ([]string, []string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ids, texts []string
	for _, m := range segPattern.FindAllStringSubmatch(string(data), -1) {
		ids = append(ids, m[1])
		texts = append(texts, m[2])
	}
	return ids, texts
}

func TestWriteDocumentHypothesis(t *testing.T) {
	dir := t.TempDir()
	hyp := writeCorpus(t, dir, "hyp.txt", "the cat", "", "fish & chips <b>", "last")
	out := filepath.Join(dir, "out", "hyp.xml")

	require.NoError(t, WriteDocument([]string{hyp}, out, RoleHypothesis, 0))

	ids, texts := readSegments(t, out)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	assert.Equal(t, []string{"the cat", EmptySegment, "fish   chips  b>", "last"}, texts)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(data)
	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+`<!DOCTYPE mteval SYSTEM "">`))
	assert.Contains(t, doc, `<tstset setid="unnamed" srclang="src" trglang="tgt" sysid="unnamed">`)
	assert.Contains(t, doc, `<doc docid="unnamed" genre="unnamed">`)
	assert.True(t, strings.HasSuffix(doc, "</doc>\n</tstset>\n</mteval>"))
	assert.NoFileExists(t, out+".tmp")
}

func TestWriteDocumentCRLFBlankLines(t *testing.T) {
	dir := t.TempDir()
	hyp := filepath.Join(dir, "hyp.txt")
	require.NoError(t, os.WriteFile(hyp, []byte("a b\r\n\r\nc d\r\n"), 0o644))
	out := filepath.Join(dir, "hyp.xml")

	require.NoError(t, WriteDocument([]string{hyp}, out, RoleHypothesis, 0))

	ids, texts := readSegments(t, out)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, []string{"a b", EmptySegment, "c d"}, texts)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\r")
}

func TestWriteDocumentRemovesTempOnFailure(t *testing.T) {
	dir := t.TempDir()
	hyp := writeCorpus(t, dir, "hyp.txt", "a")
	// A non-empty directory at the destination makes the final rename fail.
	out := filepath.Join(dir, "hyp.xml")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "occupied"), 0o755))

	err := WriteDocument([]string{hyp}, out, RoleHypothesis, 1)
	require.Error(t, err)
	assert.NoFileExists(t, out+".tmp")
}

func TestWriteDocumentLineCap(t *testing.T) {
	dir := t.TempDir()
	hyp := writeCorpus(t, dir, "hyp.txt", "a", "b", "c")
	out := filepath.Join(dir, "hyp.xml")

	require.NoError(t, WriteDocument([]string{hyp}, out, RoleHypothesis, 2))
	ids, _ := readSegments(t, out)
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestWriteDocumentSource(t *testing.T) {
	out := filepath.Join(t.TempDir(), "src.xml")
	require.NoError(t, WriteDocument(nil, out, RoleSource, 3))

	ids, texts := readSegments(t, out)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, []string{EmptySegment, EmptySegment, EmptySegment}, texts)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<srcset setid="unnamed" srclang="src">`)
	assert.Equal(t, 1, strings.Count(string(data), "<srcset"))

	err = WriteDocument(nil, out, RoleSource, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestWriteDocumentMultipleReferences(t *testing.T) {
	dir := t.TempDir()
	ref0 := writeCorpus(t, dir, "ref0.txt", "r0 a", "r0 b")
	ref1 := writeCorpus(t, dir, "ref1.txt", "r1 a", "r1 b")
	out := filepath.Join(dir, "ref.xml")

	require.NoError(t, WriteDocument([]string{ref0, ref1}, out, RoleReference, 2))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, `refid="ref0"`)
	assert.Contains(t, doc, `refid="ref1"`)
	assert.Equal(t, 2, strings.Count(doc, "</refset>"))

	ids, texts := readSegments(t, out)
	assert.Equal(t, []string{"1", "2", "1", "2"}, ids)
	assert.Equal(t, []string{"r0 a", "r0 b", "r1 a", "r1 b"}, texts)
}

func TestWriteDocumentOverwrites(t *testing.T) {
	dir := t.TempDir()
	long := writeCorpus(t, dir, "long.txt", "1", "2", "3", "4", "5")
	short := writeCorpus(t, dir, "short.txt", "x")
	out := filepath.Join(dir, "hyp.xml")

	require.NoError(t, WriteDocument([]string{long}, out, RoleHypothesis, 0))
	require.NoError(t, WriteDocument([]string{short}, out, RoleHypothesis, 0))

	ids, texts := readSegments(t, out)
	assert.Equal(t, []string{"1"}, ids)
	assert.Equal(t, []string{"x"}, texts)
}

func TestWriteDocumentErrors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "hyp.xml")

	err := WriteDocument([]string{filepath.Join(dir, "missing.txt")}, out, RoleHypothesis, 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = WriteDocument(nil, out, RoleReference, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = WriteDocument([]string{out}, out, Role("bogus"), 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestWriteDocumentsSegmentCountsMatch(t *testing.T) {
	dir := t.TempDir()
	hyp := writeCorpus(t, dir, "hyp.txt", "a", "b", "c")
	ref := writeCorpus(t, dir, "ref.txt", "A", "B", "C", "D")

	docs, err := WriteDocuments(context.Background(), []string{ref}, hyp, filepath.Join(dir, "temp"), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, docs.Segments)

	for _, p := range []string{docs.Source, docs.Hypothesis, docs.Reference} {
		ids, _ := readSegments(t, p)
		assert.Equal(t, []string{"1", "2", "3"}, ids, p)
	}

	_, err = WriteDocuments(context.Background(), []string{ref}, hyp, dir, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCommentSafe(t *testing.T) {
	assert.Equal(t, "a-b-c", commentSafe("a---b--c"))
}
