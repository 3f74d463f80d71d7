package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ddpbfs.net/internal/adapter/logging"
	"gitlab.com/ddpbfs.net/internal/config"
	"gitlab.com/ddpbfs.net/internal/domain"
)

// newShellExtractor runs shell scripts in place of the python tools
func newShellExtractor(t *testing.T, script string) (*ScriptExtractor, string) {
	t.Helper()
	dir := t.TempDir()
	tool := filepath.Join(dir, "tool.sh")
	require.NoError(t, os.WriteFile(tool, []byte(script), 0o644))
	doc := filepath.Join(dir, "locked.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("%PDF"), 0o644))

	cfg := &config.ExtractorConfig{
		PythonBin:  "/bin/sh",
		OfficeTool: tool,
		ODTTool:    tool,
		PDFTool:    tool,
	}
	return NewScriptExtractor(cfg, logging.NewNopLogger()), doc
}

func TestExtractTrimsToolOutput(t *testing.T) {
	e, doc := newShellExtractor(t, "printf '  %s:$pdf$4*4*128\\n\\n' \"$(basename \"$1\")\"\n")

	blob, err := e.Extract(context.Background(), domain.DocumentTypePDF, doc)

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationBlob("locked.pdf:$pdf$4*4*128"), blob)
}

func TestExtractEmptyOutput(t *testing.T) {
	e, doc := newShellExtractor(t, "printf '   \\n'\n")

	_, err := e.Extract(context.Background(), domain.DocumentTypeOffice, doc)
	assert.ErrorIs(t, err, ErrEmptyVerificationData)
}

func TestExtractToolFailure(t *testing.T) {
	e, doc := newShellExtractor(t, "echo 'bad file' >&2\nexit 3\n")

	_, err := e.Extract(context.Background(), domain.DocumentTypeOpenDocument, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad file")
}

func TestExtractUnsupportedType(t *testing.T) {
	e, doc := newShellExtractor(t, "echo hash\n")

	_, err := e.Extract(context.Background(), domain.DocumentType("7"), doc)
	assert.ErrorIs(t, err, ErrUnsupportedDocType)
}

func TestExtractMissingDocument(t *testing.T) {
	e, _ := newShellExtractor(t, "echo hash\n")

	_, err := e.Extract(context.Background(), domain.DocumentTypePDF, filepath.Join(t.TempDir(), "nope.docx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
