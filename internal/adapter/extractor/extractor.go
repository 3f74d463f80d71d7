package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gitlab.com/ddpbfs.net/internal/config"
	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/ports/secondary"
	"gitlab.com/ddpbfs.net/internal/domain"
)

var (
	ErrUnsupportedDocType    = errors.New("unsupported document type")
	ErrEmptyVerificationData = errors.New("no verification data extracted")
)

var _ secondary.VerificationExtractor = (*ScriptExtractor)(nil)

// ScriptExtractor runs the per-format extraction script under an interpreter and
// uses its trimmed stdout as the verification blob
type ScriptExtractor struct {
	PythonBin string
	Tools     map[domain.DocumentType]string
	logger    primary.Logger
}

func NewScriptExtractor(cfg *config.ExtractorConfig, logger primary.Logger) *ScriptExtractor {
	return &ScriptExtractor{
		PythonBin: cfg.PythonBin,
		Tools: map[domain.DocumentType]string{
			domain.DocumentTypeOffice:       cfg.OfficeTool,
			domain.DocumentTypeOpenDocument: cfg.ODTTool,
			domain.DocumentTypePDF:          cfg.PDFTool,
		},
		logger: logger,
	}
}

func (e *ScriptExtractor) Extract(ctx context.Context, docType domain.DocumentType, path string) (domain.VerificationBlob, error) {
	tool, ok := e.Tools[docType]
	if !ok || tool == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDocType, string(docType))
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}

	e.logger.Info("Extracting verification data", "docType", docType.String(), "file", path)

	cmd := exec.CommandContext(ctx, e.PythonBin, tool, path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %v: %s", tool, err, strings.TrimSpace(stderr.String()))
	}

	blob := strings.TrimSpace(stdout.String())
	if blob == "" {
		return "", fmt.Errorf("%w from %s", ErrEmptyVerificationData, path)
	}
	e.logger.Debug("Verification data extracted", "bytes", len(blob))
	return domain.VerificationBlob(blob), nil
}
