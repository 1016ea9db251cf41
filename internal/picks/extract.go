package picks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	pdfProcessingTimeout = 15 * time.Second
	pdfMaxPages          = "3"
)

// ExtractPDFText runs pdftotext over the first pages of the file at path.
func ExtractPDFText(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pdfProcessingTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pdftotext", "-l", pdfMaxPages, path, "-")

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("pdftotext binary not found, ensure poppler-utils is installed: %w", err)
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("pdf text extraction timed out after %s", pdfProcessingTimeout)
		}
		return "", fmt.Errorf("pdftotext failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", errors.New("pdftotext extracted empty text, file may be image-based or protected")
	}
	return text, nil
}
