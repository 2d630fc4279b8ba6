package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var pdfLiteralRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)

// ExtractPDFText pulls the text out of a PDF document. pdfcpu decodes the
// page content streams; the literal strings of the text-showing operators
// are then collected in page order.
func ExtractPDFText(data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "kbrag-pdf-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	inFile := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(inFile, data, 0o644); err != nil {
		return "", err
	}

	conf := api.LoadConfiguration()
	if err := api.ValidateFile(inFile, conf); err != nil {
		return "", fmt.Errorf("invalid pdf: %w", err)
	}

	contentDir := filepath.Join(tmpDir, "content")
	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return "", err
	}
	if err := api.ExtractContentFile(inFile, contentDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract pdf content: %w", err)
	}

	entries, err := os.ReadDir(contentDir)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(contentDir, name))
		if err != nil {
			return "", err
		}
		page := literalStrings(string(content))
		if page == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(page)
	}
	return b.String(), nil
}

// literalStrings collects the parenthesized string operands of a decoded
// content stream and unescapes them.
func literalStrings(content string) string {
	matches := pdfLiteralRe.FindAllStringSubmatch(content, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		s := unescapePDFString(m[1])
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func unescapePDFString(s string) string {
	r := strings.NewReplacer(
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
		`\n`, "\n",
		`\r`, "\r",
		`\t`, "\t",
	)
	return r.Replace(s)
}
