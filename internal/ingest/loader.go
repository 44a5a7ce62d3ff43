package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/terraincognita07/flux/internal/models"
)

const FormatAuto = "auto"

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUnsupportedFormat   = errors.New("unsupported input format")
	ErrMalformedExport     = errors.New("malformed export")
	ErrMissingExportedAt   = errors.New("app export is missing exported_at")
)

var exportedAtAliases = []string{"exported_at", "exportedAt"}

// Document is the normalized content of one export file.
type Document struct {
	Format     string
	ExportedAt *time.Time
	Cycles     []models.Cycle
	Logs       []models.DailyLog
}

func CheckFileName(name string) error {
	extension := filepath.Ext(name)
	if extension != ".json" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, extension)
	}
	return nil
}

func LoadFile(path string) (map[string]any, error) {
	if err := CheckFileName(path); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return Decode(bytes.NewReader(content))
}

// Decode reads a JSON object keeping numbers exact, so epoch timestamps
// survive without float rounding.
func Decode(reader io.Reader) (map[string]any, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after top-level value", ErrMalformedExport)
	}
	object, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedExport)
	}
	return object, nil
}

func DetectFormat(raw map[string]any) string {
	for _, alias := range exportedAtAliases {
		if _, ok := raw[alias]; ok {
			return models.FormatApp
		}
	}
	return models.FormatProvider
}

// ParseAppExport reads the canonical re-import schema.
func ParseAppExport(raw map[string]any) (models.AppExport, error) {
	rawExportedAt := firstValue(raw, exportedAtAliases...)
	if rawExportedAt == nil {
		return models.AppExport{}, ErrMissingExportedAt
	}
	exportedAt, ok := resolveTimestamp(rawExportedAt)
	if !ok {
		return models.AppExport{}, fmt.Errorf("%w: invalid exported_at %v", ErrMalformedExport, rawExportedAt)
	}

	export := models.AppExport{
		ExportedAt: exportedAt,
		Cycles:     []models.Cycle{},
		Logs:       []models.DailyLog{},
	}
	if items, ok := raw["cycles"].([]any); ok {
		export.Cycles = models.BackfillCycles(extractCycles(items))
	}
	if items, ok := raw["logs"].([]any); ok {
		export.Logs = extractDailyLogs(items)
	}
	return export, nil
}

func (normalizer *Normalizer) Parse(raw map[string]any, format string) (Document, error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(raw)
	}

	switch format {
	case models.FormatApp:
		export, err := ParseAppExport(raw)
		if err != nil {
			return Document{}, err
		}
		return Document{
			Format:     models.FormatApp,
			ExportedAt: &export.ExportedAt,
			Cycles:     export.Cycles,
			Logs:       export.Logs,
		}, nil
	case models.FormatProvider:
		cycles, logs := normalizer.Normalize(raw)
		return Document{Format: models.FormatProvider, Cycles: cycles, Logs: logs}, nil
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func (normalizer *Normalizer) ParseFile(path string, format string) (Document, error) {
	raw, err := LoadFile(path)
	if err != nil {
		return Document{}, err
	}
	return normalizer.Parse(raw, format)
}

func resolveTimestamp(value any) (time.Time, bool) {
	if text, ok := value.(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(text)); err == nil {
			return parsed.UTC(), true
		}
	}
	return ResolveDate(value)
}
