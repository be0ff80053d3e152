package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

// Analysis error codes surfaced to the caller.
const (
	ErrCodeInvalidImage   = "invalid_image"
	ErrCodeAnalysisFailed = "analysis_failed"
)

// AnalysisError is the structured failure of an upload analysis.
type AnalysisError struct {
	Code   string
	Detail string
}

func (e *AnalysisError) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// UploadKind selects which classifier prompt the upload goes through.
type UploadKind string

const (
	UploadPrescription UploadKind = "prescription"
	UploadPackage      UploadKind = "package"
)

// AnalysisResult is returned to the caller alongside the stored file record.
type AnalysisResult struct {
	Analysis domain.MedicationAnalysis
	File     domain.MediaFile
}

// Analyzer runs uploads through the AI classifier and records the outcome.
// Corrupt files are removed; files whose analysis failed are kept for
// inspection.
type Analyzer struct {
	files      ports.FileStore
	classifier ports.Classifier
	mediaStore ports.MediaStore
	logger     *slog.Logger
}

// NewAnalyzer wires the upload analysis use case.
func NewAnalyzer(files ports.FileStore, classifier ports.Classifier, mediaStore ports.MediaStore, logger *slog.Logger) *Analyzer {
	return &Analyzer{files: files, classifier: classifier, mediaStore: mediaStore, logger: logger}
}

// AnalyzeUpload validates, stores and classifies one uploaded image.
func (a *Analyzer) AnalyzeUpload(ctx context.Context, userID int64, kind UploadKind, originalName, mimeType string, data []byte) (AnalysisResult, error) {
	stored, err := a.files.Save(ctx, userID, originalName, data)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidImage) {
			return AnalysisResult{}, &AnalysisError{Code: ErrCodeInvalidImage, Detail: err.Error()}
		}
		return AnalysisResult{}, fmt.Errorf("store upload: %w", err)
	}

	var analysis domain.MedicationAnalysis
	switch kind {
	case UploadPackage:
		analysis, err = a.classifier.AnalyzePackage(ctx, data, mimeType)
	default:
		analysis, err = a.classifier.AnalyzePrescription(ctx, data, mimeType)
	}
	if err != nil {
		// The upload stays on disk so a human can look at what the model
		// could not parse.
		a.logger.Warn("upload analysis failed", "user_id", userID, "path", stored.Path, "error", err)
		return AnalysisResult{}, &AnalysisError{Code: ErrCodeAnalysisFailed, Detail: err.Error()}
	}

	raw, err := json.Marshal(analysis)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("encode analysis: %w", err)
	}

	file := domain.MediaFile{
		UserID:         userID,
		OriginalName:   originalName,
		FilePath:       stored.Path,
		FileType:       "image",
		MimeType:       mimeType,
		FileSize:       stored.Size,
		IsProcessed:    true,
		AnalysisResult: raw,
	}
	if err := a.mediaStore.CreateMediaFile(ctx, &file); err != nil {
		return AnalysisResult{}, fmt.Errorf("record media file: %w", err)
	}

	return AnalysisResult{Analysis: analysis, File: file}, nil
}

// AnalyzeText classifies a medication from free-text fields, no upload
// involved.
func (a *Analyzer) AnalyzeText(ctx context.Context, fields domain.MedicationFields) (domain.MedicationAnalysis, error) {
	analysis, err := a.classifier.AnalyzeText(ctx, fields)
	if err != nil {
		return domain.MedicationAnalysis{}, &AnalysisError{Code: ErrCodeAnalysisFailed, Detail: err.Error()}
	}
	return analysis, nil
}
