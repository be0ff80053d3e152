package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"MedTracker/internal/domain"
)

type fakeFileStore struct {
	saveErr error
	saved   []string
	removed []string
}

func (s *fakeFileStore) Save(_ context.Context, userID int64, originalName string, _ []byte) (domain.StoredFile, error) {
	if s.saveErr != nil {
		return domain.StoredFile{}, s.saveErr
	}
	path := fmt.Sprintf("/uploads/%d_%s", userID, originalName)
	s.saved = append(s.saved, path)
	return domain.StoredFile{Path: path, Size: 128}, nil
}

func (s *fakeFileStore) Remove(_ context.Context, path string) error {
	s.removed = append(s.removed, path)
	return nil
}

type fakeClassifier struct {
	analysis domain.MedicationAnalysis
	err      error
	calls    []string
}

func (c *fakeClassifier) AnalyzePrescription(context.Context, []byte, string) (domain.MedicationAnalysis, error) {
	c.calls = append(c.calls, "prescription")
	return c.analysis, c.err
}

func (c *fakeClassifier) AnalyzePackage(context.Context, []byte, string) (domain.MedicationAnalysis, error) {
	c.calls = append(c.calls, "package")
	return c.analysis, c.err
}

func (c *fakeClassifier) AnalyzeText(context.Context, domain.MedicationFields) (domain.MedicationAnalysis, error) {
	c.calls = append(c.calls, "text")
	return c.analysis, c.err
}

func (c *fakeClassifier) ExtractText(context.Context, []byte, string) (string, error) {
	return "", c.err
}

type fakeMediaStore struct {
	files []domain.MediaFile
}

func (s *fakeMediaStore) CreateMediaFile(_ context.Context, file *domain.MediaFile) error {
	file.ID = int64(len(s.files) + 1)
	s.files = append(s.files, *file)
	return nil
}

func TestAnalyzeUploadStoresResult(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{analysis: domain.MedicationAnalysis{
		Fields:      domain.MedicationFields{Name: "Metformin", Dosage: "500mg"},
		Criticality: domain.CriticalityHigh,
		Confidence:  "medium",
	}}
	files := &fakeFileStore{}
	mediaStore := &fakeMediaStore{}
	a := NewAnalyzer(files, classifier, mediaStore, testLogger())

	res, err := a.AnalyzeUpload(context.Background(), 1, UploadPrescription, "rx.png", "image/png", []byte("img"))
	if err != nil {
		t.Fatalf("AnalyzeUpload: %v", err)
	}

	if res.Analysis.Fields.Name != "Metformin" {
		t.Errorf("analysis name = %q", res.Analysis.Fields.Name)
	}
	if len(mediaStore.files) != 1 {
		t.Fatalf("media records = %d, want 1", len(mediaStore.files))
	}
	rec := mediaStore.files[0]
	if !rec.IsProcessed {
		t.Error("record not flagged processed")
	}
	var decoded domain.MedicationAnalysis
	if err := json.Unmarshal(rec.AnalysisResult, &decoded); err != nil {
		t.Fatalf("analysis result not valid JSON: %v", err)
	}
	if decoded.Criticality != domain.CriticalityHigh {
		t.Errorf("stored criticality = %q, want high", decoded.Criticality)
	}
	if len(classifier.calls) != 1 || classifier.calls[0] != "prescription" {
		t.Errorf("classifier calls = %v", classifier.calls)
	}
}

func TestAnalyzeUploadPackageKind(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{}
	a := NewAnalyzer(&fakeFileStore{}, classifier, &fakeMediaStore{}, testLogger())

	if _, err := a.AnalyzeUpload(context.Background(), 1, UploadPackage, "box.jpg", "image/jpeg", []byte("img")); err != nil {
		t.Fatalf("AnalyzeUpload: %v", err)
	}
	if len(classifier.calls) != 1 || classifier.calls[0] != "package" {
		t.Errorf("classifier calls = %v, want package prompt", classifier.calls)
	}
}

func TestAnalyzeUploadInvalidImage(t *testing.T) {
	t.Parallel()

	files := &fakeFileStore{saveErr: fmt.Errorf("validate: %w", domain.ErrInvalidImage)}
	a := NewAnalyzer(files, &fakeClassifier{}, &fakeMediaStore{}, testLogger())

	_, err := a.AnalyzeUpload(context.Background(), 1, UploadPrescription, "bad.png", "image/png", []byte("junk"))
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("err = %v, want *AnalysisError", err)
	}
	if analysisErr.Code != ErrCodeInvalidImage {
		t.Errorf("code = %q, want %q", analysisErr.Code, ErrCodeInvalidImage)
	}
}

func TestAnalyzeUploadClassifierFailureKeepsFile(t *testing.T) {
	t.Parallel()

	files := &fakeFileStore{}
	classifier := &fakeClassifier{err: errors.New("model unavailable")}
	mediaStore := &fakeMediaStore{}
	a := NewAnalyzer(files, classifier, mediaStore, testLogger())

	_, err := a.AnalyzeUpload(context.Background(), 1, UploadPrescription, "rx.png", "image/png", []byte("img"))
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("err = %v, want *AnalysisError", err)
	}
	if analysisErr.Code != ErrCodeAnalysisFailed {
		t.Errorf("code = %q, want %q", analysisErr.Code, ErrCodeAnalysisFailed)
	}
	if len(files.removed) != 0 {
		t.Error("upload must stay on disk when only analysis failed")
	}
	if len(mediaStore.files) != 0 {
		t.Error("no media record should be created on failure")
	}
}

func TestAnalyzeText(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{analysis: domain.MedicationAnalysis{Criticality: domain.CriticalityLow}}
	a := NewAnalyzer(&fakeFileStore{}, classifier, &fakeMediaStore{}, testLogger())

	res, err := a.AnalyzeText(context.Background(), domain.MedicationFields{Name: "Aspirin"})
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if res.Criticality != domain.CriticalityLow {
		t.Errorf("criticality = %q", res.Criticality)
	}
}
