package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewAndWrap(t *testing.T) {
	err := New(CategoryParse, CodeInvalidFormat, "bad row")
	if err.Category != CategoryParse || err.Code != CodeInvalidFormat {
		t.Errorf("unexpected category/code: %s/%s", err.Category, err.Code)
	}
	if err.Error() != "bad row" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	cause := stderrors.New("disk gone")
	wrapped := Wrap(cause, CategoryPersistence, CodeStoreUnavailable, "load failed")
	if wrapped.Unwrap() != cause {
		t.Error("expected cause preserved")
	}
	if Wrap(nil, CategoryPersistence, CodeStoreUnavailable, "x") != nil {
		t.Error("expected nil for nil cause")
	}
}

func TestErrorIncludesSuggestion(t *testing.T) {
	err := New(CategoryValidation, CodeMissingField, "field empty").
		WithSuggestion("provide a value")
	if !strings.Contains(err.Error(), "provide a value") {
		t.Errorf("expected suggestion in message, got %q", err.Error())
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryPersistence, 5},
		{CategoryReconciliation, 5},
		{ErrorCategory("other"), 1},
	}
	for _, tt := range tests {
		err := New(tt.category, CodeProcessingError, "x")
		if got := err.GetExitCode(); got != tt.want {
			t.Errorf("%s: expected exit code %d, got %d", tt.category, tt.want, got)
		}
	}
}

func TestMissingColumnErrorIsConfiguration(t *testing.T) {
	err := MissingColumnError("deals.csv", "Processing rule")
	if !IsConfiguration(err) {
		t.Error("expected missing column to be a configuration error")
	}
	if err.Code != CodeMissingColumn {
		t.Errorf("unexpected code: %s", err.Code)
	}
	if !strings.Contains(err.Message, "Processing rule") || !strings.Contains(err.Message, "deals.csv") {
		t.Errorf("expected column and file in message, got %q", err.Message)
	}
	if err.Context["column"] != "Processing rule" {
		t.Errorf("expected column context, got %v", err.Context)
	}

	// Wrapping must not hide the category.
	wrapped := fmt.Errorf("ingest: %w", err)
	if !IsConfiguration(wrapped) {
		t.Error("expected configuration category through the chain")
	}
}

func TestPersistenceErrorMessages(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{CodeTransactionFailed, "store transaction failed during bulk insert"},
		{CodeRecordNotFound, "record not found during bulk insert"},
		{CodeStoreUnavailable, "store unavailable during bulk insert"},
	}
	for _, tt := range tests {
		err := PersistenceError(tt.code, "bulk insert", nil)
		if err.Message != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.code, tt.want, err.Message)
		}
		if err.Context["operation"] != "bulk insert" {
			t.Errorf("%s: expected operation context, got %v", tt.code, err.Context)
		}
	}
}

func TestAsReconcilerError(t *testing.T) {
	if _, ok := AsReconcilerError(stderrors.New("plain")); ok {
		t.Error("expected plain error not to convert")
	}
	re, ok := AsReconcilerError(FileError(CodeFileNotFound, "x.csv", nil))
	if !ok || re.Category != CategoryFile {
		t.Errorf("expected file category, got %v", re)
	}
}

func TestWrapIfNeeded(t *testing.T) {
	original := New(CategoryValidation, CodeInvalidDate, "bad date")
	if WrapIfNeeded(original, CategoryParse, CodeInvalidFormat, "x") != original {
		t.Error("expected existing error returned unchanged")
	}
	wrapped := WrapIfNeeded(stderrors.New("plain"), CategoryParse, CodeInvalidFormat, "parse failed")
	if wrapped.Category != CategoryParse {
		t.Errorf("expected parse category, got %s", wrapped.Category)
	}
	if WrapIfNeeded(nil, CategoryParse, CodeInvalidFormat, "x") != nil {
		t.Error("expected nil for nil error")
	}
}

func TestErrorSummary(t *testing.T) {
	summary := NewErrorSummary(nil)
	if summary.Error() != "no errors" {
		t.Errorf("unexpected empty summary: %q", summary.Error())
	}

	summary = NewErrorSummary([]*ReconcilerError{
		New(CategoryParse, CodeInvalidFormat, "one"),
		New(CategoryParse, CodeInvalidData, "two"),
		New(CategoryFile, CodeFileNotFound, "three"),
	})
	if summary.Total != 3 {
		t.Errorf("expected 3 errors, got %d", summary.Total)
	}
	if !summary.HasCategory(CategoryParse) || summary.HasCategory(CategoryPersistence) {
		t.Error("unexpected category presence")
	}
	if !strings.Contains(summary.Error(), "3 errors occurred") {
		t.Errorf("unexpected summary message: %q", summary.Error())
	}
}
