package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMissingFile, "required file %s was not found", "README.md")

	if err.Code != ErrCodeMissingFile {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMissingFile)
	}

	if err.Message != "required file README.md was not found" {
		t.Errorf("Message = %v, want %v", err.Message, "required file README.md was not found")
	}

	expected := "MISSING_FILE: required file README.md was not found"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeSourceUnavailable, cause, "cannot clone repository")

	if err.Code != ErrCodeSourceUnavailable {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeSourceUnavailable)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidSchema, "test"),
			code:     ErrCodeInvalidSchema,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidSchema, "test"),
			code:     ErrCodeMissingFile,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeSourceUnavailable, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeSourceUnavailable,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeNoTagsFound, "test"), ErrCodeNoTagsFound},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsTaxonomy(t *testing.T) {
	for _, code := range Taxonomy {
		if !IsTaxonomy(code) {
			t.Errorf("IsTaxonomy(%s) = false, want true", code)
		}
	}
	if IsTaxonomy(ErrCodeStorage) {
		t.Error("IsTaxonomy(STORAGE_ERROR) = true, want false")
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := append([]Code{}, Taxonomy...)
	codes = append(codes,
		ErrCodeInvalidInput,
		ErrCodeInvalidConfig,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeStorage,
		ErrCodeDelivery,
		ErrCodeInternal,
	)

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
