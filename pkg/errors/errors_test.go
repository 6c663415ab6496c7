package errors

import (
	"fmt"
	"io"
	"testing"
)

func TestIsFollowsWrapChain(t *testing.T) {
	base := New(ErrCodeInvalidFormat, "bad json at offset %d", 12)
	wrapped := fmt.Errorf("decode table.json: %w", base)

	if !Is(wrapped, ErrCodeInvalidFormat) {
		t.Fatalf("expected %v to carry %s", wrapped, ErrCodeInvalidFormat)
	}
	if Is(wrapped, ErrCodeInvalidInput) {
		t.Fatalf("did not expect %s", ErrCodeInvalidInput)
	}
	if got := GetCode(wrapped); got != ErrCodeInvalidFormat {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeInvalidFormat)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrCodeFileNotFound, io.EOF, "open %s", "chair.json")
	if err.Unwrap() != io.EOF {
		t.Fatalf("cause lost: %v", err.Unwrap())
	}
	want := "FILE_NOT_FOUND: open chair.json: EOF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeRejected, "not furniture"), "not furniture"},
		{"plain", fmt.Errorf("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
