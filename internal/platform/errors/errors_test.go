package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("append: %w", New(CodeInvalidState, "hexagram already has six lines"))
	if !stderrors.Is(err, &Error{Code: CodeInvalidState}) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, &Error{Code: CodeNotFound}) {
		t.Fatal("did not expect a different code to match")
	}
	if !HasCode(err, CodeInvalidState) {
		t.Fatal("expected HasCode")
	}
	if CodeOf(err) != CodeInvalidState {
		t.Fatalf("CodeOf = %s", CodeOf(err))
	}
	if CodeOf(stderrors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown code for plain error")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := Wrap(CodeInterpretationUnavailable, "interpret", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "interpret: dial tcp: refused" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestCodeMappings(t *testing.T) {
	tests := []struct {
		code Code
		http int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeInvalidState, http.StatusConflict},
		{CodeSubscriptionCompleted, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeInterpretationUnavailable, http.StatusServiceUnavailable},
		{CodeCatalogIntegrity, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.http {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.http)
			}
		})
	}
}

func TestLocalizedMessage(t *testing.T) {
	err := WithMetadata(CodeInvalidArgument, "bad week", map[string]string{"Field": "week"})
	if got := err.LocalizedMessage("en-US"); got != "Please check the input: week" {
		t.Fatalf("en-US = %q", got)
	}
	if got := err.LocalizedMessage("ko-KR"); got != "입력값을 확인해주세요: week" {
		t.Fatalf("ko-KR = %q", got)
	}
}
