package discount

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGateApprovesExactPassword(t *testing.T) {
	gate := NewGate(Policy{OverridePassword: "15"}, answering("15"))
	if err := gate.Authorize(context.Background(), Challenge{RequestedPercent: dec("12"), LimitPercent: dec("5")}); err != nil {
		t.Fatalf("expected approval, got %v", err)
	}
}

func TestGateDeniesWrongPassword(t *testing.T) {
	gate := NewGate(Policy{OverridePassword: "15"}, answering("16"))
	err := gate.Authorize(context.Background(), Challenge{RequestedPercent: dec("12"), LimitPercent: dec("5")})
	if !errors.Is(err, ErrAuthorizationDenied) {
		t.Fatalf("expected denial, got %v", err)
	}
}

func TestGatePasswordIsCaseSensitive(t *testing.T) {
	gate := NewGate(Policy{OverridePassword: "Abc1"}, answering("abc1"))
	err := gate.Authorize(context.Background(), Challenge{})
	if !errors.Is(err, ErrAuthorizationDenied) {
		t.Fatalf("expected denial, got %v", err)
	}
}

func TestGateCancelledPrompt(t *testing.T) {
	gate := NewGate(Policy{OverridePassword: "15"}, cancelling())
	err := gate.Authorize(context.Background(), Challenge{})
	if !errors.Is(err, ErrAuthorizationCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestGatePromptsOncePerAuthorize(t *testing.T) {
	calls := 0
	prompter := PrompterFunc(func(ctx context.Context, message string) (*string, error) {
		calls++
		wrong := "nope"
		return &wrong, nil
	})
	gate := NewGate(Policy{OverridePassword: "15"}, prompter)

	_ = gate.Authorize(context.Background(), Challenge{})
	_ = gate.Authorize(context.Background(), Challenge{})
	if calls != 2 {
		t.Fatalf("expected one prompt per call, got %d", calls)
	}
}

func TestChallengeMessageListsLimitingItems(t *testing.T) {
	ch := Challenge{
		RequestedPercent: dec("25"),
		LimitPercent:     dec("10"),
		LimitingItems:    []string{"A", "B", "C", "D", "E", "F", "G"},
	}
	msg := ch.Message()
	if !strings.Contains(msg, "and 2 more") {
		t.Fatalf("expected truncated item list, got %q", msg)
	}
	if !strings.Contains(msg, "25.0%") || !strings.Contains(msg, "10.0%") {
		t.Fatalf("expected percentages in message, got %q", msg)
	}
}
