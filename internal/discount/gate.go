package discount

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PasswordPrompter collects the release password from the clerk. A nil
// return means the prompt was dismissed. Implementations sit at the
// transport layer (the entry form supplies the password typed by the clerk).
type PasswordPrompter interface {
	PromptPassword(ctx context.Context, message string) (*string, error)
}

// PrompterFunc adapts a function to PasswordPrompter.
type PrompterFunc func(ctx context.Context, message string) (*string, error)

// PromptPassword implements PasswordPrompter.
func (f PrompterFunc) PromptPassword(ctx context.Context, message string) (*string, error) {
	return f(ctx, message)
}

// Challenge describes the over-limit situation presented to the clerk.
type Challenge struct {
	RequestedPercent decimal.Decimal
	LimitPercent     decimal.Decimal
	// LimitingItems lists the capped product codes in line-aware mode.
	LimitingItems []string
}

// Message renders the prompt text shown alongside the password request.
func (ch Challenge) Message() string {
	msg := fmt.Sprintf("Discount of %s%% exceeds the configured limit of %s%%.",
		ch.RequestedPercent.StringFixed(1), ch.LimitPercent.StringFixed(1))
	if len(ch.LimitingItems) > 0 {
		summary := (&LimitExceededError{LimitingItems: ch.LimitingItems}).LimitingSummary()
		msg += " Limited by: " + summary + "."
	}
	return msg + " Enter the release password:"
}

// Gate authorizes over-limit discounts against the daily release password.
// Each Authorize call is a single prompt attempt; approval is never cached
// across computations.
type Gate struct {
	prompter PasswordPrompter
	password string
}

// NewGate builds a Gate for one policy snapshot.
func NewGate(policy Policy, prompter PasswordPrompter) *Gate {
	return &Gate{prompter: prompter, password: policy.OverridePassword}
}

// Authorize prompts once and compares the answer verbatim. A dismissed
// prompt yields ErrAuthorizationCancelled, a wrong password
// ErrAuthorizationDenied. Neither mutates any state; the caller re-prompts
// or aborts.
func (g *Gate) Authorize(ctx context.Context, ch Challenge) error {
	if g.prompter == nil {
		return ErrAuthorizationCancelled
	}
	answer, err := g.prompter.PromptPassword(ctx, ch.Message())
	if err != nil {
		return err
	}
	if answer == nil {
		return ErrAuthorizationCancelled
	}
	if *answer != g.password {
		return ErrAuthorizationDenied
	}
	return nil
}
