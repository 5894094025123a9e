package customers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreditAvailable(t *testing.T) {
	c := Customer{CreditLimit: dec("1000"), OpenBalance: dec("350")}
	assert.True(t, c.CreditAvailable().Equal(dec("650")))
}

func TestCreditExceededByFits(t *testing.T) {
	c := Customer{CreditLimit: dec("1000"), OpenBalance: dec("350")}
	assert.True(t, c.CreditExceededBy(dec("650")).IsZero())
	assert.True(t, c.CreditExceededBy(dec("100")).IsZero())
}

func TestCreditExceededByOverflow(t *testing.T) {
	c := Customer{CreditLimit: dec("1000"), OpenBalance: dec("900")}
	assert.True(t, c.CreditExceededBy(dec("250")).Equal(dec("150")))
}

func TestCreditExceededByNoLimit(t *testing.T) {
	c := Customer{}
	assert.True(t, c.CreditExceededBy(dec("10")).Equal(dec("10")))
}
