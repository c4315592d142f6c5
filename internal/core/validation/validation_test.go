package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartsync/internal/core/domain"
)

func TestValidPhone(t *testing.T) {
	valid := []string{
		"+1 (555) 123-4567",
		"555-123-4567",
		"5551234567",
		"+44 20 7946 0958",
	}
	for _, phone := range valid {
		assert.True(t, ValidPhone(phone), "expected %q to be valid", phone)
	}

	invalid := []string{
		"",
		"   ",
		"555",
		"call me maybe",
		"555-123-4567 ext 12345678",
	}
	for _, phone := range invalid {
		assert.False(t, ValidPhone(phone), "expected %q to be invalid", phone)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ada@example.com"))
	assert.True(t, ValidEmail("a.b+c@sub.example.co"))

	assert.False(t, ValidEmail(""))
	assert.False(t, ValidEmail("not-an-email"))
	assert.False(t, ValidEmail("missing@tld"))
	assert.False(t, ValidEmail("two words@example.com"))
}

func TestValidateDeliveryInfo_CollectsEveryViolation(t *testing.T) {
	errs, ok := ValidateDeliveryInfo(domain.DeliveryInfo{
		Name:    "  ",
		Phone:   "bad",
		Email:   "nope",
		Address: "",
	})

	assert.False(t, ok)
	require.Len(t, errs, 4)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "phone")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "address")
}

func TestValidateDeliveryInfo_Valid(t *testing.T) {
	errs, ok := ValidateDeliveryInfo(domain.DeliveryInfo{
		Name:    "Ada Lovelace",
		Phone:   "+1 (555) 123-4567",
		Email:   "ada@example.com",
		Address: "12 Analytical Way",
	})
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestOrderViolations_ReportsAllRules(t *testing.T) {
	violations := OrderViolations(domain.Order{})
	assert.Len(t, violations, 5)
}

func TestOrderViolations_ValidOrder(t *testing.T) {
	order := domain.BuildOrder(
		[]domain.CartEntry{{ID: "a", Name: "a", Price: 2.99, Quantity: 1}},
		domain.DeliveryInfo{Name: "Ada", Phone: "+1 555 0100", Address: "12 Analytical Way"},
		domain.CustomerInfo{},
		domain.Pricing{},
		time.Now(),
	)
	assert.Empty(t, OrderViolations(order))
}
