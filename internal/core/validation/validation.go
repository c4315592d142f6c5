// Package validation holds the pure field- and aggregate-level checks used
// by the checkout pipeline and by UI callers. No IO.
package validation

import (
	"regexp"
	"strings"

	"cartsync/internal/core/domain"
)

// Permissive on purpose: accepts domestic and loosely-formatted
// international numbers with spaces, hyphens and parentheses.
var phoneRe = regexp.MustCompile(`^\+?[0-9()\-\s]{7,20}$`)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps a field name to its violation message.
type FieldErrors map[string]string

// ValidPhone reports whether the phone number matches the permissive
// pattern after trimming.
func ValidPhone(phone string) bool {
	return phoneRe.MatchString(strings.TrimSpace(phone))
}

// ValidEmail reports whether the address has a local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

// ValidateDeliveryInfo checks the delivery form. Every violated field is
// reported, not just the first.
func ValidateDeliveryInfo(info domain.DeliveryInfo) (FieldErrors, bool) {
	errs := FieldErrors{}

	if strings.TrimSpace(info.Name) == "" {
		errs["name"] = "name is required"
	}
	if strings.TrimSpace(info.Phone) == "" {
		errs["phone"] = "phone number is required"
	} else if !ValidPhone(info.Phone) {
		errs["phone"] = "phone number is invalid"
	}
	if strings.TrimSpace(info.Email) == "" {
		errs["email"] = "email is required"
	} else if !ValidEmail(info.Email) {
		errs["email"] = "email is invalid"
	}
	if strings.TrimSpace(info.Address) == "" {
		errs["address"] = "delivery address is required"
	}

	return errs, len(errs) == 0
}

// OrderViolations runs the aggregate-level checks the checkout pipeline
// gates on. Every violated rule is collected so the caller can surface all
// of them at once.
func OrderViolations(order domain.Order) []string {
	var violations []string

	if strings.TrimSpace(order.Customer.Name) == "" {
		violations = append(violations, "customer name is required")
	}
	if !ValidPhone(order.Customer.Phone) {
		violations = append(violations, "valid phone number is required")
	}
	if len(order.Items) == 0 {
		violations = append(violations, "order must contain at least one item")
	}
	if strings.TrimSpace(order.Delivery.Address) == "" {
		violations = append(violations, "delivery address is required")
	}
	if order.Total <= 0 {
		violations = append(violations, "order total must be greater than zero")
	}

	return violations
}
