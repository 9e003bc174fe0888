// Package visibility decides which product records a viewer may see.
package visibility

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
)

// Rule selects how a record is matched against the viewer's role when the
// viewer did not create it.
type Rule string

const (
	// RuleStatus compares the record status with the viewer role.
	RuleStatus Rule = "status"
	// RuleCreationRole compares the creator's role at creation time with the
	// viewer role, leaving status as a free field.
	RuleCreationRole Rule = "creation-role"
)

// ParseRule maps configuration input onto a Rule. Empty input selects RuleStatus.
func ParseRule(value string) (Rule, error) {
	switch Rule(strings.ToLower(strings.TrimSpace(value))) {
	case "", RuleStatus:
		return RuleStatus, nil
	case RuleCreationRole:
		return RuleCreationRole, nil
	default:
		return "", fmt.Errorf("unknown visibility rule %q", value)
	}
}

// Filter applies a Rule.
type Filter struct {
	rule Rule
}

// NewFilter builds a Filter, defaulting to RuleStatus.
func NewFilter(rule Rule) Filter {
	if rule == "" {
		rule = RuleStatus
	}
	return Filter{rule: rule}
}

// Rule reports the configured rule.
func (f Filter) Rule() Rule { return f.rule }

// Visible returns the records the viewer may see, preserving input order.
// Admins see everything.
func (f Filter) Visible(records []models.ProductRecord, role models.Role, identity string) []models.ProductRecord {
	viewerRole := strings.ToLower(string(role))
	if viewerRole == string(models.RoleAdmin) {
		out := make([]models.ProductRecord, len(records))
		copy(out, records)
		return out
	}

	out := make([]models.ProductRecord, 0, len(records))
	for _, record := range records {
		if f.allows(record, viewerRole, identity) {
			out = append(out, record)
		}
	}
	return out
}

// Allows reports whether a single record is visible to the viewer.
func (f Filter) Allows(record models.ProductRecord, role models.Role, identity string) bool {
	viewerRole := strings.ToLower(string(role))
	if viewerRole == string(models.RoleAdmin) {
		return true
	}
	return f.allows(record, viewerRole, identity)
}

func (f Filter) allows(record models.ProductRecord, viewerRole, identity string) bool {
	if identity != "" && record.CreatedBy == identity {
		return true
	}
	switch f.rule {
	case RuleCreationRole:
		return strings.ToLower(record.CreatedRole) == viewerRole
	default:
		return strings.ToLower(record.Status) == viewerRole
	}
}

// Visible applies the default status rule.
func Visible(records []models.ProductRecord, role models.Role, identity string) []models.ProductRecord {
	return NewFilter(RuleStatus).Visible(records, role, identity)
}
