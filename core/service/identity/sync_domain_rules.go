// Package identity resolves inbound email-identified actors to CRM accounts
// and contacts.
package identity

import (
	"strings"

	"airsync_server/pkg/apperr"
)

// defaultGenericDomains are consumer mail providers that never map to an
// organization account. The list is a deny-list, not an allow-list: any
// domain outside it is treated as a business domain.
var defaultGenericDomains = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"aol.com",
	"icloud.com",
	"protonmail.com",
	"mail.com",
	"zoho.com",
	"yandex.com",
	"live.com",
	"msn.com",
}

// DomainRules classifies email domains as generic (consumer) or business.
type DomainRules struct {
	generic map[string]struct{}
}

// NewDomainRules creates rules with the default generic-domain deny-list.
func NewDomainRules() *DomainRules {
	return NewDomainRulesWith(defaultGenericDomains)
}

// NewDomainRulesWith creates rules with a custom deny-list, replacing the
// default. Entries are normalized to lower case.
func NewDomainRulesWith(domains []string) *DomainRules {
	generic := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			generic[d] = struct{}{}
		}
	}
	return &DomainRules{generic: generic}
}

// IsBusinessDomain reports whether the email's domain signals an
// organizational affiliation. Malformed emails fail rather than silently
// classifying an empty domain.
func (r *DomainRules) IsBusinessDomain(email string) (bool, error) {
	domain, err := ExtractDomain(email)
	if err != nil {
		return false, err
	}
	_, generic := r.generic[domain]
	return !generic, nil
}

// ExtractDomain returns the lower-cased domain part of an email address.
func ExtractDomain(email string) (string, error) {
	local, domain, found := strings.Cut(strings.TrimSpace(email), "@")
	if !found || local == "" || domain == "" || strings.Contains(domain, "@") {
		return "", apperr.InvalidEmail(email)
	}
	return strings.ToLower(domain), nil
}

// NormalizeEmail lower-cases and trims an email address. All store lookups
// and idempotency keys use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountDisplayName derives a readable organization name from a domain:
// the first label, split on hyphens and underscores, title-cased and joined
// with spaces. "acme-corp.com" becomes "Acme Corp".
func AccountDisplayName(domain string) string {
	label, _, _ := strings.Cut(domain, ".")
	words := strings.FieldsFunc(label, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
