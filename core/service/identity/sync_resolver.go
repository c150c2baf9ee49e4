package identity

import (
	"context"

	"github.com/rs/zerolog"

	"airsync_server/core/domain"
	"airsync_server/core/port/out"
	"airsync_server/pkg/apperr"
)

// Resolver finds or creates the CRM account and contact for an inbound
// email. Resolution is lookup-then-create without compare-and-swap: two
// concurrent resolutions of the same new domain or email can race and
// create duplicates. That gap is accepted; the store is the arbiter.
type Resolver struct {
	store out.RecordStore
	rules *DomainRules
	log   zerolog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(store out.RecordStore, rules *DomainRules, log zerolog.Logger) *Resolver {
	return &Resolver{
		store: store,
		rules: rules,
		log:   log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve maps an email-identified actor to an account and contact,
// creating either as needed. Generic-domain emails skip account resolution
// entirely and resolve to an unlinked contact.
func (r *Resolver) Resolve(ctx context.Context, in *domain.ContactInput) (*domain.ResolveResult, error) {
	email := NormalizeEmail(in.Email)
	business, err := r.rules.IsBusinessDomain(email)
	if err != nil {
		return nil, err
	}

	result := &domain.ResolveResult{}

	if business {
		emailDomain, err := ExtractDomain(email)
		if err != nil {
			return nil, err
		}

		account, err := r.findAccountByDomain(ctx, emailDomain)
		if err != nil {
			return nil, err
		}
		if account == nil {
			account, err = r.createAccount(ctx, emailDomain)
			if err != nil {
				return nil, err
			}
			result.NewAccount = true
		}
		result.AccountID = account.ID
	}

	contact, created, err := r.findOrCreateContact(ctx, email, in, result.AccountID)
	if err != nil {
		return nil, err
	}
	result.ContactID = contact.ID
	result.NewContact = created

	return result, nil
}

// findAccountByDomain looks up an account by the domain index first, then
// falls back to the external-reference index with the same value. Stores
// are inconsistent about which of the two fields they index; a fallback hit
// is logged so index drift is visible.
func (r *Resolver) findAccountByDomain(ctx context.Context, emailDomain string) (*domain.Account, error) {
	accounts, err := r.store.AccountsList(ctx, &out.AccountListFilter{
		Domains: []string{emailDomain},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		return accounts[0], nil
	}

	accounts, err = r.store.AccountsList(ctx, &out.AccountListFilter{
		ExternalRefs: []string{emailDomain},
		Limit:        1,
	})
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		r.log.Warn().
			Str("domain", emailDomain).
			Str("account_id", accounts[0].ID).
			Msg("account found via external_refs but not domains index")
		return accounts[0], nil
	}
	return nil, nil
}

func (r *Resolver) createAccount(ctx context.Context, emailDomain string) (*domain.Account, error) {
	account, err := r.store.AccountsCreate(ctx, &out.AccountCreateRequest{
		DisplayName:  AccountDisplayName(emailDomain),
		Domains:      []string{emailDomain},
		ExternalRefs: []string{emailDomain},
	})
	if err != nil {
		return nil, err
	}
	if account == nil || account.ID == "" {
		return nil, apperr.RecordCreationFailed("account", nil)
	}

	r.log.Info().
		Str("domain", emailDomain).
		Str("account_id", account.ID).
		Msg("created account")
	return account, nil
}

func (r *Resolver) findOrCreateContact(ctx context.Context, email string, in *domain.ContactInput, accountID string) (*domain.Contact, bool, error) {
	contacts, err := r.store.RevUsersList(ctx, &out.RevUserListFilter{
		Email: []string{email},
		Limit: 1,
	})
	if err != nil {
		return nil, false, err
	}
	if len(contacts) > 0 {
		return contacts[0], false, nil
	}

	req := &out.RevUserCreateRequest{
		DisplayName: in.DisplayName(),
		Email:       email,
		AccountID:   accountID,
		City:        in.City,
		Country:     in.Country,
		JobTitle:    in.JobTitle,
	}
	if in.Phone != "" {
		req.PhoneNumbers = []string{in.Phone}
	}

	contact, err := r.store.RevUsersCreate(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if contact == nil || contact.ID == "" {
		return nil, false, apperr.RecordCreationFailed("contact", nil)
	}

	r.log.Info().
		Str("email", email).
		Str("contact_id", contact.ID).
		Bool("linked", accountID != "").
		Msg("created contact")
	return contact, true, nil
}
