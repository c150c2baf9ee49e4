package identity

import (
	"context"
	"fmt"
	"testing"

	"airsync_server/core/domain"
	"airsync_server/core/port/out"
	"airsync_server/pkg/apperr"
	"airsync_server/pkg/logger"
)

// fakeStore is an in-memory RecordStore covering the resolver's surface.
type fakeStore struct {
	accounts []*domain.Account
	contacts []*domain.Contact

	nextID int

	accountsCreated int
	contactsCreated int
	listCalls       []*out.AccountListFilter

	failAccountCreate bool
	emptyIDOnCreate   bool
	domainIndexBroken bool // domain queries miss, external_refs queries hit
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeStore) AccountsList(_ context.Context, filter *out.AccountListFilter) ([]*domain.Account, error) {
	s.listCalls = append(s.listCalls, filter)
	for _, a := range s.accounts {
		for _, d := range filter.Domains {
			if !s.domainIndexBroken && contains(a.Domains, d) {
				return []*domain.Account{a}, nil
			}
		}
		for _, r := range filter.ExternalRefs {
			if contains(a.ExternalRefs, r) {
				return []*domain.Account{a}, nil
			}
		}
	}
	return nil, nil
}

func (s *fakeStore) AccountsCreate(_ context.Context, req *out.AccountCreateRequest) (*domain.Account, error) {
	if s.failAccountCreate {
		return nil, apperr.ExternalError("devrev", fmt.Errorf("boom"))
	}
	s.accountsCreated++
	account := &domain.Account{
		DisplayName:  req.DisplayName,
		Domains:      req.Domains,
		ExternalRefs: req.ExternalRefs,
	}
	if !s.emptyIDOnCreate {
		account.ID = s.id("ACC")
	}
	s.accounts = append(s.accounts, account)
	return account, nil
}

func (s *fakeStore) RevUsersList(_ context.Context, filter *out.RevUserListFilter) ([]*domain.Contact, error) {
	for _, c := range s.contacts {
		if contains(filter.Email, c.Email) {
			return []*domain.Contact{c}, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) RevUsersCreate(_ context.Context, req *out.RevUserCreateRequest) (*domain.Contact, error) {
	s.contactsCreated++
	contact := &domain.Contact{
		ID:          s.id("REV"),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		AccountID:   req.AccountID,
	}
	s.contacts = append(s.contacts, contact)
	return contact, nil
}

func (s *fakeStore) CustomObjectsCreate(context.Context, *out.CustomObjectRequest) (string, error) {
	return "", nil
}

func (s *fakeStore) CustomObjectsList(context.Context, *out.CustomObjectListFilter) ([]*out.CustomObject, error) {
	return nil, nil
}

func (s *fakeStore) SchemasCustomSet(context.Context, *out.CustomSchema) error { return nil }

func (s *fakeStore) TimelineEntriesCreate(context.Context, *out.TimelineEntryRequest) error {
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func newTestResolver(store *fakeStore) *Resolver {
	return NewResolver(store, NewDomainRules(), logger.Nop())
}

func TestResolveBusinessDomainCreatesAccountAndContact(t *testing.T) {
	store := &fakeStore{}
	r := newTestResolver(store)

	res, err := r.Resolve(context.Background(), &domain.ContactInput{
		Email:     "Jane.Doe@Acme-Corp.com",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.AccountID == "" || res.ContactID == "" {
		t.Fatalf("expected account and contact, got %+v", res)
	}
	if !res.NewAccount || !res.NewContact {
		t.Errorf("expected new account and contact flags, got %+v", res)
	}
	if got := store.accounts[0].DisplayName; got != "Acme Corp" {
		t.Errorf("account display name = %q, want %q", got, "Acme Corp")
	}
	if got := store.contacts[0].Email; got != "jane.doe@acme-corp.com" {
		t.Errorf("contact email = %q, want normalized", got)
	}
	if got := store.contacts[0].AccountID; got != res.AccountID {
		t.Errorf("contact linked to %q, want %q", got, res.AccountID)
	}
}

func TestResolveIsIdempotentPerEmail(t *testing.T) {
	store := &fakeStore{}
	r := newTestResolver(store)
	ctx := context.Background()

	first, err := r.Resolve(ctx, &domain.ContactInput{Email: "jane@acme.com"})
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := r.Resolve(ctx, &domain.ContactInput{Email: "JANE@ACME.COM"})
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}

	if first.ContactID != second.ContactID {
		t.Errorf("contact IDs differ: %q vs %q", first.ContactID, second.ContactID)
	}
	if !first.NewContact || second.NewContact {
		t.Errorf("NewContact flags: first=%v second=%v, want true/false", first.NewContact, second.NewContact)
	}
	if store.contactsCreated != 1 {
		t.Errorf("contactsCreated = %d, want 1", store.contactsCreated)
	}
	if store.accountsCreated != 1 {
		t.Errorf("accountsCreated = %d, want 1", store.accountsCreated)
	}
}

func TestResolveSameDomainSharesAccount(t *testing.T) {
	store := &fakeStore{}
	r := newTestResolver(store)
	ctx := context.Background()

	a, _ := r.Resolve(ctx, &domain.ContactInput{Email: "jane@acme.com"})
	b, err := r.Resolve(ctx, &domain.ContactInput{Email: "john@acme.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if a.AccountID != b.AccountID {
		t.Errorf("account IDs differ: %q vs %q", a.AccountID, b.AccountID)
	}
	if b.NewAccount {
		t.Error("second contact should reuse the existing account")
	}
	if a.ContactID == b.ContactID {
		t.Error("different emails must not share a contact")
	}
	if store.accountsCreated != 1 {
		t.Errorf("accountsCreated = %d, want 1", store.accountsCreated)
	}
}

func TestResolveGenericDomainSkipsAccount(t *testing.T) {
	store := &fakeStore{}
	r := newTestResolver(store)

	res, err := r.Resolve(context.Background(), &domain.ContactInput{Email: "jane@gmail.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.AccountID != "" {
		t.Errorf("generic domain resolved to account %q", res.AccountID)
	}
	if res.ContactID == "" {
		t.Error("generic domain should still resolve a contact")
	}
	if store.accountsCreated != 0 {
		t.Errorf("accountsCreated = %d, want 0", store.accountsCreated)
	}
	if len(store.listCalls) != 0 {
		t.Errorf("account lookups issued for generic domain: %d", len(store.listCalls))
	}
}

func TestResolveFallsBackToExternalRefs(t *testing.T) {
	store := &fakeStore{
		domainIndexBroken: true,
		accounts: []*domain.Account{{
			ID:           "ACC-existing",
			DisplayName:  "Acme",
			Domains:      []string{"acme.com"},
			ExternalRefs: []string{"acme.com"},
		}},
	}
	r := newTestResolver(store)

	res, err := r.Resolve(context.Background(), &domain.ContactInput{Email: "jane@acme.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.AccountID != "ACC-existing" {
		t.Errorf("AccountID = %q, want fallback hit on ACC-existing", res.AccountID)
	}
	if res.NewAccount {
		t.Error("fallback hit must not create a new account")
	}
	if len(store.listCalls) != 2 {
		t.Fatalf("listCalls = %d, want domain query then external_refs query", len(store.listCalls))
	}
	if len(store.listCalls[0].Domains) == 0 || len(store.listCalls[1].ExternalRefs) == 0 {
		t.Error("expected domains query first, external_refs query second")
	}
}

func TestResolveMalformedEmail(t *testing.T) {
	r := newTestResolver(&fakeStore{})

	_, err := r.Resolve(context.Background(), &domain.ContactInput{Email: "not-an-email"})
	if !apperr.IsCode(err, apperr.CodeInvalidEmail) {
		t.Fatalf("error = %v, want INVALID_EMAIL", err)
	}
}

func TestResolveAccountCreateFailurePropagates(t *testing.T) {
	store := &fakeStore{failAccountCreate: true}
	r := newTestResolver(store)

	_, err := r.Resolve(context.Background(), &domain.ContactInput{Email: "jane@acme.com"})
	if err == nil {
		t.Fatal("expected error from account creation")
	}
	if store.contactsCreated != 0 {
		t.Error("contact must not be created when account creation fails")
	}
}

func TestResolveEmptyAccountIDFails(t *testing.T) {
	store := &fakeStore{emptyIDOnCreate: true}
	r := newTestResolver(store)

	_, err := r.Resolve(context.Background(), &domain.ContactInput{Email: "jane@acme.com"})
	if !apperr.IsCode(err, apperr.CodeRecordCreationFailed) {
		t.Fatalf("error = %v, want RECORD_CREATION_FAILED", err)
	}
}
