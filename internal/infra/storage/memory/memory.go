// Package memory is a map-backed storage.Store used for dry runs and tests.
// It enforces the same keys and references as the SQL schema.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/infra/storage"
)

type linkKey struct {
	rollCallID string
	billID     int64
}

type guidanceKey struct {
	rollCallID string
	bloc       string
}

type tagKey struct {
	billID int64
	code   string
	origin domain.Origin
}

type voteKey struct {
	rollCallID string
	memberID   int64
}

type enrichmentKey struct {
	billID        int64
	promptVersion string
}

type MemoryStorage struct {
	members     map[int64]domain.Member
	bills       map[int64]domain.Bill
	rollCalls   map[string]domain.RollCallVote
	votes       map[string]domain.IndividualVote
	links       map[linkKey]domain.VoteBillLink
	guidance    map[guidanceKey]domain.PartyGuidance
	categories  map[string]domain.Category
	tags        map[tagKey]domain.BillCategory
	expenses    map[domain.ExpenseKey]domain.Expense
	enrichments map[enrichmentKey]domain.Enrichment
	mu          sync.RWMutex
}

var _ storage.Store = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		members:     make(map[int64]domain.Member),
		bills:       make(map[int64]domain.Bill),
		rollCalls:   make(map[string]domain.RollCallVote),
		votes:       make(map[string]domain.IndividualVote),
		links:       make(map[linkKey]domain.VoteBillLink),
		guidance:    make(map[guidanceKey]domain.PartyGuidance),
		categories:  make(map[string]domain.Category),
		tags:        make(map[tagKey]domain.BillCategory),
		expenses:    make(map[domain.ExpenseKey]domain.Expense),
		enrichments: make(map[enrichmentKey]domain.Enrichment),
	}
}

func constraint(op, format string, args ...any) error {
	return errs.Constraint(op, fmt.Errorf(format, args...))
}

// -----------------------------------------------------------------------------
// Load operations
// -----------------------------------------------------------------------------

func (s *MemoryStorage) ReplaceMembers(ctx context.Context, members []domain.Member) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		s.members[m.ID] = m
	}
	return int64(len(members)), nil
}

func (s *MemoryStorage) ReplaceBills(ctx context.Context, bills []domain.Bill) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bills {
		if b.AuthorID != nil {
			if _, ok := s.members[*b.AuthorID]; !ok {
				return 0, constraint("store.bills", "bill %d: unknown author %d", b.ID, *b.AuthorID)
			}
		}
	}
	for _, b := range bills {
		s.bills[b.ID] = b
	}
	return int64(len(bills)), nil
}

func (s *MemoryStorage) ReplaceRollCalls(
	ctx context.Context,
	rollCalls []domain.RollCallVote,
	votes []domain.IndividualVote,
) (int64, error) {
	const op = "store.roll_calls"
	s.mu.Lock()
	defer s.mu.Unlock()

	incoming := make(map[string]bool, len(rollCalls))
	for _, rc := range rollCalls {
		if rc.BillID != nil {
			if _, ok := s.bills[*rc.BillID]; !ok {
				return 0, constraint(op, "roll call %s: unknown bill %d", rc.ID, *rc.BillID)
			}
		}
		incoming[rc.ID] = true
	}

	seen := make(map[voteKey]bool, len(votes))
	for _, v := range votes {
		if _, ok := s.rollCalls[v.RollCallID]; !ok && !incoming[v.RollCallID] {
			return 0, constraint(op, "vote %s: unknown roll call %s", v.ID, v.RollCallID)
		}
		if _, ok := s.members[v.MemberID]; !ok {
			return 0, constraint(op, "vote %s: unknown member %d", v.ID, v.MemberID)
		}
		k := voteKey{rollCallID: v.RollCallID, memberID: v.MemberID}
		if seen[k] {
			return 0, constraint(op, "duplicate vote of member %d in roll call %s", v.MemberID, v.RollCallID)
		}
		seen[k] = true
	}

	for _, rc := range rollCalls {
		s.rollCalls[rc.ID] = rc
	}
	for id, v := range s.votes {
		if incoming[v.RollCallID] {
			delete(s.votes, id)
		}
	}
	for _, v := range votes {
		s.votes[v.ID] = v
	}
	return int64(len(rollCalls) + len(votes)), nil
}

func (s *MemoryStorage) UpsertExpenses(ctx context.Context, expenses []domain.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range expenses {
		if e.Month < 1 || e.Month > 12 {
			return 0, constraint("store.expenses", "month %d outside 1..12", e.Month)
		}
		if e.MemberID != nil {
			if _, ok := s.members[*e.MemberID]; !ok {
				return 0, constraint("store.expenses", "unknown member %d", *e.MemberID)
			}
		}
	}
	for _, e := range expenses {
		k := e.Key()
		if cur, ok := s.expenses[k]; ok {
			cur.GrossAmount = e.GrossAmount
			cur.NetAmount = e.NetAmount
			cur.WithheldAmount = e.WithheldAmount
			cur.DocumentURL = e.DocumentURL
			s.expenses[k] = cur
			continue
		}
		s.expenses[k] = e
	}
	return int64(len(expenses)), nil
}

func (s *MemoryStorage) UpsertVoteBillLinks(ctx context.Context, links []domain.VoteBillLink) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range links {
		if _, ok := s.rollCalls[l.RollCallID]; !ok {
			return 0, constraint("store.vote_bill_links", "unknown roll call %s", l.RollCallID)
		}
		if _, ok := s.bills[l.BillID]; !ok {
			return 0, constraint("store.vote_bill_links", "unknown bill %d", l.BillID)
		}
	}
	for _, l := range links {
		s.links[linkKey{rollCallID: l.RollCallID, billID: l.BillID}] = l
	}
	return int64(len(links)), nil
}

func (s *MemoryStorage) UpsertPartyGuidance(ctx context.Context, guidance []domain.PartyGuidance) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range guidance {
		if _, ok := s.rollCalls[g.RollCallID]; !ok {
			return 0, constraint("store.party_guidance", "unknown roll call %s", g.RollCallID)
		}
	}
	for _, g := range guidance {
		s.guidance[guidanceKey{rollCallID: g.RollCallID, bloc: g.Bloc}] = g
	}
	return int64(len(guidance)), nil
}

func (s *MemoryStorage) KnownIDs(ctx context.Context) (*storage.KnownIDs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	known := storage.NewKnownIDs()
	for id := range s.members {
		known.Members[id] = struct{}{}
	}
	for id := range s.bills {
		known.Bills[id] = struct{}{}
	}
	for id := range s.rollCalls {
		known.RollCalls[id] = struct{}{}
	}
	return known, nil
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

func (s *MemoryStorage) UpsertCategories(ctx context.Context, categories []domain.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range categories {
		s.categories[c.Code] = c
	}
	return int64(len(categories)), nil
}

func (s *MemoryStorage) checkTags(op string, want domain.Origin, tags []domain.BillCategory) error {
	for i, t := range tags {
		if !t.Origin.Valid() || (want != "" && t.Origin != want) {
			return errs.Validationf(op, "tag %d: invalid origin %q", i, t.Origin)
		}
		if t.Confidence < 0 || t.Confidence > 1 {
			return errs.Validationf(op, "tag %d: confidence %v outside [0,1]", i, t.Confidence)
		}
		if _, ok := s.bills[t.BillID]; !ok {
			return constraint(op, "tag %d: unknown bill %d", i, t.BillID)
		}
		if _, ok := s.categories[t.CategoryCode]; !ok {
			return constraint(op, "tag %d: unknown category %s", i, t.CategoryCode)
		}
	}
	return nil
}

func (s *MemoryStorage) UpsertBillCategories(ctx context.Context, tags []domain.BillCategory) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTags("store.bill_categories", "", tags); err != nil {
		return 0, err
	}
	for _, t := range tags {
		s.tags[tagKey{billID: t.BillID, code: t.CategoryCode, origin: t.Origin}] = t
	}
	return int64(len(tags)), nil
}

func (s *MemoryStorage) DeleteByOrigin(ctx context.Context, origin domain.Origin) (int64, error) {
	if !origin.Valid() {
		return 0, errs.Validationf("store.delete_by_origin", "invalid origin %q", origin)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteOrigin(origin), nil
}

func (s *MemoryStorage) deleteOrigin(origin domain.Origin) int64 {
	var n int64
	for k := range s.tags {
		if k.origin == origin {
			delete(s.tags, k)
			n++
		}
	}
	return n
}

func (s *MemoryStorage) ReplaceOrigin(
	ctx context.Context,
	origin domain.Origin,
	tags []domain.BillCategory,
) (int64, int64, error) {
	const op = "store.replace_origin"
	if !origin.Valid() {
		return 0, 0, errs.Validationf(op, "invalid origin %q", origin)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTags(op, origin, tags); err != nil {
		return 0, 0, err
	}
	deleted := s.deleteOrigin(origin)
	for _, t := range tags {
		s.tags[tagKey{billID: t.BillID, code: t.CategoryCode, origin: t.Origin}] = t
	}
	return deleted, int64(len(tags)), nil
}

func (s *MemoryStorage) ListBillTexts(ctx context.Context) ([]domain.BillText, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BillText, 0, len(s.bills))
	for _, b := range s.bills {
		out = append(out, billText(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStorage) ListBillCategories(ctx context.Context, billID int64) ([]domain.BillCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.BillCategory
	for k, t := range s.tags {
		if k.billID == billID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryCode != out[j].CategoryCode {
			return out[i].CategoryCode < out[j].CategoryCode
		}
		return out[i].Origin < out[j].Origin
	})
	return out, nil
}

// -----------------------------------------------------------------------------
// Enrichment
// -----------------------------------------------------------------------------

func (s *MemoryStorage) ListBillsForEnrichment(ctx context.Context, promptVersion string, limit int) ([]domain.BillText, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.BillText
	for _, b := range s.bills {
		if b.Summary == "" {
			continue
		}
		if _, done := s.enrichments[enrichmentKey{billID: b.ID, promptVersion: promptVersion}]; done {
			continue
		}
		out = append(out, billText(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:max(limit, 0)]
	}
	return out, nil
}

func (s *MemoryStorage) BillCategoryCodes(ctx context.Context, billID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.tags {
		if k.billID == billID && !slices.Contains(out, k.code) {
			out = append(out, k.code)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStorage) UpsertEnrichment(ctx context.Context, e domain.Enrichment) (int64, error) {
	const op = "store.enrichment"
	if e.PromptVersion == "" {
		return 0, errs.Validationf(op, "bill %d: empty prompt version", e.BillID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[e.BillID]; !ok {
		return 0, constraint(op, "unknown bill %d", e.BillID)
	}
	e.Impact = slices.Clone(e.Impact)
	s.enrichments[enrichmentKey{billID: e.BillID, promptVersion: e.PromptVersion}] = e
	return 1, nil
}

func (s *MemoryStorage) GetEnrichment(ctx context.Context, billID int64, promptVersion string) (*domain.Enrichment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrichments[enrichmentKey{billID: billID, promptVersion: promptVersion}]
	if !ok {
		return nil, nil
	}
	e.Impact = slices.Clone(e.Impact)
	return &e, nil
}

// -----------------------------------------------------------------------------
// Status
// -----------------------------------------------------------------------------

func (s *MemoryStorage) Counts(ctx context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int64{
		storage.TableMembers:         int64(len(s.members)),
		storage.TableBills:           int64(len(s.bills)),
		storage.TableRollCalls:       int64(len(s.rollCalls)),
		storage.TableIndividualVotes: int64(len(s.votes)),
		storage.TableVoteBillLinks:   int64(len(s.links)),
		storage.TablePartyGuidance:   int64(len(s.guidance)),
		storage.TableCategories:      int64(len(s.categories)),
		storage.TableBillCategories:  int64(len(s.tags)),
		storage.TableExpenses:        int64(len(s.expenses)),
		storage.TableEnrichments:     int64(len(s.enrichments)),
	}, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func billText(b domain.Bill) domain.BillText {
	return domain.BillText{ID: b.ID, TypeCode: b.TypeCode, Number: b.Number, Year: b.Year, Summary: b.Summary}
}
