package storage

import (
	"context"

	"github.com/vietddude/legisync/internal/core/domain"
)

// Store is the transactional gateway to the relational store. Every mutating
// call runs in its own transaction and either commits the whole batch or
// nothing; the returned count is the number of rows affected.
type Store interface {
	LoadStore
	CategoryStore
	EnrichmentStore

	// Counts returns row counts per table.
	Counts(ctx context.Context) (map[string]int64, error)

	// Close releases the underlying connection pool.
	Close() error
}

// LoadStore holds the per-entity bulk reconcile operations used by the load stages.
type LoadStore interface {
	// ReplaceMembers overwrites members keyed by ID.
	ReplaceMembers(ctx context.Context, members []domain.Member) (int64, error)

	// ReplaceBills overwrites bills keyed by ID.
	ReplaceBills(ctx context.Context, bills []domain.Bill) (int64, error)

	// ReplaceRollCalls overwrites roll calls keyed by ID and replaces the
	// individual votes of every incoming roll call.
	ReplaceRollCalls(
		ctx context.Context,
		rollCalls []domain.RollCallVote,
		votes []domain.IndividualVote,
	) (int64, error)

	// UpsertExpenses inserts expenses or updates the amounts of existing ones
	// sharing the dedup key. Expenses must be normalized.
	UpsertExpenses(ctx context.Context, expenses []domain.Expense) (int64, error)

	// UpsertVoteBillLinks inserts or updates links keyed by (roll call, bill).
	UpsertVoteBillLinks(ctx context.Context, links []domain.VoteBillLink) (int64, error)

	// UpsertPartyGuidance inserts or updates guidance keyed by (roll call, bloc).
	UpsertPartyGuidance(ctx context.Context, guidance []domain.PartyGuidance) (int64, error)

	// KnownIDs returns the stored identifiers used to drop orphan references.
	KnownIDs(ctx context.Context) (*KnownIDs, error)
}

// CategoryStore holds the classification table operations. Deletes are always
// scoped by origin.
type CategoryStore interface {
	// UpsertCategories seeds the category catalog.
	UpsertCategories(ctx context.Context, categories []domain.Category) (int64, error)

	// UpsertBillCategories inserts tags or updates their confidence, keyed by
	// (bill, category, origin).
	UpsertBillCategories(ctx context.Context, tags []domain.BillCategory) (int64, error)

	// DeleteByOrigin removes every tag with the given origin and returns the count removed.
	DeleteByOrigin(ctx context.Context, origin domain.Origin) (int64, error)

	// ReplaceOrigin deletes every tag with origin and inserts tags, in one
	// transaction. All tags must carry origin.
	ReplaceOrigin(
		ctx context.Context,
		origin domain.Origin,
		tags []domain.BillCategory,
	) (deleted int64, inserted int64, err error)

	// ListBillTexts returns every bill's classification input, ordered by ID.
	ListBillTexts(ctx context.Context) ([]domain.BillText, error)

	// ListBillCategories returns a bill's tags ordered by category and origin.
	ListBillCategories(ctx context.Context, billID int64) ([]domain.BillCategory, error)
}

// EnrichmentStore holds the generated-summary operations.
type EnrichmentStore interface {
	// ListBillsForEnrichment returns up to limit bills with text and no
	// enrichment for promptVersion, ordered by ID.
	ListBillsForEnrichment(ctx context.Context, promptVersion string, limit int) ([]domain.BillText, error)

	// BillCategoryCodes returns the distinct category codes already assigned to a bill.
	BillCategoryCodes(ctx context.Context, billID int64) ([]string, error)

	// UpsertEnrichment inserts or overwrites the enrichment for (bill, prompt version).
	UpsertEnrichment(ctx context.Context, e domain.Enrichment) (int64, error)

	// GetEnrichment returns the enrichment for (bill, prompt version), or nil.
	GetEnrichment(ctx context.Context, billID int64, promptVersion string) (*domain.Enrichment, error)
}

// KnownIDs is the set of identifiers currently stored.
type KnownIDs struct {
	Members   map[int64]struct{}
	Bills     map[int64]struct{}
	RollCalls map[string]struct{}
}

// NewKnownIDs returns an empty set.
func NewKnownIDs() *KnownIDs {
	return &KnownIDs{
		Members:   make(map[int64]struct{}),
		Bills:     make(map[int64]struct{}),
		RollCalls: make(map[string]struct{}),
	}
}

func (k *KnownIDs) HasMember(id int64) bool {
	_, ok := k.Members[id]
	return ok
}

func (k *KnownIDs) HasBill(id int64) bool {
	_, ok := k.Bills[id]
	return ok
}

func (k *KnownIDs) HasRollCall(id string) bool {
	_, ok := k.RollCalls[id]
	return ok
}

// Table names reported by Counts.
const (
	TableMembers         = "members"
	TableBills           = "bills"
	TableRollCalls       = "roll_call_votes"
	TableIndividualVotes = "individual_votes"
	TableVoteBillLinks   = "vote_bill_links"
	TablePartyGuidance   = "party_guidance"
	TableCategories      = "categories"
	TableBillCategories  = "bill_categories"
	TableExpenses        = "expenses"
	TableEnrichments     = "bill_enrichments"
)

// Tables lists every table in dependency order.
var Tables = []string{
	TableMembers,
	TableBills,
	TableRollCalls,
	TableIndividualVotes,
	TableVoteBillLinks,
	TablePartyGuidance,
	TableCategories,
	TableBillCategories,
	TableExpenses,
	TableEnrichments,
}
