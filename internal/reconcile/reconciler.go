// Package reconcile turns parsed record batches and classification results
// into idempotent store operations.
package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vietddude/legisync/internal/classify"
	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/infra/storage"
	"github.com/vietddude/legisync/internal/metrics"
)

// Classifier maps bill text to category matches.
type Classifier interface {
	Classify(text string) []classify.Match
}

// Reconciler applies record batches to a store.
type Reconciler struct {
	store storage.Store
	log   *slog.Logger
}

// New creates a reconciler over store.
func New(store storage.Store, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, log: log.With("component", "reconcile")}
}

// ClassifyBills recomputes rule-origin tags for every bill with text. Rule
// rows are replaced wholesale in one transaction; model rows are never
// touched. Returns the number of rule rows written.
func (r *Reconciler) ClassifyBills(ctx context.Context, c Classifier) (int64, error) {
	if _, err := r.store.UpsertCategories(ctx, domain.Catalog); err != nil {
		return 0, errs.Wrap(err, "seed categories")
	}

	bills, err := r.store.ListBillTexts(ctx)
	if err != nil {
		return 0, errs.Wrap(err, "list bills")
	}

	var tags []domain.BillCategory
	classified := 0
	for _, b := range bills {
		if strings.TrimSpace(b.Summary) == "" {
			continue
		}
		classified++
		for _, m := range c.Classify(b.Summary) {
			tags = append(tags, domain.BillCategory{
				BillID:       b.ID,
				CategoryCode: m.Category,
				Origin:       domain.OriginRule,
				Confidence:   m.Confidence,
			})
		}
	}

	deleted, inserted, err := r.store.ReplaceOrigin(ctx, domain.OriginRule, tags)
	if err != nil {
		return 0, errs.Wrap(err, "replace rule tags")
	}

	r.log.Info("Classified bills",
		"bills", len(bills),
		"with_text", classified,
		"deleted", deleted,
		"inserted", inserted,
	)
	return inserted, nil
}

// LoadMembers overwrites members keyed by ID.
func (r *Reconciler) LoadMembers(ctx context.Context, members []domain.Member) (int64, error) {
	members = dedupe(r.log, "member", members, func(m domain.Member) int64 { return m.ID })
	return r.store.ReplaceMembers(ctx, members)
}

// LoadBills overwrites bills keyed by ID. Authors that are not stored members
// are cleared rather than failing the batch.
func (r *Reconciler) LoadBills(ctx context.Context, bills []domain.Bill) (int64, error) {
	known, err := r.store.KnownIDs(ctx)
	if err != nil {
		return 0, err
	}

	bills = dedupe(r.log, "bill", bills, func(b domain.Bill) int64 { return b.ID })
	cleared := 0
	for i := range bills {
		if a := bills[i].AuthorID; a != nil && !known.HasMember(*a) {
			bills[i].AuthorID = nil
			cleared++
		}
	}
	if cleared > 0 {
		r.log.Warn("Cleared unknown bill authors", "count", cleared)
		metrics.RowsDropped.WithLabelValues("bill_author", "orphan").Add(float64(cleared))
	}
	return r.store.ReplaceBills(ctx, bills)
}

// LoadRollCalls overwrites roll calls and replaces their individual votes.
// Votes for roll calls outside the batch or for unknown members are dropped.
func (r *Reconciler) LoadRollCalls(
	ctx context.Context,
	rollCalls []domain.RollCallVote,
	votes []domain.IndividualVote,
) (int64, error) {
	known, err := r.store.KnownIDs(ctx)
	if err != nil {
		return 0, err
	}

	rollCalls = dedupe(r.log, "roll_call", rollCalls, func(rc domain.RollCallVote) string { return rc.ID })
	batch := make(map[string]bool, len(rollCalls))
	cleared := 0
	for i := range rollCalls {
		batch[rollCalls[i].ID] = true
		if b := rollCalls[i].BillID; b != nil && !known.HasBill(*b) {
			rollCalls[i].BillID = nil
			cleared++
		}
	}
	if cleared > 0 {
		r.log.Warn("Cleared unknown roll call bills", "count", cleared)
		metrics.RowsDropped.WithLabelValues("roll_call_bill", "orphan").Add(float64(cleared))
	}

	votes = dropOrphans(r.log, "individual_vote", votes, func(v domain.IndividualVote) bool {
		return batch[v.RollCallID] && known.HasMember(v.MemberID)
	})
	for i := range votes {
		votes[i].ID = domain.IndividualVoteID(votes[i].RollCallID, votes[i].MemberID)
	}
	votes = dedupe(r.log, "individual_vote", votes, func(v domain.IndividualVote) string { return v.ID })

	return r.store.ReplaceRollCalls(ctx, rollCalls, votes)
}

// LoadExpenses normalizes the dedup key and upserts. Expenses of unknown
// members keep their key but lose the member reference.
func (r *Reconciler) LoadExpenses(ctx context.Context, expenses []domain.Expense) (int64, error) {
	known, err := r.store.KnownIDs(ctx)
	if err != nil {
		return 0, err
	}

	detached := 0
	for i := range expenses {
		expenses[i].Normalize()
		if m := expenses[i].MemberID; m != nil && !known.HasMember(*m) {
			expenses[i].MemberID = nil
			detached++
		}
	}
	if detached > 0 {
		r.log.Warn("Detached expenses from unknown members", "count", detached)
		metrics.RowsDropped.WithLabelValues("expense_member", "orphan").Add(float64(detached))
	}

	expenses = dedupe(r.log, "expense", expenses, domain.Expense.Key)
	return r.store.UpsertExpenses(ctx, expenses)
}

// LoadVoteBillLinks upserts links whose roll call and bill are both stored.
func (r *Reconciler) LoadVoteBillLinks(ctx context.Context, links []domain.VoteBillLink) (int64, error) {
	known, err := r.store.KnownIDs(ctx)
	if err != nil {
		return 0, err
	}

	links = dropOrphans(r.log, "vote_bill_link", links, func(l domain.VoteBillLink) bool {
		return known.HasRollCall(l.RollCallID) && known.HasBill(l.BillID)
	})
	type key struct {
		rollCallID string
		billID     int64
	}
	links = dedupe(r.log, "vote_bill_link", links, func(l domain.VoteBillLink) key {
		return key{l.RollCallID, l.BillID}
	})
	return r.store.UpsertVoteBillLinks(ctx, links)
}

// LoadPartyGuidance upserts guidance whose roll call is stored.
func (r *Reconciler) LoadPartyGuidance(ctx context.Context, guidance []domain.PartyGuidance) (int64, error) {
	known, err := r.store.KnownIDs(ctx)
	if err != nil {
		return 0, err
	}

	guidance = dropOrphans(r.log, "party_guidance", guidance, func(g domain.PartyGuidance) bool {
		return known.HasRollCall(g.RollCallID)
	})
	type key struct {
		rollCallID string
		bloc       string
	}
	guidance = dedupe(r.log, "party_guidance", guidance, func(g domain.PartyGuidance) key {
		return key{g.RollCallID, g.Bloc}
	})
	return r.store.UpsertPartyGuidance(ctx, guidance)
}
