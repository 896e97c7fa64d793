package pipeline

import (
	"context"

	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/reconcile"
)

// Stage names, in run order.
const (
	StageMembers        = "members"
	StageBills          = "bills"
	StageVotes          = "votes"
	StageExpenses       = "expenses"
	StageVoteBillLinks  = "vote_bill_links"
	StagePartyGuidance  = "party_guidance"
	StageClassification = "classification"
)

// Source yields the validated records of one extract.
type Source interface {
	Members() ([]domain.Member, error)
	Bills() ([]domain.Bill, error)
	RollCalls() ([]domain.RollCallVote, error)
	Votes() ([]domain.IndividualVote, error)
	Expenses() ([]domain.Expense, error)
	VoteBillLinks() ([]domain.VoteBillLink, error)
	PartyGuidance() ([]domain.PartyGuidance, error)
}

// DefaultStages returns the fixed run sequence. Load stages read their input
// inside Run, so a retry re-reads the extract file.
func DefaultStages(src Source, rec *reconcile.Reconciler, classifier reconcile.Classifier) []Stage {
	return []Stage{
		{
			Name:     StageMembers,
			Critical: true,
			Retry:    true,
			Run: func(ctx context.Context) (int64, error) {
				members, err := src.Members()
				if err != nil {
					return 0, err
				}
				return rec.LoadMembers(ctx, members)
			},
		},
		{
			Name:     StageBills,
			Critical: true,
			Retry:    true,
			Run: func(ctx context.Context) (int64, error) {
				bills, err := src.Bills()
				if err != nil {
					return 0, err
				}
				return rec.LoadBills(ctx, bills)
			},
		},
		{
			Name:     StageVotes,
			Critical: true,
			Retry:    true,
			Run: func(ctx context.Context) (int64, error) {
				rollCalls, err := src.RollCalls()
				if err != nil {
					return 0, err
				}
				votes, err := src.Votes()
				if err != nil {
					return 0, err
				}
				return rec.LoadRollCalls(ctx, rollCalls, votes)
			},
		},
		{
			Name:     StageExpenses,
			Critical: true,
			Retry:    true,
			Run: func(ctx context.Context) (int64, error) {
				expenses, err := src.Expenses()
				if err != nil {
					return 0, err
				}
				return rec.LoadExpenses(ctx, expenses)
			},
		},
		{
			Name:     StageVoteBillLinks,
			Critical: true,
			Run: func(ctx context.Context) (int64, error) {
				links, err := src.VoteBillLinks()
				if err != nil {
					return 0, err
				}
				return rec.LoadVoteBillLinks(ctx, links)
			},
		},
		{
			Name: StagePartyGuidance,
			Run: func(ctx context.Context) (int64, error) {
				guidance, err := src.PartyGuidance()
				if err != nil {
					return 0, err
				}
				return rec.LoadPartyGuidance(ctx, guidance)
			},
		},
		{
			Name: StageClassification,
			Run: func(ctx context.Context) (int64, error) {
				return rec.ClassifyBills(ctx, classifier)
			},
		},
	}
}
