package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/infra/storage"
)

func TestDeleteByOriginCounts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	_, err := s.UpsertCategories(ctx, domain.Catalog)
	require.NoError(t, err)
	_, err = s.ReplaceBills(ctx, []domain.Bill{{ID: 1}, {ID: 2}})
	require.NoError(t, err)

	_, err = s.UpsertBillCategories(ctx, []domain.BillCategory{
		{BillID: 1, CategoryCode: domain.CategoryHealth, Origin: domain.OriginRule, Confidence: 1},
		{BillID: 2, CategoryCode: domain.CategoryHealth, Origin: domain.OriginRule, Confidence: 1},
		{BillID: 1, CategoryCode: domain.CategoryHealth, Origin: domain.OriginModel, Confidence: 0.4},
	})
	require.NoError(t, err)

	n, err := s.DeleteByOrigin(ctx, domain.OriginRule)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.DeleteByOrigin(ctx, domain.OriginRule)
	require.NoError(t, err)
	assert.Zero(t, n)

	tags, err := s.ListBillCategories(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, domain.OriginModel, tags[0].Origin)
}

func TestReferencesAreEnforced(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	author := int64(7)
	_, err := s.ReplaceBills(ctx, []domain.Bill{{ID: 1, AuthorID: &author}})
	assert.Equal(t, errs.KindConstraint, errs.KindOf(err))

	_, err = s.UpsertPartyGuidance(ctx, []domain.PartyGuidance{{RollCallID: "x", Bloc: "PT"}})
	assert.Equal(t, errs.KindConstraint, errs.KindOf(err))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[storage.TableBills])
}

func TestReplaceRollCallsDropsStaleVotes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	_, err := s.ReplaceMembers(ctx, []domain.Member{{ID: 1}, {ID: 2}})
	require.NoError(t, err)

	rc := domain.RollCallVote{ID: "10-1"}
	votes := []domain.IndividualVote{
		{ID: domain.IndividualVoteID(rc.ID, 1), RollCallID: rc.ID, MemberID: 1, Value: "Sim"},
		{ID: domain.IndividualVoteID(rc.ID, 2), RollCallID: rc.ID, MemberID: 2, Value: "Não"},
	}
	_, err = s.ReplaceRollCalls(ctx, []domain.RollCallVote{rc}, votes)
	require.NoError(t, err)
	_, err = s.ReplaceRollCalls(ctx, []domain.RollCallVote{rc}, votes[1:])
	require.NoError(t, err)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[storage.TableIndividualVotes])
}

func TestUpsertExpensesKeepsIdentityFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	e := domain.Expense{Year: 2024, Month: 1, ExpenseType: "TELEFONIA", SupplierName: "Operadora", GrossAmount: 100}
	e.Normalize()
	_, err := s.UpsertExpenses(ctx, []domain.Expense{e})
	require.NoError(t, err)

	e.GrossAmount = 250
	e.SupplierName = "Outra"
	_, err = s.UpsertExpenses(ctx, []domain.Expense{e})
	require.NoError(t, err)

	got := s.expenses[e.Key()]
	assert.Equal(t, domain.Cents(250), got.GrossAmount)
	assert.Equal(t, "Operadora", got.SupplierName)

	bad := e
	bad.Month = 13
	_, err = s.UpsertExpenses(ctx, []domain.Expense{bad})
	assert.Equal(t, errs.KindConstraint, errs.KindOf(err))
}
