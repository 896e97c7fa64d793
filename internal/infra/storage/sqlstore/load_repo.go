package sqlstore

import (
	"context"

	"github.com/vietddude/legisync/internal/core/domain"
)

const upsertMember = `
	INSERT INTO members (id, name, party, region, photo_url, email)
	VALUES (:id, :name, :party, :region, :photo_url, :email)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		party = EXCLUDED.party,
		region = EXCLUDED.region,
		photo_url = EXCLUDED.photo_url,
		email = EXCLUDED.email
`

// ReplaceMembers overwrites members keyed by ID.
func (s *Store) ReplaceMembers(ctx context.Context, members []domain.Member) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	return s.db.inTx(ctx, "store.members", len(members), func(u *UnitOfWork) (int64, error) {
		return execEach(ctx, u, upsertMember, members)
	})
}

const upsertBill = `
	INSERT INTO bills (id, type_code, number, year, summary, author_id)
	VALUES (:id, :type_code, :number, :year, :summary, :author_id)
	ON CONFLICT (id) DO UPDATE SET
		type_code = EXCLUDED.type_code,
		number = EXCLUDED.number,
		year = EXCLUDED.year,
		summary = EXCLUDED.summary,
		author_id = EXCLUDED.author_id
`

// ReplaceBills overwrites bills keyed by ID.
func (s *Store) ReplaceBills(ctx context.Context, bills []domain.Bill) (int64, error) {
	if len(bills) == 0 {
		return 0, nil
	}
	return s.db.inTx(ctx, "store.bills", len(bills), func(u *UnitOfWork) (int64, error) {
		return execEach(ctx, u, upsertBill, bills)
	})
}

const upsertRollCall = `
	INSERT INTO roll_call_votes (id, bill_id, voted_at, outcome, nominal, yes_count, no_count, other_count, description, committee)
	VALUES (:id, :bill_id, :voted_at, :outcome, :nominal, :yes_count, :no_count, :other_count, :description, :committee)
	ON CONFLICT (id) DO UPDATE SET
		bill_id = EXCLUDED.bill_id,
		voted_at = EXCLUDED.voted_at,
		outcome = EXCLUDED.outcome,
		nominal = EXCLUDED.nominal,
		yes_count = EXCLUDED.yes_count,
		no_count = EXCLUDED.no_count,
		other_count = EXCLUDED.other_count,
		description = EXCLUDED.description,
		committee = EXCLUDED.committee
`

const insertIndividualVote = `
	INSERT INTO individual_votes (id, roll_call_id, member_id, value)
	VALUES (:id, :roll_call_id, :member_id, :value)
`

// ReplaceRollCalls overwrites roll calls keyed by ID and replaces the
// individual votes of every incoming roll call. Votes must belong to one of
// the incoming roll calls.
func (s *Store) ReplaceRollCalls(
	ctx context.Context,
	rollCalls []domain.RollCallVote,
	votes []domain.IndividualVote,
) (int64, error) {
	if len(rollCalls) == 0 && len(votes) == 0 {
		return 0, nil
	}
	return s.db.inTx(ctx, "store.roll_calls", len(rollCalls)+len(votes), func(u *UnitOfWork) (int64, error) {
		n, err := execEach(ctx, u, upsertRollCall, rollCalls)
		if err != nil {
			return 0, err
		}

		ids := make([]string, len(rollCalls))
		for i, rc := range rollCalls {
			ids[i] = rc.ID
		}
		if _, err := u.execIn(ctx, "DELETE FROM individual_votes WHERE roll_call_id IN (?)", ids); err != nil {
			return 0, err
		}

		inserted, err := execEach(ctx, u, insertIndividualVote, votes)
		if err != nil {
			return 0, err
		}
		return n + inserted, nil
	})
}

// Identity columns are never updated; only the amounts and the document link
// can change between extracts.
const upsertExpense = `
	INSERT INTO expenses (
		member_id, member_key, year, month, expense_type, document_type, document_date,
		document_number, document_url, document_code, batch_code, installment,
		gross_cents, net_cents, withheld_cents, supplier_name, supplier_tax_id
	) VALUES (
		:member_id, :member_key, :year, :month, :expense_type, :document_type, :document_date,
		:document_number, :document_url, :document_code, :batch_code, :installment,
		:gross_cents, :net_cents, :withheld_cents, :supplier_name, :supplier_tax_id
	)
	ON CONFLICT (member_key, year, month, expense_type, supplier_tax_id, document_number) DO UPDATE SET
		gross_cents = EXCLUDED.gross_cents,
		net_cents = EXCLUDED.net_cents,
		withheld_cents = EXCLUDED.withheld_cents,
		document_url = EXCLUDED.document_url
`

// UpsertExpenses inserts expenses or updates the amounts of existing ones.
func (s *Store) UpsertExpenses(ctx context.Context, expenses []domain.Expense) (int64, error) {
	if len(expenses) == 0 {
		return 0, nil
	}
	return s.db.inTx(ctx, "store.expenses", len(expenses), func(u *UnitOfWork) (int64, error) {
		return execEach(ctx, u, upsertExpense, expenses)
	})
}

const upsertVoteBillLink = `
	INSERT INTO vote_bill_links (roll_call_id, bill_id, title, summary, type_code, number, year, is_primary)
	VALUES (:roll_call_id, :bill_id, :title, :summary, :type_code, :number, :year, :is_primary)
	ON CONFLICT (roll_call_id, bill_id) DO UPDATE SET
		title = EXCLUDED.title,
		summary = EXCLUDED.summary,
		type_code = EXCLUDED.type_code,
		number = EXCLUDED.number,
		year = EXCLUDED.year,
		is_primary = EXCLUDED.is_primary
`

// UpsertVoteBillLinks inserts or updates links keyed by (roll call, bill).
func (s *Store) UpsertVoteBillLinks(ctx context.Context, links []domain.VoteBillLink) (int64, error) {
	if len(links) == 0 {
		return 0, nil
	}
	return s.db.inTx(ctx, "store.vote_bill_links", len(links), func(u *UnitOfWork) (int64, error) {
		return execEach(ctx, u, upsertVoteBillLink, links)
	})
}

const upsertPartyGuidance = `
	INSERT INTO party_guidance (roll_call_id, bloc, recommended)
	VALUES (:roll_call_id, :bloc, :recommended)
	ON CONFLICT (roll_call_id, bloc) DO UPDATE SET
		recommended = EXCLUDED.recommended
`

// UpsertPartyGuidance inserts or updates guidance keyed by (roll call, bloc).
func (s *Store) UpsertPartyGuidance(ctx context.Context, guidance []domain.PartyGuidance) (int64, error) {
	if len(guidance) == 0 {
		return 0, nil
	}
	return s.db.inTx(ctx, "store.party_guidance", len(guidance), func(u *UnitOfWork) (int64, error) {
		return execEach(ctx, u, upsertPartyGuidance, guidance)
	})
}
