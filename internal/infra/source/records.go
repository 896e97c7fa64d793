package source

import (
	"fmt"
	"time"

	"github.com/vietddude/legisync/internal/core/domain"
)

// Column names of the extract files.
const (
	colID          = "id"
	colName        = "nome"
	colParty       = "siglaPartido"
	colRegion      = "siglaUf"
	colPhotoURL    = "urlFoto"
	colEmail       = "email"
	colTypeCode    = "siglaTipo"
	colNumber      = "numero"
	colYear        = "ano"
	colSummary     = "ementa"
	colAuthorID    = "idAutor"
	colBillID      = "idProposicao"
	colVotedAt     = "dataHoraRegistro"
	colOutcome     = "aprovacao"
	colNominal     = "nominal"
	colYes         = "votosSim"
	colNo          = "votosNao"
	colOther       = "votosOutros"
	colDescription = "descricao"
	colCommittee   = "siglaOrgao"
	colRollCallID  = "idVotacao"
	colMemberID    = "idDeputado"
	colVote        = "voto"
	colTitle       = "titulo"
	colPrimary     = "principal"
	colBloc        = "siglaBancada"
	colGuidance    = "orientacao"

	colMonth          = "mes"
	colExpenseType    = "tipoDespesa"
	colDocumentType   = "tipoDocumento"
	colDocumentDate   = "dataDocumento"
	colDocumentNumber = "numDocumento"
	colDocumentURL    = "urlDocumento"
	colDocumentCode   = "codDocumento"
	colBatchCode      = "codLote"
	colInstallment    = "parcela"
	colGross          = "valorDocumento"
	colNet            = "valorLiquido"
	colWithheld       = "valorGlosa"
	colSupplierName   = "nomeFornecedor"
	colSupplierTaxID  = "cnpjCpfFornecedor"
)

type memberRecord struct {
	ID       int64  `validate:"gt=0"`
	Name     string `validate:"required"`
	Region   string `validate:"omitempty,len=2,alpha"`
	PhotoURL string `validate:"omitempty,url"`
	Email    string `validate:"omitempty,email"`
}

// Members reads the member extract.
func (r *Reader) Members() ([]domain.Member, error) {
	var out []domain.Member
	err := r.each("source.members", r.files.Members, []string{colID, colName}, func(rw *row) error {
		m := domain.Member{
			ID:       rw.id(colID),
			Name:     rw.str(colName),
			Party:    rw.str(colParty),
			Region:   rw.str(colRegion),
			PhotoURL: rw.optStr(colPhotoURL),
			Email:    rw.optStr(colEmail),
		}
		rec := memberRecord{ID: m.ID, Name: m.Name, Region: m.Region}
		if m.PhotoURL != nil {
			rec.PhotoURL = *m.PhotoURL
		}
		if m.Email != nil {
			rec.Email = *m.Email
		}
		if err := r.check(rw, rec); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

type billRecord struct {
	ID       int64  `validate:"gt=0"`
	TypeCode string `validate:"required,max=10"`
	Number   int    `validate:"gte=0"`
	Year     int    `validate:"gte=1800,lte=2200"`
}

// Bills reads the bill extract.
func (r *Reader) Bills() ([]domain.Bill, error) {
	var out []domain.Bill
	required := []string{colID, colTypeCode, colNumber, colYear, colSummary}
	err := r.each("source.bills", r.files.Bills, required, func(rw *row) error {
		b := domain.Bill{
			ID:       rw.id(colID),
			TypeCode: rw.str(colTypeCode),
			Number:   rw.num(colNumber),
			Year:     rw.num(colYear),
			Summary:  rw.str(colSummary),
			AuthorID: rw.optID(colAuthorID),
		}
		if err := r.check(rw, billRecord{ID: b.ID, TypeCode: b.TypeCode, Number: b.Number, Year: b.Year}); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	return out, err
}

type rollCallRecord struct {
	ID         string    `validate:"required"`
	VotedAt    time.Time `validate:"required"`
	YesCount   int       `validate:"gte=0"`
	NoCount    int       `validate:"gte=0"`
	OtherCount int       `validate:"gte=0"`
}

// RollCalls reads the roll call extract.
func (r *Reader) RollCalls() ([]domain.RollCallVote, error) {
	var out []domain.RollCallVote
	err := r.each("source.roll_calls", r.files.RollCalls, []string{colID, colVotedAt}, func(rw *row) error {
		rc := domain.RollCallVote{
			ID:          rw.str(colID),
			BillID:      rw.optID(colBillID),
			VotedAt:     rw.timestamp(colVotedAt),
			Outcome:     rw.str(colOutcome),
			Nominal:     rw.flag(colNominal),
			YesCount:    rw.num(colYes),
			NoCount:     rw.num(colNo),
			OtherCount:  rw.num(colOther),
			Description: rw.str(colDescription),
			Committee:   rw.str(colCommittee),
		}
		rec := rollCallRecord{
			ID:         rc.ID,
			VotedAt:    rc.VotedAt,
			YesCount:   rc.YesCount,
			NoCount:    rc.NoCount,
			OtherCount: rc.OtherCount,
		}
		if err := r.check(rw, rec); err != nil {
			return err
		}
		out = append(out, rc)
		return nil
	})
	return out, err
}

type voteRecord struct {
	RollCallID string `validate:"required"`
	MemberID   int64  `validate:"gt=0"`
	Value      string `validate:"required"`
}

// Votes reads the individual vote extract. IDs are derived from the roll call
// and member so re-imports are stable.
func (r *Reader) Votes() ([]domain.IndividualVote, error) {
	var out []domain.IndividualVote
	required := []string{colRollCallID, colMemberID, colVote}
	err := r.each("source.votes", r.files.Votes, required, func(rw *row) error {
		v := domain.IndividualVote{
			RollCallID: rw.str(colRollCallID),
			MemberID:   rw.id(colMemberID),
			Value:      rw.str(colVote),
		}
		if err := r.check(rw, voteRecord{RollCallID: v.RollCallID, MemberID: v.MemberID, Value: v.Value}); err != nil {
			return err
		}
		v.ID = domain.IndividualVoteID(v.RollCallID, v.MemberID)
		out = append(out, v)
		return nil
	})
	return out, err
}

type expenseRecord struct {
	Year        int    `validate:"gte=2000,lte=2200"`
	ExpenseType string `validate:"required"`
	Installment int    `validate:"gte=0"`
}

// Expenses reads the expense extract. Amounts accept both "1234.56" and
// "1.234,56". Records come back normalized.
func (r *Reader) Expenses() ([]domain.Expense, error) {
	var out []domain.Expense
	required := []string{colYear, colMonth, colExpenseType, colGross}
	err := r.each("source.expenses", r.files.Expenses, required, func(rw *row) error {
		e := domain.Expense{
			MemberID:       rw.optID(colMemberID),
			Year:           rw.num(colYear),
			Month:          rw.num(colMonth),
			ExpenseType:    rw.str(colExpenseType),
			DocumentType:   rw.str(colDocumentType),
			DocumentDate:   rw.optTime(colDocumentDate),
			DocumentNumber: rw.str(colDocumentNumber),
			DocumentURL:    rw.str(colDocumentURL),
			DocumentCode:   rw.str(colDocumentCode),
			BatchCode:      rw.str(colBatchCode),
			Installment:    rw.num(colInstallment),
			GrossAmount:    rw.cents(colGross),
			NetAmount:      rw.cents(colNet),
			WithheldAmount: rw.cents(colWithheld),
			SupplierName:   rw.str(colSupplierName),
			SupplierTaxID:  rw.str(colSupplierTaxID),
		}
		// The open-data extract uses 0 for expenses of party leaderships.
		if e.MemberID != nil && *e.MemberID == domain.NoMember {
			e.MemberID = nil
		}
		if err := r.check(rw, expenseRecord{Year: e.Year, ExpenseType: e.ExpenseType, Installment: e.Installment}); err != nil {
			return err
		}
		if e.Month < 1 || e.Month > 12 {
			return rw.fail(fmt.Errorf("%w: got %d", domain.ErrInvalidMonth, e.Month))
		}
		e.Normalize()
		out = append(out, e)
		return nil
	})
	return out, err
}

type linkRecord struct {
	RollCallID string `validate:"required"`
	BillID     int64  `validate:"gt=0"`
}

// VoteBillLinks reads the roll call to bill junction extract.
func (r *Reader) VoteBillLinks() ([]domain.VoteBillLink, error) {
	var out []domain.VoteBillLink
	required := []string{colRollCallID, colBillID}
	err := r.each("source.vote_bill_links", r.files.VoteBillLinks, required, func(rw *row) error {
		l := domain.VoteBillLink{
			RollCallID: rw.str(colRollCallID),
			BillID:     rw.id(colBillID),
			Title:      rw.str(colTitle),
			Summary:    rw.str(colSummary),
			TypeCode:   rw.str(colTypeCode),
			Number:     rw.num(colNumber),
			Year:       rw.num(colYear),
			Primary:    rw.flag(colPrimary),
		}
		if err := r.check(rw, linkRecord{RollCallID: l.RollCallID, BillID: l.BillID}); err != nil {
			return err
		}
		out = append(out, l)
		return nil
	})
	return out, err
}

type guidanceRecord struct {
	RollCallID  string `validate:"required"`
	Bloc        string `validate:"required"`
	Recommended string `validate:"required"`
}

// PartyGuidance reads the party guidance extract.
func (r *Reader) PartyGuidance() ([]domain.PartyGuidance, error) {
	var out []domain.PartyGuidance
	required := []string{colRollCallID, colBloc, colGuidance}
	err := r.each("source.party_guidance", r.files.PartyGuidance, required, func(rw *row) error {
		g := domain.PartyGuidance{
			RollCallID:  rw.str(colRollCallID),
			Bloc:        rw.str(colBloc),
			Recommended: rw.str(colGuidance),
		}
		if err := r.check(rw, guidanceRecord(g)); err != nil {
			return err
		}
		out = append(out, g)
		return nil
	})
	return out, err
}
