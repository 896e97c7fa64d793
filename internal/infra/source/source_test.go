package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/core/errs"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestMembers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "deputados.csv", "\ufeffid;nome;siglaPartido;siglaUf;urlFoto;email\n"+
		"204554;Ana Souza;PT;SP;https://www.camara.leg.br/foto/204554.jpg;ana@camara.leg.br\n"+
		"204555; Bruno Lima ;PL;RJ;;\n")

	members, err := NewReader(dir, Config{}).Members()
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, int64(204554), members[0].ID)
	require.NotNil(t, members[0].Email)
	assert.Equal(t, "ana@camara.leg.br", *members[0].Email)

	assert.Equal(t, "Bruno Lima", members[1].Name)
	assert.Nil(t, members[1].PhotoURL)
	assert.Nil(t, members[1].Email)
}

func TestMembersInvalidRegion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "deputados.csv", "id;nome;siglaUf\n1;Ana;SP\n2;Bruno;RJX\n")

	_, err := NewReader(dir, Config{}).Members()
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.Contains(t, err.Error(), "deputados.csv:3")
}

func TestMissingFile(t *testing.T) {
	_, err := NewReader(t.TempDir(), Config{}).Bills()
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
}

func TestEmptyFileAndMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "proposicoes.csv", "")
	writeFile(t, dir, "votos.csv", "idVotacao;idDeputado\n1-1;2\n")

	r := NewReader(dir, Config{})

	_, err := r.Bills()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")

	_, err = r.Votes()
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.Contains(t, err.Error(), `missing column "voto"`)
}

func TestBillsAndRollCalls(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "proposicoes.csv", "id;siglaTipo;numero;ano;ementa;idAutor\n"+
		"2390000;PL;1087;2024;\"Altera a Lei nº 8.080; dispõe sobre o SUS\";204554\n"+
		"2390001;PEC;45;2019;Reforma tributária;\n")
	writeFile(t, dir, "votacoes.csv", "id;idProposicao;dataHoraRegistro;aprovacao;nominal;votosSim;votosNao;votosOutros;descricao;siglaOrgao\n"+
		"2390000-43;2390000;2024-04-02T20:15:31;Aprovado;Sim;301;140;2;Votação em turno único;PLEN\n"+
		"2390001-10;;2024-04-03;Rejeitado;0;0;0;0;;CCJC\n")

	r := NewReader(dir, Config{})

	bills, err := r.Bills()
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "Altera a Lei nº 8.080; dispõe sobre o SUS", bills[0].Summary)
	require.NotNil(t, bills[0].AuthorID)
	assert.Equal(t, int64(204554), *bills[0].AuthorID)
	assert.Nil(t, bills[1].AuthorID)

	calls, err := r.RollCalls()
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.True(t, calls[0].Nominal)
	assert.Equal(t, 301, calls[0].YesCount)
	assert.Equal(t, time.Date(2024, 4, 2, 20, 15, 31, 0, time.UTC), calls[0].VotedAt)
	assert.Nil(t, calls[1].BillID)
	assert.False(t, calls[1].Nominal)
}

func TestRollCallsBadTimestamp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "votacoes.csv", "id;dataHoraRegistro\n1-1;ontem\n")

	_, err := NewReader(dir, Config{}).RollCalls()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "votacoes.csv:2")
	assert.Contains(t, err.Error(), "dataHoraRegistro")
}

func TestVotesGetStableIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "votos.csv", "idVotacao;idDeputado;voto\n2390000-43;204554;Sim\n")

	votes, err := NewReader(dir, Config{}).Votes()
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, domain.IndividualVoteID("2390000-43", 204554), votes[0].ID)
}

func TestExpenses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "despesas.csv", "idDeputado,ano,mes,tipoDespesa,dataDocumento,numDocumento,valorDocumento,valorLiquido,valorGlosa,cnpjCpfFornecedor\n"+
		"204554,2024,3,TELEFONIA,2024-03-10,nf-1,\"1.234,56\",1234.56,0,12.345.678/0001-90\n"+
		"0,2024,4,PASSAGEM AÉREA,,,99.90,99.90,,\n")

	expenses, err := NewReader(dir, Config{Delimiter: ","}).Expenses()
	require.NoError(t, err)
	require.Len(t, expenses, 2)

	e := expenses[0]
	assert.Equal(t, domain.Cents(123456), e.GrossAmount)
	assert.Equal(t, domain.Cents(123456), e.NetAmount)
	assert.Equal(t, "12345678000190", e.SupplierTaxID)
	assert.Equal(t, "NF-1", e.DocumentNumber)
	assert.Equal(t, int64(204554), e.MemberKey)
	require.NotNil(t, e.DocumentDate)

	leadership := expenses[1]
	assert.Nil(t, leadership.MemberID)
	assert.Equal(t, domain.NoMember, leadership.MemberKey)
	assert.Nil(t, leadership.DocumentDate)
}

func TestExpensesInvalidMonth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "despesas.csv", "idDeputado;ano;mes;tipoDespesa;valorDocumento\n"+
		"1;2024;1;TELEFONIA;10\n"+
		"1;2024;13;TELEFONIA;10\n")

	_, err := NewReader(dir, Config{}).Expenses()
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.True(t, errors.Is(err, domain.ErrInvalidMonth))
	assert.Contains(t, err.Error(), "despesas.csv:3")
}

func TestExpensesAmbiguousAmount(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "despesas.csv", "idDeputado;ano;mes;tipoDespesa;valorDocumento\n"+
		"1;2024;1;TELEFONIA;1.234,56\n"+
		"1;2024;2;TELEFONIA;1234.567\n")

	_, err := NewReader(dir, Config{}).Expenses()
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Contains(t, err.Error(), "despesas.csv:3")
}

func TestLinksAndGuidance(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "votacoes_proposicoes.csv", "idVotacao;idProposicao;titulo;principal\n2390000-43;2390000;PL 1087/2024;1\n")
	writeFile(t, dir, "orientacoes.csv", "idVotacao;siglaBancada;orientacao\n2390000-43;PT;Sim\n2390000-43;;Não\n")

	r := NewReader(dir, Config{})

	links, err := r.VoteBillLinks()
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].Primary)
	assert.Equal(t, "PL 1087/2024", links[0].Title)

	_, err = r.PartyGuidance()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orientacoes.csv:3")
}

func TestCustomFileNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "members.csv", "id;nome\n1;Ana\n")

	r := NewReader(dir, Config{Files: Files{Members: "members.csv"}})
	assert.Equal(t, "members.csv", r.Files().Members)
	assert.Equal(t, "proposicoes.csv", r.Files().Bills)

	members, err := r.Members()
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
