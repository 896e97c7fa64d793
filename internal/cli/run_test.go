package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/legisync/internal/core/config"
	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/infra/source"
	"github.com/vietddude/legisync/internal/infra/storage"
	"github.com/vietddude/legisync/internal/infra/storage/memory"
	"github.com/vietddude/legisync/internal/infra/storage/sqlstore"
)

var extracts = map[string]string{
	"deputados.csv": "id;nome;siglaPartido;siglaUf\n" +
		"204554;Ana Souza;PT;SP\n" +
		"204555;Bruno Lima;PL;RJ\n",
	"proposicoes.csv": "id;siglaTipo;numero;ano;ementa;idAutor\n" +
		"2390000;PL;1087;2024;Dispõe sobre a vacinação nas escolas públicas;204554\n" +
		"2390001;PL;1088;2024;Inscreve o nome de Tiradentes no Livro dos Heróis;999999\n",
	"votacoes.csv": "id;idProposicao;dataHoraRegistro;aprovacao;votosSim;votosNao\n" +
		"2390000-43;2390000;2024-04-02T20:15:31;Aprovado;2;0\n",
	"votos.csv": "idVotacao;idDeputado;voto\n" +
		"2390000-43;204554;Sim\n" +
		"2390000-43;204555;Sim\n" +
		"2390000-99;204555;Não\n",
	"despesas.csv": "idDeputado;ano;mes;tipoDespesa;numDocumento;valorDocumento;cnpjCpfFornecedor\n" +
		"204554;2024;3;TELEFONIA;NF-1;99,90;12.345.678/0001-90\n" +
		"0;2024;3;PASSAGEM AÉREA;BIL-7;1.234,56;\n",
	"votacoes_proposicoes.csv": "idVotacao;idProposicao;titulo;principal\n" +
		"2390000-43;2390000;PL 1087/2024;1\n",
	"orientacoes.csv": "idVotacao;siglaBancada;orientacao\n" +
		"2390000-43;PT;Sim\n" +
		"2390000-43;PL;Liberado\n",
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "data")
	require.NoError(t, os.Mkdir(input, 0o755))
	for name, content := range extracts {
		require.NoError(t, os.WriteFile(filepath.Join(input, name), []byte(content), 0o644))
	}

	return &config.AppConfig{
		InputDir: input,
		Database: sqlstore.Config{
			Driver:   sqlstore.DriverSQLite,
			URL:      filepath.Join(dir, "legisync.db"),
			MaxConns: 1,
			MinConns: 1,
			Migrate:  true,
		},
		Retry:  config.RetryConfig{MaxAttempts: 1, InitialWait: time.Millisecond},
		Source: source.Config{Delimiter: ";"},
	}
}

func counts(t *testing.T, cfg *config.AppConfig) map[string]int64 {
	t.Helper()
	store, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	c, err := store.Counts(context.Background())
	require.NoError(t, err)
	return c
}

func TestExecuteLoadsExtracts(t *testing.T) {
	cfg := testConfig(t)

	require.Equal(t, 0, execute(t.Context(), cfg))

	c := counts(t, cfg)
	assert.Equal(t, int64(2), c[storage.TableMembers])
	assert.Equal(t, int64(2), c[storage.TableBills])
	assert.Equal(t, int64(1), c[storage.TableRollCalls])
	assert.Equal(t, int64(2), c[storage.TableIndividualVotes], "vote of an unknown roll call is dropped")
	assert.Equal(t, int64(2), c[storage.TableExpenses])
	assert.Equal(t, int64(1), c[storage.TableVoteBillLinks])
	assert.Equal(t, int64(2), c[storage.TablePartyGuidance])
	assert.Equal(t, int64(len(domain.Catalog)), c[storage.TableCategories])

	store, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	tags, err := store.ListBillCategories(context.Background(), 2390000)
	require.NoError(t, err)
	codes := make([]string, 0, len(tags))
	for _, tag := range tags {
		assert.Equal(t, domain.OriginRule, tag.Origin)
		codes = append(codes, tag.CategoryCode)
	}
	assert.Contains(t, codes, domain.CategoryHealth)
	assert.Contains(t, codes, domain.CategoryEducation)
}

func TestExecuteIsRepeatable(t *testing.T) {
	cfg := testConfig(t)

	require.Equal(t, 0, execute(t.Context(), cfg))
	first := counts(t, cfg)
	require.Equal(t, 0, execute(t.Context(), cfg))

	assert.Equal(t, first, counts(t, cfg))
}

func TestExecuteMissingInputDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputDir = filepath.Join(t.TempDir(), "missing")

	assert.Equal(t, 1, execute(t.Context(), cfg))
	assert.NoFileExists(t, cfg.Database.URL, "store is not opened")
}

func TestExecuteWithoutDatabaseURLUsesMemoryStore(t *testing.T) {
	cfg := testConfig(t)
	dbPath := cfg.Database.URL
	cfg.Database.URL = ""

	store, err := openStore(t.Context(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.MemoryStorage{}, store)
	require.NoError(t, store.Close())

	assert.Equal(t, 0, execute(t.Context(), cfg))
	assert.NoFileExists(t, dbPath)
	assert.Equal(t, 1, migrateSchema(t.Context(), cfg), "nothing to migrate without a database")
}

func TestCommandsReturnExitCodes(t *testing.T) {
	cfg := testConfig(t)

	require.Equal(t, 0, migrateSchema(t.Context(), cfg))
	assert.Equal(t, 0, classifyBills(t.Context(), cfg), "classifies an empty store")
	assert.Equal(t, 0, showStatus(t.Context(), cfg))

	cfg.Database.Driver = "mysql"
	assert.Equal(t, 1, classifyBills(t.Context(), cfg))
	assert.Equal(t, 1, showStatus(t.Context(), cfg))
}

func TestExecuteBadExpenseHaltsRun(t *testing.T) {
	cfg := testConfig(t)
	bad := "idDeputado;ano;mes;tipoDespesa;valorDocumento\n204554;2024;13;TELEFONIA;10\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "despesas.csv"), []byte(bad), 0o644))

	assert.Equal(t, 1, execute(t.Context(), cfg))

	c := counts(t, cfg)
	assert.Equal(t, int64(2), c[storage.TableMembers], "stages before the failure stay committed")
	assert.Zero(t, c[storage.TableExpenses])
	assert.Zero(t, c[storage.TableBillCategories], "classification is skipped")
}
