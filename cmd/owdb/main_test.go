package main

import (
	"bytes"
	"github.com/qbixus/owdb-go/internal/config"
	"github.com/qbixus/owdb-go/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"testing"
)

const nestedPlan = `
setup: ["CREATE TABLE items (name TEXT NOT NULL)"]
scopes:
  - scopes:
      - mode: new
        exec: ["INSERT INTO items VALUES ('inner')"]
        vote: rollback
    then: ["INSERT INTO items VALUES ('outer')"]
checks:
  - name: items
    query: "SELECT count(*) FROM items"
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func dsn(t *testing.T) string {
	return "file:" + filepath.Join(t.TempDir(), "cli.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
}

func TestRunCmd(t *testing.T) {
	t.Run("Печатает отчет в YAML", func(t *testing.T) {
		assert_ := assert.New(t)
		planPath := writeFile(t, "plan.yaml", nestedPlan)

		// Act
		out, actErr := execute(t, "run", planPath, "--dsn", dsn(t))

		require.NoError(t, actErr)
		var report plan.Report
		require.NoError(t, yaml.Unmarshal([]byte(out), &report))
		assert_.Len(report.Scopes, 2)
		assert_.Equal("#1", report.Scopes[1].Ordinal)
		assert_.Equal([]string{"rolled back", "committed"},
			[]string{report.Transactions[0].Outcome, report.Transactions[1].Outcome})
		assert_.Equal("Serializable", report.Transactions[1].Isolation)
		assert_.Equal([]plan.CheckResult{{Name: "items", Value: 1}}, report.Checks)
	})

	t.Run("Флаги переопределяют файл настроек", func(t *testing.T) {
		assert_ := assert.New(t)
		cfgPath := writeFile(t, "owdb.yaml", "dsn: file:unused.db\nisolation: serializable\n")
		planPath := writeFile(t, "plan.yaml", nestedPlan)

		// Act
		out, actErr := execute(t, "run", planPath, "--config", cfgPath, "--dsn", dsn(t), "--verbose")

		require.NoError(t, actErr)
		assert_.Contains(out, "outcome: committed")
	})

	t.Run("Возвращает ошибку без dsn", func(t *testing.T) {
		planPath := writeFile(t, "plan.yaml", nestedPlan)

		// Act
		_, actErr := execute(t, "run", planPath)

		assert.ErrorIs(t, actErr, config.ErrInvalidConfig)
	})

	t.Run("Возвращает ошибку некорректного плана", func(t *testing.T) {
		planPath := writeFile(t, "plan.yaml", "scopes:\n  - mode: sideways\n")

		// Act
		_, actErr := execute(t, "run", planPath, "--dsn", dsn(t))

		assert.ErrorIs(t, actErr, plan.ErrInvalidPlan)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("Флаг isolation переопределяет файл", func(t *testing.T) {
		assert_ := assert.New(t)
		cfgPath := writeFile(t, "owdb.yaml", "driver: sqlite\ndsn: file:a.db\nisolation: serializable\n")
		cmd := newRunCmd()
		require.NoError(t, cmd.Flags().Parse([]string{"--isolation", "read-committed"}))

		// Act
		actual, actErr := loadConfig(cmd, cfgPath, config.Config{Driver: "sqlite", Isolation: "read-committed"}, true)

		assert_.NoError(actErr)
		assert_.Equal("file:a.db", actual.DSN)
		assert_.Equal("read-committed", actual.Isolation)
		assert_.Equal("debug", actual.Log.Level)
	})

	t.Run("Изоляция по умолчанию следует драйверу из флага", func(t *testing.T) {
		assert_ := assert.New(t)
		cfgPath := writeFile(t, "owdb.yaml", "driver: pgx\ndsn: file:a.db\n")
		cmd := newRunCmd()
		require.NoError(t, cmd.Flags().Parse([]string{"--driver", "sqlite"}))

		// Act
		actual, actErr := loadConfig(cmd, cfgPath, config.Config{Driver: "sqlite"}, false)

		assert_.NoError(actErr)
		assert_.Equal("sqlite", actual.Driver)
		assert_.Equal("serializable", actual.Isolation)
		assert_.Equal(config.DefaultLogLevel, actual.Log.Level)
	})

	t.Run("Без флага driver берет драйвер из файла", func(t *testing.T) {
		cfgPath := writeFile(t, "owdb.yaml", "driver: pgx\ndsn: file:a.db\n")
		cmd := newRunCmd()

		// Act
		actual, actErr := loadConfig(cmd, cfgPath, config.Config{Driver: config.DefaultDriver}, false)

		assert.NoError(t, actErr)
		assert.Equal(t, "pgx", actual.Driver)
		assert.Equal(t, config.DefaultIsolation, actual.Isolation)
	})
}

func TestVersionCmd(t *testing.T) {
	// Act
	out, actErr := execute(t, "version")

	assert.NoError(t, actErr)
	assert.Equal(t, "owdb dev\n", out)
}
