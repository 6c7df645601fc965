// Package plan выполняет декларативный сценарий вложенных зон транзакций над координатором и сообщает,
// чем закончилась каждая зона и каждая транзакция.
//
// Сценарий описывается в YAML:
//
//	setup: ["CREATE TABLE items (name TEXT)"]
//	scopes:
//	  - mode: join
//	    scopes:
//	      - mode: new
//	        exec: ["INSERT INTO items VALUES ('inner')"]
//	        vote: rollback
//	    then: ["INSERT INTO items VALUES ('outer')"]
//	    vote: commit
//	checks:
//	  - name: outer
//	    query: "SELECT count(*) FROM items WHERE name = 'outer'"
//
// exec выполняется сразу после открытия зоны, then - после освобождения вложенных зон.
package plan

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	owdb "github.com/qbixus/owdb-go"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"strconv"
	"sync"
)

var ErrInvalidPlan = errors.New("#PLAN_INVALID")

type Mode string

const (
	ModeJoin Mode = "join"
	ModeNew  Mode = "new"
)

type Vote string

const (
	VoteCommit   Vote = "commit"
	VoteRollback Vote = "rollback"
	VoteNone     Vote = "none"
)

type Plan struct {
	Setup  []string `yaml:"setup"`
	Scopes []Step   `yaml:"scopes"`
	Checks []Check  `yaml:"checks"`
}

// Step - одна зона сценария.
type Step struct {
	Mode      Mode     `yaml:"mode"`
	Isolation string   `yaml:"isolation"`
	Exec      []string `yaml:"exec"`
	Scopes    []Step   `yaml:"scopes"`
	Then      []string `yaml:"then"`
	Vote      Vote     `yaml:"vote"`
}

// Check - скалярный запрос, выполняемый после закрытия координатора.
type Check struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

// Parse разбирает сценарий и дополняет шаги значениями по умолчанию: mode join, vote commit.
func Parse(data []byte) (Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Plan{}, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	if len(p.Scopes) == 0 {
		return Plan{}, fmt.Errorf("%w: no scopes", ErrInvalidPlan)
	}
	if err := normalize(p.Scopes, ""); err != nil {
		return Plan{}, err
	}
	for i, c := range p.Checks {
		if c.Query == "" {
			return Plan{}, fmt.Errorf("%w: check %d has no query", ErrInvalidPlan, i+1)
		}
		if c.Name == "" {
			p.Checks[i].Name = "check" + strconv.Itoa(i+1)
		}
	}
	return p, nil
}

func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return Plan{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func normalize(steps []Step, parent string) error {
	for i := range steps {
		s := &steps[i]
		path := stepPath(parent, i)
		switch s.Mode {
		case "":
			s.Mode = ModeJoin
		case ModeJoin, ModeNew:
		default:
			return fmt.Errorf("%w: scope %s: unknown mode %q", ErrInvalidPlan, path, s.Mode)
		}
		switch s.Vote {
		case "":
			s.Vote = VoteCommit
		case VoteCommit, VoteRollback, VoteNone:
		default:
			return fmt.Errorf("%w: scope %s: unknown vote %q", ErrInvalidPlan, path, s.Vote)
		}
		if s.Isolation != "" {
			if _, err := owdb.ParseIsolation(s.Isolation); err != nil {
				return fmt.Errorf("%w: scope %s: %w", ErrInvalidPlan, path, err)
			}
		}
		if err := normalize(s.Scopes, path); err != nil {
			return err
		}
	}
	return nil
}

// stepPath нумерует зоны с единицы: "2.1" - первая вложенная зона второй зоны верхнего уровня.
func stepPath(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i + 1)
	}
	return parent + "." + strconv.Itoa(i+1)
}

// ---

type Report struct {
	Scopes       []ScopeResult `yaml:"scopes"`
	Transactions []TxResult    `yaml:"transactions"`
	Checks       []CheckResult `yaml:"checks,omitempty"`
	CloseError   string        `yaml:"close_error,omitempty"`
}

// ScopeResult - итог зоны в порядке открытия. Error содержит ошибку открытия, выполнения или
// освобождения зоны.
type ScopeResult struct {
	Path    string `yaml:"path"`
	Tx      string `yaml:"tx,omitempty"`
	Ordinal string `yaml:"ordinal,omitempty"`
	Vote    string `yaml:"vote,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

// TxResult - итог транзакции в порядке завершения.
type TxResult struct {
	ID        string `yaml:"id"`
	Ordinal   string `yaml:"ordinal"`
	Isolation string `yaml:"isolation"`
	Outcome   string `yaml:"outcome"`
	Scopes    int    `yaml:"scopes"`
	Commits   int    `yaml:"commits"`
	Rollbacks int    `yaml:"rollbacks"`
}

type CheckResult struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// recorder собирает итоги транзакций.
type recorder struct {
	mu  sync.Mutex
	txs []TxResult
}

func (r *recorder) Committed(s owdb.Summary) {
	r.add(s)
}

func (r *recorder) RolledBack(s owdb.Summary) {
	r.add(s)
}

func (r *recorder) add(s owdb.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, TxResult{
		ID:        s.ID.String(),
		Ordinal:   s.Ordinal.String(),
		Isolation: s.Isolation.String(),
		Outcome:   s.Outcome.String(),
		Scopes:    s.Scopes,
		Commits:   s.Commits,
		Rollbacks: s.Rollbacks,
	})
}

// Run выполняет setup через db, затем зоны сценария в новом координаторе над connect и connString, закрывает
// координатор и выполняет проверки через db.
//
// Ошибки отдельных зон (в том числе конфликт изоляции и отсутствие голоса) попадают в отчет и не прерывают
// сценарий. Ошибка возвращается, если не удалось выполнить setup или проверку.
func Run(
	ctx context.Context, db *sql.DB, connString string, connect owdb.ConnectionFactory, p Plan, opts ...owdb.Option,
) (Report, error) {
	for i, stmt := range p.Setup {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return Report{}, fmt.Errorf("setup %d: %w", i+1, err)
		}
	}

	rec := &recorder{}
	opts = append([]owdb.Option{owdb.WithNotification(rec)}, opts...)
	c := owdb.NewCoordinator[owdb.NoSession](connString, connect, nil, opts...)
	r := runner{c: c}
	for i, step := range p.Scopes {
		r.run(ctx, step, stepPath("", i))
	}
	closeErr := c.Close()

	report := Report{Scopes: r.results, Transactions: rec.txs}
	if closeErr != nil {
		report.CloseError = closeErr.Error()
	}
	for _, check := range p.Checks {
		var value any
		if err := db.QueryRowContext(ctx, check.Query).Scan(&value); err != nil {
			return report, fmt.Errorf("check %s: %w", check.Name, err)
		}
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		report.Checks = append(report.Checks, CheckResult{Name: check.Name, Value: value})
	}
	return report, nil
}

type runner struct {
	c       *owdb.Coordinator[owdb.NoSession]
	results []ScopeResult
}

func (r *runner) run(ctx context.Context, step Step, path string) {
	var opts []owdb.ScopeOption
	if step.Isolation != "" {
		level, _ := owdb.ParseIsolation(step.Isolation)
		opts = append(opts, owdb.WithIsolation(level))
	}
	if step.Mode == ModeNew {
		opts = append(opts, owdb.WithRequiresNewTx())
	}

	idx := len(r.results)
	r.results = append(r.results, ScopeResult{Path: path})
	scope, err := r.c.Begin(ctx, opts...)
	if err != nil {
		r.results[idx].Error = err.Error()
		return
	}
	r.results[idx].Tx = scope.TransactionID().String()
	r.results[idx].Ordinal = scope.Ordinal().String()

	var errs []error
	failed := exec(ctx, scope, step.Exec, &errs)
	if !failed {
		for i, nested := range step.Scopes {
			r.run(ctx, nested, stepPath(path, i))
		}
		failed = exec(ctx, scope, step.Then, &errs)
	}

	switch {
	case failed || step.Vote == VoteRollback:
		errs = append(errs, scope.VoteRollback())
	case step.Vote == VoteCommit:
		errs = append(errs, scope.VoteCommit())
	}
	errs = append(errs, scope.Release())

	r.results[idx].Vote = scope.Vote().String()
	if err := errors.Join(errs...); err != nil {
		r.results[idx].Error = err.Error()
	}
}

func exec(ctx context.Context, scope *owdb.Scope[owdb.NoSession], stmts []string, errs *[]error) (failed bool) {
	for _, stmt := range stmts {
		if _, err := scope.ExecContext(ctx, stmt); err != nil {
			*errs = append(*errs, fmt.Errorf("exec %q: %w", stmt, err))
			return true
		}
	}
	return false
}
