package harness

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/progression/internal/store"
)

// AssertionError is returned when an assertion fails. Trace assertions carry
// the full trace so a failure can be read without rerunning the scenario.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s assertion failed\n  expected: %s\n  actual:   %s\n", e.Type, e.Expected, e.Actual)
	if len(e.Trace) > 0 {
		b.WriteString("trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&b, "  step %d %-5s %-12s %v -> %s\n", ev.Step, ev.Phase, ev.Action, ev.Args, ev.Code)
		}
	}
	return b.String()
}

// AssertionContext provides database access for state assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions checks every assertion against result and, for state
// assertions, the database in actx. It returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertFinalState, AssertRowCount:
		if actx == nil || actx.Store == nil {
			return fmt.Errorf("%s requires database context", a.Type)
		}
		if a.Type == AssertFinalState {
			return assertFinalState(actx.Ctx, actx.Store, a)
		}
		return assertRowCount(actx.Ctx, actx.Store, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// stepMatches reports whether ev ran action and, when code is set, ended
// with code.
func stepMatches(ev TraceEvent, action, code string) bool {
	return ev.Action == action && (code == "" || ev.Code == code)
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	found := slices.ContainsFunc(trace, func(ev TraceEvent) bool {
		return stepMatches(ev, a.Action, a.Code) && matchSubset(ev.Result, a.Result)
	})
	if found {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s step (code %q) with result %v", a.Action, a.Code, a.Result),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrence of each action comes
// after the first occurrence of the one listed before it. Other steps may
// run in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	pos := make([]int, len(a.Actions))
	for i, action := range a.Actions {
		pos[i] = slices.IndexFunc(trace, func(ev TraceEvent) bool { return ev.Action == action })
		if pos[i] < 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("steps in order: %v", a.Actions),
				Actual:   "missing action: " + action,
				Trace:    trace,
			}
		}
		if i > 0 && pos[i-1] >= pos[i] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("steps in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (step %d) should be before %s (step %d)",
					a.Actions[i-1], trace[pos[i-1]].Step, action, trace[pos[i]].Step),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if stepMatches(ev, a.Action, a.Code) {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d %s steps (code %q)", a.Count, a.Action, a.Code),
		Actual:   fmt.Sprintf("%d occurrences", n),
		Trace:    trace,
	}
}

// assertFinalState checks that exactly one row of the table matches Where
// and that it holds every value in Expect.
func assertFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	rows, err := selectRows(ctx, st, a.Table, a.Where)
	if err != nil {
		return err
	}

	target := fmt.Sprintf("%s where %s", a.Table, describeWhere(a.Where))
	if len(rows) != 1 {
		actual := "row not found"
		if len(rows) > 1 {
			actual = fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(rows))
		}
		return &AssertionError{Type: AssertFinalState, Expected: "exactly one row in " + target, Actual: actual}
	}

	row := rows[0]
	for _, col := range slices.Sorted(maps.Keys(a.Expect)) {
		want := a.Expect[col]
		got, ok := row[col]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Table, col, want),
				Actual:   fmt.Sprintf("field %q not present in row %v", col, row),
			}
		}
		if !stateValuesEqual(want, got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v (%T) in %s", a.Table, col, want, want, target),
				Actual:   fmt.Sprintf("%v (%T)", got, got),
			}
		}
	}
	return nil
}

func assertRowCount(ctx context.Context, st *store.Store, a Assertion) error {
	rows, err := selectRows(ctx, st, a.Table, a.Where)
	if err != nil {
		return err
	}
	if len(rows) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRowCount,
		Expected: fmt.Sprintf("%d rows in %s where %s", a.Count, a.Table, describeWhere(a.Where)),
		Actual:   fmt.Sprintf("%d rows", len(rows)),
	}
}

// tableColumns returns the columns of table as reported by SQLite. Only
// names that come back from here are ever interpolated into a query.
func tableColumns(ctx context.Context, st *store.Store, table string) (map[string]bool, error) {
	rows, err := st.DB().QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %q: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("inspect table %q: %w", table, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect table %q: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("invalid table name %q: no such table", table)
	}
	return cols, nil
}

// selectRows returns every row of table matching where, keyed by column.
func selectRows(ctx context.Context, st *store.Store, table string, where map[string]any) ([]map[string]any, error) {
	cols, err := tableColumns(ctx, st, table)
	if err != nil {
		return nil, err
	}
	cond, args, err := buildWhereClause(cols, where)
	if err != nil {
		return nil, err
	}

	query := `SELECT * FROM "` + table + `"`
	if cond != "" {
		query += " WHERE " + cond
	}
	rows, err := st.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// buildWhereClause turns where into an AND of equality tests over columns
// of cols, in sorted key order.
func buildWhereClause(cols map[string]bool, where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}
	keys := slices.Sorted(maps.Keys(where))
	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		if !cols[k] {
			return "", nil, fmt.Errorf("invalid column name %q in where clause", k)
		}
		conds = append(conds, `"`+k+`" = ?`)
		args = append(args, sqlValue(where[k]))
	}
	return strings.Join(conds, " AND "), args, nil
}

// sqlValue converts a decoded YAML scalar to what the schema stores.
// Booleans are kept as 0/1.
func sqlValue(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return 1
		}
		return 0
	case string, int, int64, float64:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func describeWhere(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range slices.Sorted(maps.Keys(where)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares an expected YAML value with a column value.
// SQLite hands integers back as int64 and booleans as 0/1.
func stateValuesEqual(expected, actual any) bool {
	if b, ok := expected.(bool); ok {
		switch a := actual.(type) {
		case bool:
			return a == b
		case int64:
			return b == (a != 0)
		}
		return false
	}
	return valuesEqual(actual, expected)
}

// matchSubset reports whether actual is a map holding every key of expected
// with an equal value. Extra keys in actual are ignored.
func matchSubset(actual any, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}
	m, ok := actual.(map[string]any)
	if !ok {
		return false
	}
	for k, want := range expected {
		got, ok := m[k]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares numbers by value whatever their Go type, maps by
// subset and slices element-wise.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if e, ok := asFloat(expected); ok {
		a, ok := asFloat(actual)
		return ok && a == e
	}
	switch e := expected.(type) {
	case map[string]any:
		return matchSubset(actual, e)
	case []any:
		a, ok := actual.([]any)
		return ok && slices.EqualFunc(a, e, valuesEqual)
	}
	return reflect.DeepEqual(actual, expected)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
