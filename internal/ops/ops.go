// Package ops is the fixed catalog of analysis operations over a ledger.
//
// The catalog is closed: every Operation is built in this package from a
// typed argument struct, whose JSON schema drives argument validation and
// the catalog description handed to the language model.
package ops

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/shopspring/decimal"

	"github.com/rcliao/expense-assistant/internal/category"
	"github.com/rcliao/expense-assistant/internal/ledger"
	"github.com/rcliao/expense-assistant/internal/model"
	"github.com/rcliao/expense-assistant/internal/timeexpr"
)

// Name identifies an operation.
type Name string

const (
	TopNExpenses           Name = "top_n_expenses"
	ListMonthExpenses      Name = "list_month_expenses"
	SumCategoryExpenses    Name = "sum_category_expenses"
	DateRangeExpense       Name = "date_range_expense"
	SummarizeMemory        Name = "summarize_memory"
	CompareMonths          Name = "compare_months"
	CompareCategory        Name = "compare_category"
	AverageCategoryExpense Name = "average_category_expense"
	CategorySummary        Name = "category_summary"
)

// DefaultCurrency prefixes rendered amounts when Env.Currency is empty.
const DefaultCurrency = "₹"

// Example pairs a query with the arguments it should extract to.
type Example struct {
	Query     string          `json:"query"`
	Arguments model.Arguments `json:"arguments"`
}

// Param describes one argument of an operation.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// Operation is a catalog entry. It is implemented only by this package.
type Operation interface {
	Name() Name
	Summary() string
	Params() []Param
	Examples() []Example
	run(env *Env, args model.Arguments) (Output, *model.StepFailure)
}

// Output is what an operation produces on success.
type Output struct {
	Text  string
	Chart *model.Chart
}

// Env is the read-only context operations execute against.
type Env struct {
	Table      *ledger.Table
	Memory     []model.MemoryEntry
	Categories *category.Matcher
	Currency   string
}

func (e *Env) money(d decimal.Decimal) string {
	c := e.Currency
	if c == "" {
		c = DefaultCurrency
	}
	return c + d.StringFixed(2)
}

func (e *Env) category(raw string) (string, *model.StepFailure) {
	m := e.Categories
	if m == nil {
		m = category.NewMatcher(category.DefaultThreshold, 0)
	}
	matched, ok := m.Match(raw, e.Table.Categories())
	if !ok {
		return "", model.Fail(model.Unresolved, "no matching category found for '%s'", raw)
	}
	return matched, nil
}

func (e *Env) month(raw string) (string, *model.StepFailure) {
	if tok, ok := timeexpr.ParseMonth(raw); ok {
		return tok, nil
	}
	return "", model.Fail(model.Unresolved, "could not understand month '%s'", raw)
}

// months normalizes each element, dropping ones that cannot be parsed.
func (e *Env) months(raw []string) ([]string, *model.StepFailure) {
	var out []string
	for _, r := range raw {
		if tok, ok := timeexpr.ParseMonth(r); ok {
			out = append(out, tok)
		}
	}
	if len(out) == 0 {
		return nil, model.Fail(model.Unresolved, "no valid months in %v", raw)
	}
	return out, nil
}

// Result is the outcome of Execute: Output on success, Failure otherwise.
type Result struct {
	Output
	Failure *model.StepFailure
}

// Execute runs the named operation. It never panics: executor panics are
// reported as execution failures.
func Execute(env *Env, name string, args model.Arguments) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Failure: model.Fail(model.ExecutionFailed, "%v", r)}
		}
	}()

	op, ok := Lookup(name)
	if !ok {
		return Result{Failure: model.Fail(model.UnknownOperation, "unknown operation '%s'", name)}
	}
	if env == nil {
		env = &Env{}
	}
	if env.Table == nil && op.Name() != SummarizeMemory {
		return Result{Failure: model.Fail(model.ExecutionFailed, "no expense data loaded")}
	}
	out, f := op.run(env, args)
	if f != nil {
		return Result{Failure: f}
	}
	return Result{Output: out}
}

// op is the single Operation implementation, parameterized by the typed
// argument struct A.
type op[A any] struct {
	name     Name
	summary  string
	examples []Example
	schema   *jsonschema.Schema
	order    []string
	exec     func(*Env, A) (Output, *model.StepFailure)
}

func define[A any](name Name, summary string, exec func(*Env, A) (Output, *model.StepFailure), examples ...Example) *op[A] {
	schema, err := jsonschema.For[A](nil)
	if err != nil {
		panic(fmt.Sprintf("ops: schema for %s: %v", name, err))
	}
	return &op[A]{
		name:     name,
		summary:  summary,
		examples: examples,
		schema:   schema,
		order:    fieldOrder(reflect.TypeFor[A]()),
		exec:     exec,
	}
}

func (o *op[A]) Name() Name          { return o.name }
func (o *op[A]) Summary() string     { return o.summary }
func (o *op[A]) Examples() []Example { return o.examples }

func (o *op[A]) Params() []Param {
	required := map[string]bool{}
	for _, r := range o.schema.Required {
		required[r] = true
	}
	params := make([]Param, 0, len(o.order))
	for _, name := range o.order {
		s := o.schema.Properties[name]
		if s == nil {
			continue
		}
		params = append(params, Param{
			Name:        name,
			Type:        schemaType(s),
			Description: s.Description,
			Required:    required[name],
		})
	}
	return params
}

func (o *op[A]) run(env *Env, raw model.Arguments) (Output, *model.StepFailure) {
	args, f := coerce(o.schema, raw)
	if f != nil {
		return Output{}, f
	}
	for _, req := range o.schema.Required {
		if !args.Has(req) {
			return Output{}, model.Fail(model.InvalidArguments, "missing required argument '%s' for %s", req, o.name)
		}
	}

	var a A
	b, err := json.Marshal(args)
	if err != nil {
		return Output{}, model.Fail(model.InvalidArguments, "encode arguments: %v", err)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return Output{}, model.Fail(model.InvalidArguments, "decode arguments for %s: %v", o.name, err)
	}
	return o.exec(env, a)
}

// fieldOrder returns the JSON names of t's fields in declaration order.
func fieldOrder(t reflect.Type) []string {
	var names []string
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		names = append(names, name)
	}
	return names
}

func schemaType(s *jsonschema.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	for _, t := range s.Types {
		if t != "null" {
			return t
		}
	}
	return ""
}
