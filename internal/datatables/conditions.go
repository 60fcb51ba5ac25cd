package datatables

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/squirrel"
)

// ResolveColumn returns the select expression behind a computed column, or
// name itself for a plain column.
func ResolveColumn(name string, computed map[string]string) string {
	if expr, ok := computed[name]; ok && expr != "" {
		return expr
	}
	return name
}

// conditionBuilder files predicates into the buckets of a single plan.
type conditionBuilder struct {
	alias           string
	computed        map[string]string
	caseInsensitive bool
	plan            *QueryPlan
}

func (b *conditionBuilder) add(column string, value any, combo Combo, match MatchMode) {
	cond := Condition{
		Column:     column,
		Expression: column,
		Operand:    value,
		Match:      match,
	}

	if match == MatchWildcard {
		cond.Expression = operandExpr(ResolveColumn(column, b.computed))
		pattern := "%" + operandText(value) + "%"
		cond.Operand = pattern
		if b.caseInsensitive {
			cond.Pred = squirrel.ILike{cond.Expression: pattern}
		} else {
			cond.Pred = squirrel.Like{cond.Expression: pattern}
		}
	} else if isNullSentinel(value) {
		// IS NULL goes against the raw column, computed names are not resolved
		cond.Operand = nil
		cond.Pred = squirrel.Eq{column: nil}
	} else {
		cond.Expression = operandExpr(ResolveColumn(column, b.computed))
		cond.Pred = squirrel.Eq{cond.Expression: value}
	}

	if combo == ComboOr {
		cond.Target = TargetGlobal
		b.plan.Or = append(b.plan.Or, cond)
		return
	}

	if association, _, ok := strings.Cut(column, "."); ok && association != b.alias {
		cond.Target = TargetRelated
		cond.Association = association
		b.addRelated(cond)
		return
	}
	cond.Target = TargetOwn
	b.plan.And = append(b.plan.And, cond)
}

func (b *conditionBuilder) addRelated(cond Condition) {
	for i := range b.plan.Related {
		if b.plan.Related[i].Association == cond.Association {
			b.plan.Related[i].Conditions = append(b.plan.Related[i].Conditions, cond)
			return
		}
	}
	b.plan.Related = append(b.plan.Related, RelatedConditions{
		Association: cond.Association,
		Conditions:  []Condition{cond},
	})
}

// operandExpr parenthesizes expr unless it is already a single operand: an
// identifier, a function call or a parenthesized group.
func operandExpr(expr string) string {
	expr = strings.TrimSpace(expr)
	if identPattern.MatchString(expr) {
		return expr
	}
	open := strings.IndexByte(expr, '(')
	if open >= 0 && strings.HasSuffix(expr, ")") && (open == 0 || identPattern.MatchString(expr[:open])) &&
		closingParen(expr, open) == len(expr)-1 {
		return expr
	}
	return "(" + expr + ")"
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// closingParen returns the index of the parenthesis matching the one at
// open, skipping single-quoted literals, or -1.
func closingParen(expr string, open int) int {
	depth, quoted := 0, false
	for i := open; i < len(expr); i++ {
		switch c := expr[i]; {
		case c == '\'':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isNullSentinel(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return s == "null" || s == "NULL"
	case Value:
		return s == "null" || s == "NULL"
	}
	return false
}

func operandText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case Value:
		return string(s)
	}
	return fmt.Sprint(v)
}

func predicates(conds []Condition) []squirrel.Sqlizer {
	out := make([]squirrel.Sqlizer, 0, len(conds))
	for _, c := range conds {
		out = append(out, c.Pred)
	}
	return out
}
