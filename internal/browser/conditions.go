package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Condition is a named DOM predicate polled by Session.WaitFor.
// Check returns the observed value (if any) and whether the condition holds.
// Returning ErrStaleElement means "try again on the next poll".
type Condition struct {
	Name  string
	Check func(ctx context.Context, d Driver) (string, bool, error)
}

// ElementPresent holds once selector matches at least one node
func ElementPresent(selector string) Condition {
	return Condition{
		Name: "element present " + selector,
		Check: func(ctx context.Context, d Driver) (string, bool, error) {
			ok, err := d.Exists(ctx, selector)
			return "", ok, err
		},
	}
}

// AttributeNonEmpty holds once the attribute on the first match has at least
// minLen characters (minimum 1) after trimming.
func AttributeNonEmpty(selector, attr string, minLen int) Condition {
	if minLen < 1 {
		minLen = 1
	}
	return Condition{
		Name: fmt.Sprintf("attribute %s non-empty on %s", attr, selector),
		Check: func(ctx context.Context, d Driver) (string, bool, error) {
			value, ok, err := d.Attribute(ctx, selector, attr)
			if err != nil || !ok {
				return "", false, err
			}
			value = strings.TrimSpace(value)
			return value, len(value) >= minLen, nil
		},
	}
}

// ElementStable holds once the attribute reads the same non-empty value on
// reads consecutive polls. Each call returns a fresh condition with its own
// read history, so it must not be shared between waits.
func ElementStable(selector, attr string, reads int) Condition {
	if reads < 2 {
		reads = 2
	}
	var last string
	var seen int
	return Condition{
		Name: fmt.Sprintf("element stable %s[%s]", selector, attr),
		Check: func(ctx context.Context, d Driver) (string, bool, error) {
			value, ok, err := d.Attribute(ctx, selector, attr)
			if err != nil || !ok || value == "" {
				seen = 0
				return "", false, err
			}
			if value == last {
				seen++
			} else {
				last, seen = value, 1
			}
			return value, seen >= reads, nil
		},
	}
}

// AllOf holds when every condition holds on the same poll. All conditions are
// evaluated on each poll so stateful ones observe consecutive reads.
// The value of the last condition is returned.
func AllOf(conds ...Condition) Condition {
	return Condition{
		Name: "all of [" + joinNames(conds) + "]",
		Check: func(ctx context.Context, d Driver) (string, bool, error) {
			var value string
			all := true
			for _, c := range conds {
				v, ok, err := c.Check(ctx, d)
				if err != nil {
					return "", false, err
				}
				all = all && ok
				value = v
			}
			return value, all, nil
		},
	}
}

// AnyOf holds as soon as one condition holds; its name is returned as the value.
// A stale read in one branch does not hide a satisfied sibling.
func AnyOf(conds ...Condition) Condition {
	return Condition{
		Name: "any of [" + joinNames(conds) + "]",
		Check: func(ctx context.Context, d Driver) (string, bool, error) {
			var stale error
			for _, c := range conds {
				_, ok, err := c.Check(ctx, d)
				switch {
				case errors.Is(err, ErrStaleElement):
					stale = err
				case err != nil:
					return "", false, err
				case ok:
					return c.Name, true, nil
				}
			}
			return "", false, stale
		},
	}
}

func joinNames(conds []Condition) string {
	names := make([]string, len(conds))
	for i, c := range conds {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
