package enml

import "log/slog"

// RewriteFunc transforms one element during a remap pass. Returning the
// element it was given (or nil) is a no-op; returning a different
// element asks the engine to splice the replacement into the tree at
// the original's position. An error leaves the element unrewritten.
type RewriteFunc func(el, root *Element) (*Element, error)

// Rule binds one tag name to its rewrite function. Rules in a pass are
// applied in registration order: every match of the first rule's tag is
// processed before the second rule is considered.
type Rule struct {
	Tag string
	Fn  RewriteFunc
}

// Remap applies the given rules to every matching element in the tree,
// mutating it in place. Replacements inherit the original element's
// tail so sibling text stays attached, and take the original's position
// among its parent's children.
//
// The parent index is computed once, before any rule runs. A rule that
// matches inside a subtree spliced in earlier in the same pass sees no
// parent entry and is skipped with a warning; callers that need such
// elements rewritten must run a second pass.
func Remap(root *Element, rules []Rule, logger *slog.Logger) {
	parents := parentIndex(root)

	for _, rule := range rules {
		for _, el := range root.FindAll(rule.Tag) {
			repl, err := rule.Fn(el, root)
			if err != nil {
				logger.Warn("remap: rule failed",
					slog.String("tag", rule.Tag),
					slog.String("element", el.String()),
					slog.String("error", err.Error()))
				continue
			}
			if repl == nil || repl == el {
				continue
			}

			repl.Tail = el.Tail

			parent, known := parents[el]
			if !known {
				logger.Warn("remap: element outside parent index, skipped",
					slog.String("tag", rule.Tag),
					slog.String("element", el.String()))
				continue
			}
			if parent == nil {
				logger.Warn("remap: cannot replace root element",
					slog.String("tag", rule.Tag))
				continue
			}
			replaceChild(parent, el, repl)
		}
	}
}

// replaceChild swaps old for repl at the identical position among
// parent's children.
func replaceChild(parent, old, repl *Element) {
	for i, c := range parent.Children {
		if c == old {
			parent.Children[i] = repl
			return
		}
	}
}
