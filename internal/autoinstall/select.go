package autoinstall

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/gobwas/glob"
)

// globMeta are the characters that make a target name a pattern.
const globMeta = "*?[{"

// Select resolves the targets a bulk run operates on. With all set it returns
// every target of src in declaration order. Otherwise each name is resolved
// in the order given; a name containing glob metacharacters selects every
// matching target. Any name that resolves to nothing fails the whole
// selection. Targets selected more than once are kept once.
func Select(ctx context.Context, src Source, names []string, all bool) ([]Target, error) {
	if !all && len(names) == 0 {
		return nil, ErrNoTargets
	}
	if all {
		return src.Targets(), nil
	}

	log := logr.FromContextOrDiscard(ctx)

	var (
		selected []Target
		missing  []string
		seen     = make(map[string]bool)
	)
	add := func(t Target) {
		if !seen[t.TargetName()] {
			seen[t.TargetName()] = true
			selected = append(selected, t)
		}
	}

	for _, name := range names {
		if strings.ContainsAny(name, globMeta) {
			g, err := glob.Compile(name)
			if err != nil {
				return nil, fmt.Errorf("invalid %s pattern %q: %w", src.Kind(), name, err)
			}
			matched := false
			for _, t := range src.Targets() {
				if g.Match(t.TargetName()) {
					matched = true
					add(t)
				}
			}
			if !matched {
				log.Info(fmt.Sprintf("%s not found", capitalize(src.Kind())), "pattern", name)
				missing = append(missing, name)
			}
			continue
		}

		t, ok := src.Lookup(name)
		if !ok {
			log.Info(fmt.Sprintf("%s not found", capitalize(src.Kind())), "name", name)
			missing = append(missing, name)
			continue
		}
		add(t)
	}

	if len(missing) > 0 {
		return nil, &NotFoundError{Kind: src.Kind(), Names: missing}
	}
	return selected, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
