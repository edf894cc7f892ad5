// Package script provides the sandboxed condition languages branch nodes
// are evaluated with. Conditions are compiled against a restricted
// environment rather than handed to a host interpreter, so a flow
// definition can never run arbitrary code
package script

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/kode4food/lru"

	"github.com/kode4food/signoff/pkg/api"
)

type (
	// Registry manages condition environments for different languages
	Registry struct {
		envs map[string]Environment
	}

	// Environment defines the interface for condition evaluation
	// environments
	Environment interface {
		// Validate checks if a condition is syntactically valid
		Validate(condition string) error

		// Evaluate runs a condition against run state and returns the
		// boolean result
		Evaluate(condition string, state api.Args) (bool, error)
	}

	compileFunc[T any] func(condition string, names []string) (T, error)

	compiler[T any] struct {
		cache *lru.Cache[T]
		build compileFunc[T]
	}
)

const (
	LangExpr = "expr"
	LangLua  = "lua"

	// DefaultLanguage is used when a branch names no language
	DefaultLanguage = LangExpr
)

var ErrUnsupportedLanguage = errors.New("unsupported condition language")

// NewRegistry creates a registry with expr and Lua environments
func NewRegistry() *Registry {
	return &Registry{
		envs: map[string]Environment{
			LangExpr: NewExprEnv(),
			LangLua:  NewLuaEnv(),
		},
	}
}

// Get returns the condition environment for the given language, with the
// empty string resolving to the default
func (r *Registry) Get(language string) (Environment, error) {
	if language == "" {
		language = DefaultLanguage
	}
	env, ok := r.envs[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return env, nil
}

// EvalBranch evaluates a branch condition against run state
func (r *Registry) EvalBranch(b *api.Branch, state api.Args) (bool, error) {
	env, err := r.Get(b.Language)
	if err != nil {
		return false, err
	}
	return env.Evaluate(b.Condition, state)
}

// ValidateFlow compiles every branch condition in the flow, so malformed
// conditions surface at load time instead of mid-run
func (r *Registry) ValidateFlow(f *api.Flow) error {
	for _, n := range f.Nodes {
		if n.Type != api.NodeTypeBranch {
			continue
		}
		for _, b := range n.Branches {
			env, err := r.Get(b.Language)
			if err != nil {
				return fmt.Errorf("node %s: %w", n.ID, err)
			}
			if err := env.Validate(b.Condition); err != nil {
				return fmt.Errorf("node %s: %w", n.ID, err)
			}
		}
	}
	return nil
}

func newCompiler[T any](size int, build compileFunc[T]) *compiler[T] {
	return &compiler[T]{
		cache: lru.NewCache[T](size),
		build: build,
	}
}

// Validate checks that a condition compiles
func (c *compiler[T]) Validate(condition string) error {
	_, err := c.compiled(condition, nil)
	return err
}

func (c *compiler[T]) compiled(condition string, names []string) (T, error) {
	return c.cache.Get(hashCondition(condition, names), func() (T, error) {
		return c.build(condition, names)
	})
}

func hashCondition(condition string, names []string) string {
	h := sha256.New()
	_, _ = h.Write([]byte(condition))

	for _, name := range names {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(name))
	}

	return hex.EncodeToString(h.Sum(nil))
}
