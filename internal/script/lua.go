package script

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/kode4food/signoff/pkg/api"
)

type (
	// LuaEnv evaluates conditions as sandboxed Lua expressions with state
	// pooling. The sandbox strips every library that reaches the host: io,
	// os, debug, and all code loading paths
	LuaEnv struct {
		statePool chan *lua.State
		programs  sync.Map
	}

	compiledLua struct {
		bytecode []byte
		argNames []string
	}
)

const (
	luaStatePoolSize    = 10
	luaGlobalTableIndex = -2
	luaArrayTableIndex  = -3
	luaMapTableIndex    = -3
	luaArgLocalTemplate = "local %s = select(%d, ...)"
	luaGlobalTableName  = "_G"
)

var (
	ErrLuaCompile   = errors.New("lua condition compile error")
	ErrLuaExecution = errors.New("lua condition execution error")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

// luaIdent matches state keys that can be bound as Lua locals. Keys that
// do not qualify stay out of scope and resolve to nil
var luaIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewLuaEnv creates a new Lua condition environment with a state pool for
// efficient condition reuse
func NewLuaEnv() *LuaEnv {
	return &LuaEnv{
		statePool: make(chan *lua.State, luaStatePoolSize),
	}
}

// Validate checks that a condition compiles as a Lua expression
func (e *LuaEnv) Validate(condition string) error {
	_, err := e.compile(condition, nil)
	return err
}

// Evaluate runs a condition against run state. State keys become locals
// in the compiled chunk, so conditions reference them by bare name
func (e *LuaEnv) Evaluate(condition string, state api.Args) (bool, error) {
	names := argNames(state)
	c, err := e.compiled(condition, names)
	if err != nil {
		return false, err
	}

	L := e.getState()
	defer e.returnState(L)

	e.setupSandbox(L)
	if err := L.Load(bytes.NewReader(c.bytecode), "chunk", "b"); err != nil {
		return false, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}

	for _, name := range c.argNames {
		pushLuaArg(L, state, name)
	}

	if err := L.ProtectedCall(len(c.argNames), 1, 0); err != nil {
		return false, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}

	res := L.ToBoolean(-1)
	L.Pop(1)

	return res, nil
}

func (e *LuaEnv) compiled(
	condition string, names []string,
) (*compiledLua, error) {
	key := conditionCacheKey(condition, names)
	if val, ok := e.programs.Load(key); ok {
		return val.(*compiledLua), nil
	}

	c, err := e.compile(condition, names)
	if err != nil {
		return nil, err
	}

	e.programs.Store(key, c)
	return c, nil
}

func (e *LuaEnv) compile(
	condition string, names []string,
) (*compiledLua, error) {
	argLocals := make([]string, len(names))
	for i, name := range names {
		argLocals[i] = fmt.Sprintf(luaArgLocalTemplate, name, i+1)
	}

	src := strings.Join(append(argLocals, "return ("+condition+")"), "\n")

	L := lua.NewState()
	e.setupSandbox(L)

	if err := lua.LoadString(L, src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaCompile, err)
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaCompile, err)
	}

	return &compiledLua{
		bytecode: buf.Bytes(),
		argNames: names,
	}, nil
}

func (e *LuaEnv) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func (e *LuaEnv) getState() *lua.State {
	select {
	case L := <-e.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (e *LuaEnv) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case e.statePool <- L:
	default:
	}
}

func argNames(state api.Args) []string {
	names := make([]string, 0, len(state))
	for k := range state {
		if luaIdent.MatchString(string(k)) {
			names = append(names, string(k))
		}
	}
	slices.Sort(names)
	return names
}

func conditionCacheKey(condition string, names []string) string {
	hash := sha256.Sum256([]byte(condition + "\x00" +
		strings.Join(names, ",")))
	return hex.EncodeToString(hash[:8])
}

func pushLuaArg(L *lua.State, state api.Args, argName string) {
	if value, ok := state[api.Name(argName)]; ok {
		goToLua(L, value)
		return
	}
	L.PushNil()
}

func goToLua(L *lua.State, value any) {
	switch v := value.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int:
		L.PushInteger(v)
	case int64:
		L.PushInteger(int(v))
	case float64:
		L.PushNumber(v)
	case []any:
		pushLuaArray(L, v)
	case map[string]any:
		pushLuaMap(L, v)
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaArray(L *lua.State, arr []any) {
	L.CreateTable(len(arr), 0)
	for i, item := range arr {
		L.PushInteger(i + 1)
		goToLua(L, item)
		L.SetTable(luaArrayTableIndex)
	}
}

func pushLuaMap(L *lua.State, m map[string]any) {
	L.CreateTable(0, len(m))
	for k, val := range m {
		L.PushString(k)
		goToLua(L, val)
		L.SetTable(luaMapTableIndex)
	}
}
