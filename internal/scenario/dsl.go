// Package scenario runs Lua-scripted castings against the hexagram engine.
//
// A script builds a Scenario and returns it:
//
//	local s = Scenario.new("still heaven")
//	s:cast{7, 7, 7, 7, 7, 7}
//	s:expect_code("111111")
//	s:focus(2, 1)
//	return s
package scenario

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Step kinds.
const (
	StepCast            = "cast"
	StepSeeded          = "seeded"
	StepExpectCode      = "expect_code"
	StepExpectMoving    = "expect_moving"
	StepExpectChanged   = "expect_changed"
	StepExpectFocus     = "focus"
	StepExpectStatement = "expect_statement"
)

// Scenario is an ordered list of steps.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted action or expectation.
type Step struct {
	Kind  string
	Lines []int
	Seed  int64
	Code  string
	Ints  []int
	Week  int
	Text  string
}

// LoadFile evaluates a scenario script. Unnamed scenarios take the file name.
func LoadFile(path string) (*Scenario, error) {
	state := newState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	sc, err := evaluate(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// LoadString evaluates a script held in memory.
func LoadString(name, source string) (*Scenario, error) {
	state := newState()
	if err := lua.LoadBuffer(state, source, name, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	sc, err := evaluate(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = name
	}
	return sc, nil
}

func newState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)

	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{{Name: "new", Function: scenarioNew}}, 0)
	state.SetGlobal("Scenario")
	return state
}

func evaluate(state *lua.State) (*Scenario, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	sc, ok := state.ToUserData(-1).(*Scenario)
	state.Pop(1)
	if !ok || sc == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	return sc, nil
}

func scenarioNew(state *lua.State) int {
	state.PushUserData(&Scenario{Name: lua.OptString(state, 1, "")})
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "cast", Function: scenarioCast},
	{Name: "seeded", Function: scenarioSeeded},
	{Name: "expect_code", Function: scenarioExpectCode},
	{Name: "expect_moving", Function: scenarioExpectMoving},
	{Name: "expect_changed", Function: scenarioExpectChanged},
	{Name: "expect_statement", Function: scenarioExpectStatement},
	{Name: "focus", Function: scenarioFocus},
}

func scenarioCast(state *lua.State) int {
	sc := checkScenario(state)
	sc.Steps = append(sc.Steps, Step{Kind: StepCast, Lines: checkInts(state, 2)})
	return 0
}

func scenarioSeeded(state *lua.State) int {
	sc := checkScenario(state)
	sc.Steps = append(sc.Steps, Step{Kind: StepSeeded, Seed: int64(lua.CheckInteger(state, 2))})
	return 0
}

func scenarioExpectCode(state *lua.State) int {
	sc := checkScenario(state)
	sc.Steps = append(sc.Steps, Step{Kind: StepExpectCode, Code: lua.CheckString(state, 2)})
	return 0
}

func scenarioExpectMoving(state *lua.State) int {
	sc := checkScenario(state)
	sc.Steps = append(sc.Steps, Step{Kind: StepExpectMoving, Ints: checkInts(state, 2)})
	return 0
}

// expect_changed("") asserts there is no transformed hexagram.
func scenarioExpectChanged(state *lua.State) int {
	sc := checkScenario(state)
	sc.Steps = append(sc.Steps, Step{Kind: StepExpectChanged, Code: lua.CheckString(state, 2)})
	return 0
}

func scenarioExpectStatement(state *lua.State) int {
	sc := checkScenario(state)
	sc.Steps = append(sc.Steps, Step{Kind: StepExpectStatement, Text: lua.CheckString(state, 2)})
	return 0
}

// focus(week) only resolves the week; focus(week, position) also checks it.
func scenarioFocus(state *lua.State) int {
	sc := checkScenario(state)
	step := Step{Kind: StepExpectFocus, Week: lua.CheckInteger(state, 2)}
	if !state.IsNoneOrNil(3) {
		step.Ints = []int{lua.CheckInteger(state, 3)}
	}
	sc.Steps = append(sc.Steps, step)
	return 0
}

func checkScenario(state *lua.State) *Scenario {
	if sc, ok := lua.CheckUserData(state, 1, scenarioTypeName).(*Scenario); ok && sc != nil {
		return sc
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

// checkInts reads an array table of integers.
func checkInts(state *lua.State, index int) []int {
	lua.CheckType(state, index, lua.TypeTable)
	n := state.RawLength(index)
	out := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		state.RawGetInt(index, i)
		v, ok := state.ToInteger(-1)
		state.Pop(1)
		if !ok {
			lua.ArgumentError(state, index, fmt.Sprintf("element %d is not an integer", i))
		}
		out = append(out, v)
	}
	return out
}
