package gesture

import "fmt"

// Action is a discrete game command produced by a fired gesture.
type Action int

// The zero Action is invalid so an unset value is never mistaken for a command.
const (
	Jump Action = iota + 1
	Slide
	Left
	Right
)

// Actions lists every valid action in firing priority order.
var Actions = []Action{Jump, Slide, Left, Right}

var actionNames = map[Action]string{
	Jump:  "jump",
	Slide: "slide",
	Left:  "left",
	Right: "right",
}

// String returns the lowercase action name.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Valid reports whether a is one of the four game actions.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// ParseAction converts a name such as "jump" back to an Action.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action: %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
