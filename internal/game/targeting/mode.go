package targeting

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode determines how a declared target set is expanded into concrete combatants.
type Mode int

const (
	Self Mode = iota
	Enemy
	Ally
	All
	AllEnemies
	AllAllies
	AllSelf
	Random
	RandomEnemy
	RandomAlly
	RandomSelf
)

var modeNames = map[Mode]string{
	Self:        "self",
	Enemy:       "enemy",
	Ally:        "ally",
	All:         "all",
	AllEnemies:  "all_enemies",
	AllAllies:   "all_allies",
	AllSelf:     "all_self",
	Random:      "random",
	RandomEnemy: "random_enemy",
	RandomAlly:  "random_ally",
	RandomSelf:  "random_self",
}

// String returns the snake_case content name of the mode.
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// IsSingleTargeted reports whether a play in this mode must first acquire one target
// through the interaction session.
func (m Mode) IsSingleTargeted() bool {
	return m == Self || m == Enemy || m == Ally
}

// ParseMode maps a content name such as "all_enemies" to its Mode.
//
// Postcondition: Returns a non-nil error iff s names no mode.
func ParseMode(s string) (Mode, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == want {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown target mode %q", s)
}

// UnmarshalYAML decodes a mode from its content name.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML encodes the mode as its content name.
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}
