package battle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownEncounter is returned when an encounter ID is not known.
var ErrUnknownEncounter = errors.New("unknown encounter")

// Encounter names the character the player brings and the enemies faced, in
// turn order.
type Encounter struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Character string   `yaml:"character"`
	Enemies   []string `yaml:"enemies"`
}

// Validate checks that the encounter satisfies its invariants.
//
// Precondition: e must not be nil.
// Postcondition: Returns nil iff every field is valid.
func (e *Encounter) Validate() error {
	var errs []error
	if e.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if e.Character == "" {
		errs = append(errs, errors.New("character must not be empty"))
	}
	if len(e.Enemies) == 0 {
		errs = append(errs, errors.New("enemies must not be empty"))
	}
	for i, id := range e.Enemies {
		if id == "" {
			errs = append(errs, fmt.Errorf("enemies[%d] must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("encounter %q validation failed: %v", e.ID, errs)
	}
	return nil
}

// LoadEncounterFromBytes parses a single encounter from raw YAML bytes.
// Unknown fields are rejected.
//
// Postcondition: Returns a validated *Encounter, or an error.
func LoadEncounterFromBytes(data []byte) (*Encounter, error) {
	var enc Encounter
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&enc); err != nil {
		return nil, fmt.Errorf("parsing encounter YAML: %w", err)
	}
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	return &enc, nil
}

// LoadEncounters reads all *.yaml files in dir, keyed by encounter ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns every encounter, or an error on the first parse,
// validation or duplicate-ID failure.
func LoadEncounters(dir string) (map[string]*Encounter, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading encounter dir %q: %w", dir, err)
	}
	out := make(map[string]*Encounter)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		enc, err := LoadEncounterFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := out[enc.ID]; dup {
			return nil, fmt.Errorf("duplicate encounter id %q in %q", enc.ID, path)
		}
		out[enc.ID] = enc
	}
	return out, nil
}
