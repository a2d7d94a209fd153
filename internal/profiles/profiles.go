// Package profiles stores named export configurations, so a recurring
// export (same label, senders and output layout) can be re-run by name.
package profiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Profile is a saved set of export parameters. Dates are stored as
// YYYY-MM-DD strings and validated when the profile is applied, not
// when it is saved.
type Profile struct {
	Name           string   `json:"name"`
	Label          string   `json:"label,omitempty"`
	Query          string   `json:"query,omitempty"`
	After          string   `json:"after,omitempty"`
	Before         string   `json:"before,omitempty"`
	From           []string `json:"from,omitempty"`
	To             []string `json:"to,omitempty"`
	ExcludeFrom    []string `json:"exclude_from,omitempty"`
	MaxResults     int64    `json:"max_results,omitempty"`
	OutputDir      string   `json:"output_dir,omitempty"`
	OrganizeByDate bool     `json:"organize_by_date,omitempty"`
	DateBucket     string   `json:"date_bucket,omitempty"`
	Consolidate    string   `json:"consolidate,omitempty"` // "", "thread", "single"
}

// Manager reads and writes the profile store, a single JSON file
// holding all profiles.
type Manager struct {
	path string
}

// NewManager returns a manager over the store at path. An empty path
// selects the conventional location under the user config directory.
func NewManager(path string) *Manager {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		path = filepath.Join(dir, "gmail2md", "profiles.json")
	}
	return &Manager{path: path}
}

func (m *Manager) load() (map[string]Profile, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return map[string]Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}

	profiles := map[string]Profile{}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parsing profiles %s: %w", m.path, err)
	}
	return profiles, nil
}

func (m *Manager) store(profiles map[string]Profile) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}
	if err := os.WriteFile(m.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing profiles: %w", err)
	}
	return nil
}

// List returns all profiles sorted by name.
func (m *Manager) List() ([]Profile, error) {
	profiles, err := m.load()
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns the named profile.
func (m *Manager) Get(name string) (Profile, error) {
	profiles, err := m.load()
	if err != nil {
		return Profile{}, err
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// Save creates or replaces a profile.
func (m *Manager) Save(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	profiles, err := m.load()
	if err != nil {
		return err
	}
	profiles[p.Name] = p
	return m.store(profiles)
}

// Delete removes a profile.
func (m *Manager) Delete(name string) error {
	profiles, err := m.load()
	if err != nil {
		return err
	}
	if _, ok := profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(profiles, name)
	return m.store(profiles)
}

// Rename changes a profile's name, refusing to clobber an existing one.
func (m *Manager) Rename(oldName, newName string) error {
	if newName == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	profiles, err := m.load()
	if err != nil {
		return err
	}
	p, ok := profiles[oldName]
	if !ok {
		return fmt.Errorf("profile %q not found", oldName)
	}
	if _, exists := profiles[newName]; exists {
		return fmt.Errorf("profile %q already exists", newName)
	}
	p.Name = newName
	profiles[newName] = p
	delete(profiles, oldName)
	return m.store(profiles)
}
