// Package roles provides the canonical role catalog: the UID-identified role
// names survey values are reconciled against. It is the lookup used to attach
// UIDs to roles the user confirmed by hand.
//
// Catalog files are YAML (or JSON, which YAML accepts) in one of two shapes:
//
//	roles:
//	  - name: ТУ Объект 1
//	    uid: UID001
//
// or a flat mapping of role name to UID.
package roles

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/unicode/norm"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
)

// Role is one canonical catalog entry.
type Role struct {
	Name string `json:"name" yaml:"name"`
	UID  string `json:"uid" yaml:"uid"`
}

// Category derives the role's category from its name prefix.
func (r Role) Category() (reconcile.Category, bool) {
	return reconcile.CategoryOfRole(r.Name)
}

// Catalog is a concurrency-safe role lookup keyed by normalized name.
type Catalog struct {
	mu     sync.RWMutex
	roles  []Role
	byName map[string]int
}

var _ reconcile.RoleCatalog = (*Catalog)(nil)

// New creates a catalog from roles. Blank names are skipped; a repeated name
// keeps the last UID seen, as the roles spreadsheet is read top to bottom.
func New(roles ...Role) *Catalog {
	c := &Catalog{byName: make(map[string]int, len(roles))}
	for _, r := range roles {
		c.Set(r)
	}
	return c
}

// Set adds or replaces a role.
func (c *Catalog) Set(r Role) {
	r.Name = strings.TrimSpace(r.Name)
	r.UID = strings.TrimSpace(r.UID)
	if r.Name == "" {
		return
	}
	key := Normalize(r.Name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.byName[key]; ok {
		c.roles[i] = r
		return
	}
	c.byName[key] = len(c.roles)
	c.roles = append(c.roles, r)
}

// UID returns the UID for roleName.
func (c *Catalog) UID(roleName string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byName[Normalize(roleName)]
	if !ok || c.roles[i].UID == "" {
		return "", false
	}
	return c.roles[i].UID, true
}

// Get returns the role stored under roleName.
func (c *Catalog) Get(roleName string) (Role, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byName[Normalize(roleName)]
	if !ok {
		return Role{}, false
	}
	return c.roles[i], true
}

// Len returns the number of roles.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.roles)
}

// List returns all roles in insertion order.
func (c *Catalog) List() []Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Role(nil), c.roles...)
}

// ByCategory returns the roles of one category sorted by name.
func (c *Catalog) ByCategory(cat reconcile.Category) []Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Role
	for _, r := range c.roles {
		if rc, ok := r.Category(); ok && rc == cat {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Normalize folds a role name to its lookup key: NFC form with runs of
// whitespace collapsed to one space.
func Normalize(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

type catalogFile struct {
	Roles []Role `yaml:"roles"`
}

// Parse decodes catalog data in either supported shape.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err == nil && len(file.Roles) > 0 {
		return New(file.Roles...), nil
	}

	var flat yaml.MapSlice
	if err := yaml.UnmarshalWithOptions(data, &flat, yaml.UseOrderedMap()); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	c := New()
	for _, item := range flat {
		name, _ := item.Key.(string)
		uid, ok := item.Value.(string)
		if !ok {
			if item.Value == nil {
				continue
			}
			return nil, errors.NewParseError("yaml", "", "role "+name+" has a non-string uid", nil)
		}
		c.Set(Role{Name: name, UID: uid})
	}
	return c, nil
}

// LoadFS reads a catalog file from fsys.
func LoadFS(fsys fs.FS, name string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	c, err := Parse(data)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = name
		}
		return nil, err
	}
	return c, nil
}

// Load reads a catalog file from disk.
func Load(path string) (*Catalog, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return LoadFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}
