package work_package

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrDuplicateName = errors.New("work package name has to be unique")
var ErrEmptyName = errors.New("work package name is empty")
var ErrNotFound = errors.New("work package not found")

// RemovalConfirmationSeconds is the tracked time above which removing a package asks first.
const RemovalConfirmationSeconds = 60

// Edit carries the editable fields of a work package. LoggedSeconds replaces the
// tracked time when set and is rejected while the package is running.
type Edit struct {
	Name          string
	Ticket        string
	LoggedSeconds *float64
}

// Collection is the ordered set of work packages. Names are unique and at most one
// package is active.
type Collection struct {
	packages []*WorkPackage
}

// NewCollection restores packages from storage. Later entries reusing a name are dropped.
func NewCollection(persisted []Persisted) *Collection {
	c := &Collection{}
	for _, p := range persisted {
		if _, err := c.Add(p.Name, p.Ticket); err != nil {
			log.Warnf("Skipping stored work package %q: %v", p.Name, err)
			continue
		}
		c.packages[len(c.packages)-1].AccumulatedSeconds = p.LoggedTime
	}
	return c
}

func (c *Collection) Len() int {
	return len(c.packages)
}

func (c *Collection) Add(name, ticket string) (*WorkPackage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if c.indexOf(name) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	wp := New(name, strings.TrimSpace(ticket))
	c.packages = append(c.packages, wp)
	return wp, nil
}

func (c *Collection) Get(name string) (*WorkPackage, error) {
	i := c.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c.packages[i], nil
}

func (c *Collection) GetById(id string) (*WorkPackage, error) {
	for _, wp := range c.packages {
		if wp.Id == id {
			return wp, nil
		}
	}
	return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
}

func (c *Collection) Remove(name string) (WorkPackage, error) {
	i := c.indexOf(name)
	if i < 0 {
		return WorkPackage{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	removed := *c.packages[i]
	c.packages = append(c.packages[:i], c.packages[i+1:]...)
	return removed, nil
}

// Start stops every other package and starts the named one.
func (c *Collection) Start(name string, now time.Time) error {
	wp, err := c.Get(name)
	if err != nil {
		return err
	}
	if wp.IsActive() {
		return ErrAlreadyActive
	}
	for _, other := range c.packages {
		if other != wp && other.IsActive() {
			if err := other.Stop(now); err != nil {
				return err
			}
		}
	}
	return wp.Start(now)
}

func (c *Collection) Stop(name string, now time.Time) error {
	wp, err := c.Get(name)
	if err != nil {
		return err
	}
	return wp.Stop(now)
}

// Toggle starts an idle package or stops an active one and reports whether it is now active.
func (c *Collection) Toggle(name string, now time.Time) (bool, error) {
	wp, err := c.Get(name)
	if err != nil {
		return false, err
	}
	if wp.IsActive() {
		return false, wp.Stop(now)
	}
	return true, c.Start(name, now)
}

// StopAll stops every active package and returns their names.
func (c *Collection) StopAll(now time.Time) []string {
	var stopped []string
	for _, wp := range c.packages {
		if wp.IsActive() {
			_ = wp.Stop(now)
			stopped = append(stopped, wp.Name)
		}
	}
	return stopped
}

func (c *Collection) Active() (*WorkPackage, bool) {
	for _, wp := range c.packages {
		if wp.IsActive() {
			return wp, true
		}
	}
	return nil, false
}

func (c *Collection) Edit(name string, edit Edit, now time.Time) (*WorkPackage, error) {
	wp, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	newName := strings.TrimSpace(edit.Name)
	if newName == "" {
		return nil, ErrEmptyName
	}
	if newName != wp.Name && c.indexOf(newName) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}
	if edit.LoggedSeconds != nil {
		if wp.IsActive() {
			return nil, fmt.Errorf("logged time cannot be changed: %w", ErrAlreadyActive)
		}
		if *edit.LoggedSeconds < 0 {
			return nil, fmt.Errorf("logged time cannot be negative")
		}
		wp.AccumulatedSeconds = *edit.LoggedSeconds
	}
	wp.Name = newName
	wp.Ticket = strings.TrimSpace(edit.Ticket)
	return wp, nil
}

// NeedsRemovalConfirmation is true for packages that are running or hold more than a minute.
func (c *Collection) NeedsRemovalConfirmation(name string, now time.Time) (bool, error) {
	wp, err := c.Get(name)
	if err != nil {
		return false, err
	}
	return wp.IsActive() || wp.TotalSeconds(now) > RemovalConfirmationSeconds, nil
}

// Checkpoint folds running sessions into the accumulated time and returns the stored form of every package.
func (c *Collection) Checkpoint(now time.Time) []Persisted {
	persisted := make([]Persisted, 0, len(c.packages))
	for _, wp := range c.packages {
		persisted = append(persisted, wp.ToPersisted(now))
	}
	return persisted
}

// List returns copies of the packages in order.
func (c *Collection) List() []WorkPackage {
	list := make([]WorkPackage, 0, len(c.packages))
	for _, wp := range c.packages {
		list = append(list, *wp)
	}
	return list
}

func (c *Collection) indexOf(name string) int {
	for i, wp := range c.packages {
		if wp.Name == name {
			return i
		}
	}
	return -1
}
