package work_package

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klokku/flextime/internal/event_bus"
	"github.com/klokku/flextime/internal/utils"
	log "github.com/sirupsen/logrus"
)

var ErrConfirmationRequired = errors.New("work package holds tracked time, removal has to be confirmed")

// View is a read-only copy of a work package at one instant.
type View struct {
	Id           string
	Name         string
	Ticket       string
	TotalSeconds float64
	Active       bool
	Text         string
}

type Service interface {
	List() []View
	// Create adds a package and, with start set, makes it the active one.
	Create(ctx context.Context, name, ticket string, start bool) (View, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Toggle(ctx context.Context, name string) (bool, error)
	StopAll(ctx context.Context) error
	Reset(ctx context.Context, name string) error
	Edit(ctx context.Context, name string, edit Edit) (View, error)
	NeedsRemovalConfirmation(name string) (bool, error)
	Remove(ctx context.Context, name string, confirmed bool) error
	// Save checkpoints running timers and writes every package.
	Save(ctx context.Context) error
	AnyActive() bool
	// Snapshot is the view handed to background work such as a worklog post.
	Snapshot(name string) (View, error)
	// LogWorkResult applies the outcome of a worklog post to the package with the given id.
	// Booked seconds are taken off the package and the change is saved; a failed post changes nothing.
	LogWorkResult(ctx context.Context, id string, seconds int, postErr error) error
}

type ServiceImpl struct {
	mu         sync.Mutex
	repo       Repository
	clock      utils.Clock
	eventBus   *event_bus.EventBus
	collection *Collection
}

// NewService restores the stored packages. A load error is returned next to a usable, empty service.
func NewService(ctx context.Context, repo Repository, clock utils.Clock, eventBus *event_bus.EventBus) (*ServiceImpl, error) {
	persisted, err := repo.Load(ctx)
	return &ServiceImpl{
		repo:       repo,
		clock:      clock,
		eventBus:   eventBus,
		collection: NewCollection(persisted),
	}, err
}

func (s *ServiceImpl) List() []View {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	views := make([]View, 0, s.collection.Len())
	for _, wp := range s.collection.packages {
		views = append(views, toView(wp, now))
	}
	return views
}

func (s *ServiceImpl) Create(ctx context.Context, name, ticket string, start bool) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp, err := s.collection.Add(name, ticket)
	if err != nil {
		return View{}, err
	}
	log.Infof("Created work package %q", wp.Name)
	if start {
		if err := s.start(ctx, wp.Name); err != nil {
			return View{}, err
		}
	}
	return toView(wp, s.clock.Now()), s.save(ctx)
}

func (s *ServiceImpl) Start(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.start(ctx, name); err != nil {
		return err
	}
	return s.save(ctx)
}

func (s *ServiceImpl) start(ctx context.Context, name string) error {
	now := s.clock.Now()
	var stopped []*WorkPackage
	for _, wp := range s.collection.packages {
		if wp.Name != name && wp.IsActive() {
			stopped = append(stopped, wp)
		}
	}
	if err := s.collection.Start(name, now); err != nil {
		return err
	}
	for _, wp := range stopped {
		s.publish(ctx, event_bus.WorkPackageStopped, wp, now)
	}
	wp, _ := s.collection.Get(name)
	s.publish(ctx, event_bus.WorkPackageStarted, wp, now)
	return nil
}

func (s *ServiceImpl) Stop(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.stop(ctx, name); err != nil {
		return err
	}
	return s.save(ctx)
}

func (s *ServiceImpl) stop(ctx context.Context, name string) error {
	now := s.clock.Now()
	if err := s.collection.Stop(name, now); err != nil {
		return err
	}
	wp, _ := s.collection.Get(name)
	s.publish(ctx, event_bus.WorkPackageStopped, wp, now)
	return nil
}

func (s *ServiceImpl) Toggle(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp, err := s.collection.Get(name)
	if err != nil {
		return false, err
	}
	if wp.IsActive() {
		err = s.stop(ctx, name)
	} else {
		err = s.start(ctx, name)
	}
	if err != nil {
		return false, err
	}
	return wp.IsActive(), s.save(ctx)
}

func (s *ServiceImpl) StopAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	stopped := s.collection.StopAll(now)
	if len(stopped) == 0 {
		return nil
	}
	for _, name := range stopped {
		wp, _ := s.collection.Get(name)
		s.publish(ctx, event_bus.WorkPackageStopped, wp, now)
	}
	return s.save(ctx)
}

func (s *ServiceImpl) Reset(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp, err := s.collection.Get(name)
	if err != nil {
		return err
	}
	wp.Reset(s.clock.Now())
	log.Infof("Reset work package %q", name)
	return s.save(ctx)
}

func (s *ServiceImpl) Edit(ctx context.Context, name string, edit Edit) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	wp, err := s.collection.Edit(name, edit, now)
	if err != nil {
		return View{}, err
	}
	return toView(wp, now), s.save(ctx)
}

func (s *ServiceImpl) NeedsRemovalConfirmation(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.NeedsRemovalConfirmation(name, s.clock.Now())
}

func (s *ServiceImpl) Remove(ctx context.Context, name string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	needsConfirmation, err := s.collection.NeedsRemovalConfirmation(name, now)
	if err != nil {
		return err
	}
	if needsConfirmation && !confirmed {
		return ErrConfirmationRequired
	}
	removed, err := s.collection.Remove(name)
	if err != nil {
		return err
	}
	log.Infof("Removed work package %q", name)
	s.publish(ctx, event_bus.WorkPackageRemoved, &removed, now)
	return s.save(ctx)
}

func (s *ServiceImpl) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *ServiceImpl) save(ctx context.Context) error {
	packages := s.collection.Checkpoint(s.clock.Now())
	if err := s.repo.Save(ctx, packages); err != nil {
		return err
	}
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.WorkPackagesSaved, event_bus.WorkPackagesSavedEvent{
		Count: len(packages),
	}))
	if err != nil {
		log.Errorf("failed to publish work packages saved event: %v", err)
	}
	return nil
}

func (s *ServiceImpl) AnyActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, active := s.collection.Active()
	return active
}

func (s *ServiceImpl) Snapshot(name string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wp, err := s.collection.Get(name)
	if err != nil {
		return View{}, err
	}
	return toView(wp, s.clock.Now()), nil
}

func (s *ServiceImpl) LogWorkResult(ctx context.Context, id string, seconds int, postErr error) error {
	if postErr != nil {
		log.Infof("Worklog for %s failed, tracked time is kept: %v", id, postErr)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wp, err := s.collection.GetById(id)
	if err != nil {
		return fmt.Errorf("worklog was booked but the work package is gone: %w", err)
	}
	wp.Deduct(float64(seconds), s.clock.Now())
	log.Infof("Worklog written for %q, deducted %d seconds", wp.Name, seconds)
	return s.save(ctx)
}

func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, wp *WorkPackage, now time.Time) {
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, eventType, event_bus.WorkPackageEvent{
		Name:         wp.Name,
		Ticket:       wp.Ticket,
		TotalSeconds: wp.TotalSeconds(now),
	}))
	if err != nil {
		log.Errorf("failed to publish %s event: %v", eventType, err)
	}
}

func toView(wp *WorkPackage, now time.Time) View {
	return View{
		Id:           wp.Id,
		Name:         wp.Name,
		Ticket:       wp.Ticket,
		TotalSeconds: wp.TotalSeconds(now),
		Active:       wp.IsActive(),
		Text:         wp.String(now),
	}
}
