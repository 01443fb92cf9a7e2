package worklog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/flextime/internal/event_bus"
	"github.com/klokku/flextime/internal/utils"
	"github.com/klokku/flextime/pkg/issue_tracker"
	"github.com/klokku/flextime/pkg/work_package"
	log "github.com/sirupsen/logrus"
)

var ErrNothingToLog = errors.New("work package has no ticket or no tracked time")

const DefaultTimeout = 5 * time.Second

// Request is the snapshot a submission works on. It is never changed after Submit.
type Request struct {
	// WorkPackageId is the stable id of the package the time is taken from. Empty for ad hoc posts.
	WorkPackageId string
	WorkPackage   string
	Ticket        string
	Seconds       int
}

type Result struct {
	Id      uuid.UUID
	Request Request
	Status  event_bus.WorklogStatus
	Err     error
}

// Submission is one worklog post running in the background.
type Submission struct {
	Id       uuid.UUID
	Request  Request
	done     chan Result
	finished chan struct{}
	result   Result
	cancel   context.CancelFunc
}

// Done delivers the result once and is then closed.
func (s *Submission) Done() <-chan Result {
	return s.done
}

// Cancel abandons the post. The result then carries context.Canceled.
func (s *Submission) Cancel() {
	s.cancel()
}

// Wait blocks until the submission finishes. It can be called any number of times.
func (s *Submission) Wait() Result {
	<-s.finished
	return s.result
}

// TimeTracker is where booked time is taken off once the tracker accepted it.
type TimeTracker interface {
	Snapshot(name string) (work_package.View, error)
	LogWorkResult(ctx context.Context, id string, seconds int, postErr error) error
}

type Service interface {
	// Submit posts req in the background. Validation errors are returned before anything is sent.
	Submit(ctx context.Context, req Request) (*Submission, error)
	// SubmitWorkPackage snapshots the named work package and submits its whole tracked time.
	SubmitWorkPackage(ctx context.Context, name string) (*Submission, error)
	// Apply books a finished submission against its work package. The caller owns the
	// package collection and calls it once the result has been received.
	Apply(ctx context.Context, result Result) error
	History(ctx context.Context, limit int) ([]Entry, error)
}

type ServiceImpl struct {
	client   issue_tracker.Client
	tracker  TimeTracker
	history  HistoryRepository
	eventBus *event_bus.EventBus
	clock    utils.Clock
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewService(client issue_tracker.Client, tracker TimeTracker, history HistoryRepository, eventBus *event_bus.EventBus, clock utils.Clock, timeout time.Duration) *ServiceImpl {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ServiceImpl{
		client:   client,
		tracker:  tracker,
		history:  history,
		eventBus: eventBus,
		clock:    clock,
		timeout:  timeout,
	}
}

func (s *ServiceImpl) SubmitWorkPackage(ctx context.Context, name string) (*Submission, error) {
	view, err := s.tracker.Snapshot(name)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, Request{
		WorkPackageId: view.Id,
		WorkPackage:   view.Name,
		Ticket:        view.Ticket,
		Seconds:       int(view.TotalSeconds),
	})
}

func (s *ServiceImpl) Apply(ctx context.Context, result Result) error {
	if s.tracker == nil || result.Request.WorkPackageId == "" {
		return nil
	}
	err := s.tracker.LogWorkResult(ctx, result.Request.WorkPackageId, result.Request.Seconds, result.Err)
	if err != nil {
		log.Errorf("Failed to apply worklog %s to %q: %v", result.Id, result.Request.WorkPackage, err)
		return err
	}
	return nil
}

func (s *ServiceImpl) Submit(ctx context.Context, req Request) (*Submission, error) {
	req.Ticket = strings.TrimSpace(req.Ticket)
	if req.Ticket == "" || req.Seconds <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrNothingToLog, req.WorkPackage)
	}

	// The post outlives the caller, e.g. an HTTP request, and ends on timeout or Cancel.
	base := context.WithoutCancel(ctx)
	postCtx, cancel := context.WithTimeout(base, s.timeout)
	submission := &Submission{
		Id:       uuid.New(),
		Request:  req,
		done:     make(chan Result, 1),
		finished: make(chan struct{}),
		cancel:   cancel,
	}
	log.Infof("Submitting worklog %s: %d seconds to %s", submission.Id, req.Seconds, req.Ticket)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		err := s.client.AddWorklog(postCtx, req.Ticket, req.Seconds)
		result := Result{Id: submission.Id, Request: req, Status: status(err), Err: err}
		s.publish(base, result)

		submission.result = result
		close(submission.finished)
		submission.done <- result
		close(submission.done)
	}()
	return submission, nil
}

func (s *ServiceImpl) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.history.List(ctx, limit)
}

// Wait blocks until every submission in flight has finished.
func (s *ServiceImpl) Wait() {
	s.wg.Wait()
}

func (s *ServiceImpl) publish(ctx context.Context, result Result) {
	message := ""
	if result.Err != nil {
		message = result.Err.Error()
	}
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.WorklogFinished, event_bus.WorklogFinishedEvent{
		Id:          result.Id.String(),
		WorkPackage: result.Request.WorkPackage,
		Ticket:      result.Request.Ticket,
		Seconds:     result.Request.Seconds,
		Status:      result.Status,
		Error:       message,
		FinishedAt:  s.clock.Now(),
	}))
	if err != nil {
		log.Errorf("failed to publish worklog finished event: %v", err)
	}
}

func status(err error) event_bus.WorklogStatus {
	switch {
	case err == nil:
		return event_bus.WorklogSucceeded
	case errors.Is(err, context.Canceled):
		return event_bus.WorklogCancelled
	default:
		return event_bus.WorklogFailed
	}
}
