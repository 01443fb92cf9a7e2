package issue_tracker

import (
	"context"
	"sync"
)

// Worklog is one booking recorded by ClientStub.
type Worklog struct {
	Ticket  string
	Seconds int
}

type ClientStub struct {
	mu         sync.RWMutex
	worklogs   []Worklog
	account    Account
	worklogErr error
	verifyErr  error
	// block, when set, holds AddWorklog until it is closed or the context ends.
	block chan struct{}
}

func NewClientStub() *ClientStub {
	return &ClientStub{}
}

func (c *ClientStub) AddWorklog(ctx context.Context, ticket string, seconds int) error {
	c.mu.RLock()
	block := c.block
	c.mu.RUnlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.worklogErr != nil {
		return c.worklogErr
	}
	c.worklogs = append(c.worklogs, Worklog{Ticket: ticket, Seconds: seconds})
	return nil
}

func (c *ClientStub) Verify(ctx context.Context) (Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.verifyErr != nil {
		return Account{}, c.verifyErr
	}
	return c.account, nil
}

func (c *ClientStub) SetWorklogError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.worklogErr = err
}

func (c *ClientStub) SetVerifyResult(account Account, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = account
	c.verifyErr = err
}

// Block makes AddWorklog wait until the returned function is called.
func (c *ClientStub) Block() (release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	block := make(chan struct{})
	c.block = block
	var once sync.Once
	return func() { once.Do(func() { close(block) }) }
}

func (c *ClientStub) Worklogs() []Worklog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Worklog(nil), c.worklogs...)
}
