package service

import (
	"context"
	"sync"

	"cartsync/internal/core/domain"
	"cartsync/internal/port"
)

// mockStore is an in-memory KeyValueStore with switchable failure modes.
type mockStore struct {
	mu          sync.Mutex
	data        map[string]string
	getErr      error // returned by every Get when set
	setErr      error // returned by every Set when set
	failNextSet error // consumed by the next Set
	sets        int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", port.ErrKeyNotFound
	}
	return val, nil
}

func (m *mockStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.failNextSet != nil {
		err := m.failNextSet
		m.failNextSet = nil
		return err
	}
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockStore) seed(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *mockStore) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// stubRemote is a closure-driven RemoteService.
type stubRemote struct {
	mu        sync.Mutex
	menuFn    func() ([]byte, error)
	submitFn  func(domain.Order) (*domain.CheckoutResponse, error)
	statusFn  func(string) (*domain.StatusResponse, error)
	cancelFn  func(string, string) (*domain.CancelResponse, error)
	menuCalls int
	submits   int
}

func (r *stubRemote) FetchMenu(context.Context) ([]byte, error) {
	r.mu.Lock()
	r.menuCalls++
	fn := r.menuFn
	r.mu.Unlock()
	if fn == nil {
		return nil, &port.NetworkError{Op: "fetch menu", Err: context.DeadlineExceeded}
	}
	return fn()
}

func (r *stubRemote) SubmitOrder(_ context.Context, order domain.Order) (*domain.CheckoutResponse, error) {
	r.mu.Lock()
	r.submits++
	fn := r.submitFn
	r.mu.Unlock()
	if fn == nil {
		return &domain.CheckoutResponse{Success: true, OrderNumber: "ORD-1"}, nil
	}
	return fn(order)
}

func (r *stubRemote) OrderStatus(_ context.Context, orderNumber string) (*domain.StatusResponse, error) {
	if r.statusFn == nil {
		return &domain.StatusResponse{Success: true}, nil
	}
	return r.statusFn(orderNumber)
}

func (r *stubRemote) CancelOrder(_ context.Context, orderNumber, reason string) (*domain.CancelResponse, error) {
	if r.cancelFn == nil {
		return &domain.CancelResponse{Success: true}, nil
	}
	return r.cancelFn(orderNumber, reason)
}

func (r *stubRemote) submitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submits
}

func (r *stubRemote) menuCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.menuCalls
}
