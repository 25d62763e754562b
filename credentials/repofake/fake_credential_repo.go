package credentialsrepofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/medassist-client/credentials"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
)

var _ credentials.Store = (*FakeCredentialRepo)(nil)

// FakeCredentialRepo is an in-memory credentials.Store. Setting it unavailable
// makes every call fail the way an unreachable secure store would.
type FakeCredentialRepo struct {
	values      map[credentials.Name]string
	unavailable bool
	failSets    bool
	sets        map[credentials.Name]int
	lock        sync.RWMutex
}

func NewFakeCredentialRepo() *FakeCredentialRepo {
	return &FakeCredentialRepo{
		values: make(map[credentials.Name]string),
		sets:   make(map[credentials.Name]int),
	}
}

// SetUnavailable toggles simulated backend failure.
func (r *FakeCredentialRepo) SetUnavailable(unavailable bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.unavailable = unavailable
}

// SetFailWrites makes Set fail while Get and Clear keep working.
func (r *FakeCredentialRepo) SetFailWrites(fail bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failSets = fail
}

func (r *FakeCredentialRepo) Get(_ context.Context, name credentials.Name) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.unavailable {
		return "", apperrors.ErrStoreUnavailable
	}
	v, ok := r.values[name]
	if !ok {
		return "", credentials.ErrNotFound
	}
	return v, nil
}

func (r *FakeCredentialRepo) Set(_ context.Context, name credentials.Name, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.unavailable || r.failSets {
		return apperrors.ErrStoreUnavailable
	}
	r.sets[name]++
	r.values[name] = value
	return nil
}

func (r *FakeCredentialRepo) Clear(_ context.Context, name credentials.Name) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.unavailable {
		return apperrors.ErrStoreUnavailable
	}
	delete(r.values, name)
	return nil
}

// Value returns the raw stored value, bypassing the unavailable switch.
func (r *FakeCredentialRepo) Value(name credentials.Name) (string, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	v, ok := r.values[name]
	return v, ok
}

// Sets reports how many successful writes name has received.
func (r *FakeCredentialRepo) Sets(name credentials.Name) int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.sets[name]
}
