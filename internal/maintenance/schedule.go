// Package maintenance keeps the shared refresh schedule so that several
// instances behind one bucket run the daily catalog refresh only once.
package maintenance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/garyellow/nchu-course-helper/internal/r2client"
)

const (
	loadAttempts  = 3
	writeAttempts = 3
)

// State is the shared schedule document.
type State struct {
	LastRefresh int64  `json:"last_refresh"`
	RefreshedBy string `json:"refreshed_by,omitempty"`
	UpdatedAt   int64  `json:"updated_at"`
}

// LastRefreshTime returns LastRefresh as a time, zero when never refreshed.
func (s State) LastRefreshTime() time.Time {
	if s.LastRefresh == 0 {
		return time.Time{}
	}
	return time.Unix(s.LastRefresh, 0)
}

// ObjectClient is the subset of the R2 client the store needs.
type ObjectClient interface {
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	PutObjectIfNotExists(ctx context.Context, key string, body io.Reader, contentType string) (bool, string, error)
	PutObjectIfMatch(ctx context.Context, key string, body io.Reader, etag string, contentType string) (bool, string, error)
}

// R2ScheduleStore persists State in R2 with ETag compare-and-swap.
type R2ScheduleStore struct {
	client         ObjectClient
	key            string
	owner          string
	requestTimeout time.Duration
}

// NewR2ScheduleStore creates a store identified by a fresh instance ID.
func NewR2ScheduleStore(client ObjectClient, key string, requestTimeout time.Duration) (*R2ScheduleStore, error) {
	if client == nil {
		return nil, errors.New("maintenance: r2 client is required")
	}
	if key == "" {
		return nil, errors.New("maintenance: schedule key is required")
	}
	return &R2ScheduleStore{
		client:         client,
		key:            key,
		owner:          uuid.NewString(),
		requestTimeout: requestTimeout,
	}, nil
}

// Owner returns the instance ID written into claimed refreshes.
func (s *R2ScheduleStore) Owner() string {
	return s.owner
}

// Load returns the state and its ETag; exists is false when the object is
// missing. Transient errors are retried, cancellation is not.
func (s *R2ScheduleStore) Load(ctx context.Context) (state State, etag string, exists bool, err error) {
	for attempt := range loadAttempts {
		state, etag, exists, err = s.loadOnce(ctx)
		if err == nil {
			return state, etag, exists, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return State{}, "", false, err
		}
		if attempt == loadAttempts-1 {
			break
		}

		timer := time.NewTimer(100 * time.Millisecond * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return State{}, "", false, ctx.Err()
		case <-timer.C:
		}
	}
	return State{}, "", false, err
}

func (s *R2ScheduleStore) loadOnce(ctx context.Context) (State, string, bool, error) {
	readCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	body, etag, err := s.client.Download(readCtx, s.key)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return State{}, "", false, nil
		}
		return State{}, "", false, fmt.Errorf("maintenance: download state: %w", err)
	}
	defer func() { _ = body.Close() }()

	var state State
	if err := json.NewDecoder(body).Decode(&state); err != nil {
		return State{}, "", false, fmt.Errorf("maintenance: decode state: %w", err)
	}
	return state, etag, true, nil
}

// Ensure returns the state and its ETag, creating an empty document when
// none exists yet.
func (s *R2ScheduleStore) Ensure(ctx context.Context) (State, string, error) {
	state, etag, exists, err := s.Load(ctx)
	if err != nil {
		return State{}, "", err
	}
	if exists {
		return state, etag, nil
	}

	state = State{UpdatedAt: time.Now().UTC().Unix()}
	data, err := json.Marshal(state)
	if err != nil {
		return State{}, "", fmt.Errorf("maintenance: marshal state: %w", err)
	}

	writeCtx, cancel := s.withTimeout(ctx)
	created, createdETag, err := s.client.PutObjectIfNotExists(writeCtx, s.key, bytes.NewReader(data), "application/json")
	cancel()
	if err != nil {
		return State{}, "", fmt.Errorf("maintenance: create state: %w", err)
	}
	if created {
		return state, createdETag, nil
	}

	// Lost the create race; read what the other instance wrote.
	state, etag, exists, err = s.Load(ctx)
	if err != nil {
		return State{}, "", err
	}
	if !exists {
		return State{}, "", errors.New("maintenance: state missing after create race")
	}
	return state, etag, nil
}

// ClaimRefresh records a refresh at now unless one was recorded less than
// minGap earlier. Only the instance whose write wins gets claimed=true.
func (s *R2ScheduleStore) ClaimRefresh(ctx context.Context, now time.Time, minGap time.Duration) (bool, error) {
	claimed := false
	err := s.apply(ctx, func(st *State) bool {
		if last := st.LastRefreshTime(); !last.IsZero() && now.Sub(last) < minGap {
			claimed = false
			return false
		}
		st.LastRefresh = now.Unix()
		st.RefreshedBy = s.owner
		claimed = true
		return true
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// apply runs fn on the current state and writes the result when fn returns
// true, retrying when another writer changed the object in between.
func (s *R2ScheduleStore) apply(ctx context.Context, fn func(*State) bool) error {
	for range writeAttempts {
		state, etag, err := s.Ensure(ctx)
		if err != nil {
			return err
		}
		if !fn(&state) {
			return nil
		}
		state.UpdatedAt = time.Now().UTC().Unix()

		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("maintenance: marshal state: %w", err)
		}

		writeCtx, cancel := s.withTimeout(ctx)
		updated, _, err := s.client.PutObjectIfMatch(writeCtx, s.key, bytes.NewReader(data), etag, "application/json")
		cancel()
		if err != nil {
			return fmt.Errorf("maintenance: update state: %w", err)
		}
		if updated {
			return nil
		}
	}
	return errors.New("maintenance: failed to update state after retries")
}

func (s *R2ScheduleStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}
