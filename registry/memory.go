package registry

import (
	"context"
	"sort"
	"sync"

	"order-notifier-go/exchange"
)

var _ Store = (*MemoryStore)(nil)

type pairKey struct {
	uid        int64
	exchangeID int
}

type memSubscription struct {
	apiKey string
	secret string
}

// MemoryStore keeps the registry in process memory. Used by tests and
// for running the bot without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	subs    map[pairKey]memSubscription
	tracked map[pairKey]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs:    make(map[pairKey]memSubscription),
		tracked: make(map[pairKey]map[string]struct{}),
	}
}

func (s *MemoryStore) SubscribedUserIDs(context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[int64]struct{}{}
	var uids []int64
	for k := range s.subs {
		if _, dup := seen[k.uid]; !dup {
			seen[k.uid] = struct{}{}
			uids = append(uids, k.uid)
		}
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

func (s *MemoryStore) Credentials(_ context.Context, uid int64, exchangeID int) (string, string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[pairKey{uid, exchangeID}]
	if !ok {
		return "", "", false, nil
	}
	return sub.apiKey, sub.secret, true, nil
}

func (s *MemoryStore) TrackedOrderIDs(_ context.Context, uid int64, exchangeID int) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.tracked[pairKey{uid, exchangeID}]))
	for id := range s.tracked[pairKey{uid, exchangeID}] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *MemoryStore) AddTrackedOrderIDs(_ context.Context, refs []OrderRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range refs {
		k := pairKey{r.UID, r.ExchangeID}
		if s.tracked[k] == nil {
			s.tracked[k] = make(map[string]struct{})
		}
		s.tracked[k][r.OrderID] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) IsSubscribed(_ context.Context, uid int64, exchangeID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subs[pairKey{uid, exchangeID}]
	return ok, nil
}

func (s *MemoryStore) Subscribe(_ context.Context, uid int64, exchangeID int, apiKey, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{uid, exchangeID}
	if _, ok := s.subs[k]; ok {
		return ErrAlreadySubscribed
	}
	s.subs[k] = memSubscription{apiKey: apiKey, secret: secret}
	return nil
}

func (s *MemoryStore) Unsubscribe(_ context.Context, uid int64, exchangeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{uid, exchangeID}
	if _, ok := s.subs[k]; !ok {
		return ErrNotSubscribed
	}
	delete(s.subs, k)
	return nil
}

func (s *MemoryStore) UserSubscriptions(_ context.Context, uid int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for k := range s.subs {
		if k.uid != uid {
			continue
		}
		if info, ok := exchange.ByID(k.exchangeID); ok {
			names = append(names, info.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
