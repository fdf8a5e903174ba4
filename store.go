package goadssim

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/mrpasztoradam/goadssim/internal/ads"
)

// NotificationSink receives device notification samples for subscriptions
// registered through it. Sessions implement this to push DEVICE_NOTIFICATION
// frames back to their client.
type NotificationSink interface {
	Notify(handle uint32, timestamp time.Time, sample []byte)
}

type indexKey struct {
	group  uint32
	offset uint32
}

// Store holds the simulated symbol table. Variables are addressable three
// ways: by index group and offset, by name, and by handle. The store owns
// all notification subscriptions so a disconnecting session can drop its
// subscriptions in one call.
//
// A single mutex guards the store. The advanced handler holds it for the
// whole request, so value updates and their notification fan-out are atomic
// with respect to other connections.
type Store struct {
	mu sync.Mutex

	byIndices map[indexKey]*Variable
	byName    map[string]*Variable
	byHandle  map[uint32]*Variable

	subOwner map[uint32]*Variable // notification handle to its variable

	nextHandle       uint32
	nextNotification uint32

	logger  Logger
	metrics Metrics
}

// NewStore creates an empty symbol store.
func NewStore() *Store {
	return &Store{
		byIndices:        make(map[indexKey]*Variable),
		byName:           make(map[string]*Variable),
		byHandle:         make(map[uint32]*Variable),
		subOwner:         make(map[uint32]*Variable),
		nextHandle:       variableHandleBase,
		nextNotification: notificationHandleBase,
		logger:           DefaultLogger,
		metrics:          DefaultMetrics,
	}
}

// SetLogger replaces the store's logger. Intended for wiring during server
// construction, before the store is shared between goroutines.
func (s *Store) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetMetrics replaces the store's metrics collector.
func (s *Store) SetMetrics(metrics Metrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// Add registers a pre-built variable, assigning it a handle. Variables with
// an index group of zero are placed in the default group with an offset
// derived from the handle.
func (s *Store) Add(v *Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(v)
}

func (s *Store) addLocked(v *Variable) error {
	v.Handle = s.nextHandle
	if v.IndexGroup == 0 {
		v.IndexGroup = DefaultIndexGroup
		v.IndexOffset = variableHandleBase + v.Handle
	}
	key := indexKey{v.IndexGroup, v.IndexOffset}
	if _, exists := s.byIndices[key]; exists {
		return fmt.Errorf("store: variable already registered at group 0x%X offset 0x%X", v.IndexGroup, v.IndexOffset)
	}
	if v.Name != "" {
		if _, exists := s.byName[v.Name]; exists {
			return fmt.Errorf("store: variable %q already registered", v.Name)
		}
	}
	s.nextHandle++
	s.byIndices[key] = v
	s.byHandle[v.Handle] = v
	if v.Name != "" {
		s.byName[v.Name] = v
	}
	s.logger.Debug("variable registered",
		"name", v.Name,
		"handle", v.Handle,
		"index_group", v.IndexGroup,
		"index_offset", v.IndexOffset,
		"size", v.Size())
	return nil
}

// GetByIndices looks up a variable by index group and offset.
func (s *Store) GetByIndices(group, offset uint32) (*Variable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byIndices[indexKey{group, offset}]
	return v, ok
}

// GetByName looks up a variable by symbol name.
func (s *Store) GetByName(name string) (*Variable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byName[sanitizeName(name)]
	return v, ok
}

// GetByHandle looks up a variable by its variable handle.
func (s *Store) GetByHandle(handle uint32) (*Variable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byHandle[handle]
	return v, ok
}

// getOrCreateByIndicesLocked returns the variable at the address, creating
// an anonymous one with default type and a zero-filled buffer when absent.
func (s *Store) getOrCreateByIndicesLocked(group, offset uint32) *Variable {
	key := indexKey{group, offset}
	if v, ok := s.byIndices[key]; ok {
		return v
	}
	v := &Variable{
		Value:       make([]byte, defaultValueSize),
		DataType:    ads.TypeUInt16,
		TypeName:    typeNameFor(ads.TypeUInt16),
		IndexGroup:  group,
		IndexOffset: offset,
		Handle:      s.nextHandle,
	}
	s.nextHandle++
	s.byIndices[key] = v
	s.byHandle[v.Handle] = v
	s.logger.Debug("variable created by indices",
		"handle", v.Handle,
		"index_group", group,
		"index_offset", offset)
	return v
}

// getOrCreateByNameLocked returns the named variable, creating it in the
// default index group when absent. The index offset is derived from the
// handle, which keeps implicitly created addresses unique.
func (s *Store) getOrCreateByNameLocked(name string) *Variable {
	name = sanitizeName(name)
	if v, ok := s.byName[name]; ok {
		return v
	}
	v := &Variable{
		Name:       name,
		Value:      make([]byte, defaultValueSize),
		DataType:   ads.TypeUInt16,
		TypeName:   typeNameFor(ads.TypeUInt16),
		IndexGroup: DefaultIndexGroup,
		Handle:     s.nextHandle,
	}
	s.nextHandle++
	v.IndexOffset = variableHandleBase + v.Handle
	s.byIndices[indexKey{v.IndexGroup, v.IndexOffset}] = v
	s.byName[name] = v
	s.byHandle[v.Handle] = v
	s.logger.Debug("variable created by name", "name", name, "handle", v.Handle)
	return v
}

// Write replaces a variable's value, firing notifications when the value
// changes. The caller addresses the variable by handle.
func (s *Store) Write(handle uint32, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byHandle[handle]
	if !ok {
		return NewValidationError("write", fmt.Sprintf("unknown variable handle %d", handle))
	}
	s.writeLocked(v, value)
	return nil
}

// writeLocked updates the value and synchronously delivers a sample to
// every subscription when the stored bytes change. Delivery happens under
// the store lock, so observers see updates in write order.
func (s *Store) writeLocked(v *Variable, value []byte) {
	changed := !bytes.Equal(v.Value, value)
	if changed && len(v.subs) > 0 {
		now := time.Now()
		for _, sub := range v.subs {
			sample := make([]byte, sub.Length)
			copy(sample, value)
			sub.Sink.Notify(sub.Handle, now, sample)
			s.metrics.NotificationSent()
		}
	}
	v.Value = append(v.Value[:0:0], value...)
}

// RegisterNotification subscribes the sink to changes of the variable and
// returns the new notification handle.
func (s *Store) RegisterNotification(v *Variable, length uint32, sink NotificationSink) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerNotificationLocked(v, length, sink)
}

func (s *Store) registerNotificationLocked(v *Variable, length uint32, sink NotificationSink) uint32 {
	handle := s.nextNotification
	s.nextNotification++
	v.subs = append(v.subs, &Subscription{Handle: handle, Length: length, Sink: sink})
	s.subOwner[handle] = v
	s.metrics.SubscriptionsActive(len(s.subOwner))
	s.logger.Debug("notification registered",
		"notification_handle", handle,
		"variable_handle", v.Handle,
		"length", length)
	return handle
}

// UnregisterNotification removes the subscription with the given handle.
// It reports whether the handle was known.
func (s *Store) UnregisterNotification(handle uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unregisterNotificationLocked(handle)
}

func (s *Store) unregisterNotificationLocked(handle uint32) bool {
	v, ok := s.subOwner[handle]
	if !ok {
		return false
	}
	delete(s.subOwner, handle)
	for i, sub := range v.subs {
		if sub.Handle == handle {
			v.subs = append(v.subs[:i], v.subs[i+1:]...)
			break
		}
	}
	s.metrics.SubscriptionsActive(len(s.subOwner))
	return true
}

// DropSink removes every subscription delivering to the given sink. Called
// when a session disconnects so notifications stop flowing to dead
// connections.
func (s *Store) DropSink(sink NotificationSink) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for handle, v := range s.subOwner {
		for i, sub := range v.subs {
			if sub.Handle == handle && sub.Sink == sink {
				v.subs = append(v.subs[:i], v.subs[i+1:]...)
				delete(s.subOwner, handle)
				dropped++
				break
			}
		}
	}
	if dropped > 0 {
		s.metrics.SubscriptionsActive(len(s.subOwner))
		s.logger.Debug("subscriptions dropped for disconnected session", "count", dropped)
	}
	return dropped
}

// Reset discards all variables and subscriptions and restarts the handle
// counters.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byIndices = make(map[indexKey]*Variable)
	s.byName = make(map[string]*Variable)
	s.byHandle = make(map[uint32]*Variable)
	s.subOwner = make(map[uint32]*Variable)
	s.nextHandle = variableHandleBase
	s.nextNotification = notificationHandleBase
	s.metrics.SubscriptionsActive(0)
}

// Len returns the number of stored variables.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byIndices)
}

// Snapshot returns copies of all stored variables, ordered by handle.
// Subscriptions are not carried over.
func (s *Store) Snapshot() []Variable {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Variable, 0, len(s.byHandle))
	for h := variableHandleBase; h < s.nextHandle; h++ {
		v, ok := s.byHandle[h]
		if !ok {
			continue
		}
		c := *v
		c.Value = append([]byte(nil), v.Value...)
		c.subs = nil
		out = append(out, c)
	}
	return out
}

// SubscriptionCount returns the number of active notification
// subscriptions across all variables.
func (s *Store) SubscriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subOwner)
}
