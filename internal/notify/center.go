// Package notify is a small in-process notification center. Observers hold an
// explicit Subscription handle and cancel it themselves; there is no process-wide
// default center.
package notify

import "sync"

// Name identifies a notification.
type Name string

const (
	// AudioInterruption is posted when another client interrupts the audio
	// session or hands it back. Info carries InterruptionTypeKey.
	AudioInterruption Name = "audio-interruption"
	// MediaServicesLost is posted when the media server becomes unavailable.
	MediaServicesLost Name = "media-services-lost"
	// MediaServicesReset is posted after the media server has restarted.
	MediaServicesReset Name = "media-services-reset"
)

// InterruptionTypeKey is the Info key holding an InterruptionType.
const InterruptionTypeKey = "interruption_type"

// InterruptionType is the phase of an audio interruption.
type InterruptionType uint

const (
	InterruptionEnded InterruptionType = 0
	InterruptionBegan InterruptionType = 1
)

// ParseInterruptionType maps "began"/"ended" to an InterruptionType.
func ParseInterruptionType(s string) (InterruptionType, bool) {
	switch s {
	case "began":
		return InterruptionBegan, true
	case "ended":
		return InterruptionEnded, true
	default:
		return 0, false
	}
}

// Notification is a single posted notification.
type Notification struct {
	Name Name
	Info map[string]any
}

// Interruption builds an AudioInterruption notification of the given phase.
func Interruption(t InterruptionType) Notification {
	return Notification{
		Name: AudioInterruption,
		Info: map[string]any{InterruptionTypeKey: t},
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	// Cancel removes the observer. Calling it more than once is a no-op.
	Cancel()
}

// Center delivers posted notifications to observers subscribed by name.
// It is safe for concurrent use. Observers run synchronously in the goroutine
// that calls Post.
type Center struct {
	mu        sync.RWMutex
	nextID    uint64
	observers map[Name]map[uint64]func(Notification)
}

// NewCenter returns an empty Center.
func NewCenter() *Center {
	return &Center{
		observers: make(map[Name]map[uint64]func(Notification)),
	}
}

// Subscribe registers fn for notifications named name.
func (c *Center) Subscribe(name Name, fn func(Notification)) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	byID, ok := c.observers[name]
	if !ok {
		byID = make(map[uint64]func(Notification))
		c.observers[name] = byID
	}
	byID[id] = fn

	return &subscription{center: c, name: name, id: id}
}

// Post delivers n to every observer of n.Name.
func (c *Center) Post(n Notification) {
	c.mu.RLock()
	fns := make([]func(Notification), 0, len(c.observers[n.Name]))
	for _, fn := range c.observers[n.Name] {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(n)
	}
}

// ObserverCount returns the number of observers registered for name.
func (c *Center) ObserverCount(name Name) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.observers[name])
}

func (c *Center) remove(name Name, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byID, ok := c.observers[name]
	if !ok {
		return
	}
	delete(byID, id)
	if len(byID) == 0 {
		delete(c.observers, name)
	}
}

type subscription struct {
	center *Center
	name   Name
	id     uint64
	once   sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(func() { s.center.remove(s.name, s.id) })
}
