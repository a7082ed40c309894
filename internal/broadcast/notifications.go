package broadcast

import "broadcast-orchestrator/internal/notify"

// NotificationBridge maps OS-level audio session notifications to events. It
// holds its subscriptions while the host surface is attached and none otherwise.
type NotificationBridge struct {
	source NotificationSource
	emit   func(Event)
	subs   []notify.Subscription
}

func newNotificationBridge(source NotificationSource, emit func(Event)) *NotificationBridge {
	return &NotificationBridge{source: source, emit: emit}
}

// Subscribe registers for interruption, media-services-lost and
// media-services-reset. It is a no-op while already subscribed.
func (b *NotificationBridge) Subscribe() {
	if b.subs != nil || b.source == nil {
		return
	}
	b.subs = []notify.Subscription{
		b.source.Subscribe(notify.AudioInterruption, b.audioSessionInterrupted),
		b.source.Subscribe(notify.MediaServicesLost, b.mediaServicesLost),
		b.source.Subscribe(notify.MediaServicesReset, b.mediaServicesReset),
	}
}

// Unsubscribe cancels every subscription. It is a no-op when not subscribed.
func (b *NotificationBridge) Unsubscribe() {
	for _, s := range b.subs {
		s.Cancel()
	}
	b.subs = nil
}

// Active reports whether the subscriptions are held.
func (b *NotificationBridge) Active() bool {
	return b.subs != nil
}

func (b *NotificationBridge) audioSessionInterrupted(n notify.Notification) {
	if !b.Active() {
		return
	}
	t, ok := n.Info[notify.InterruptionTypeKey].(notify.InterruptionType)
	if !ok {
		return
	}
	switch t {
	case notify.InterruptionBegan:
		b.emit(Event{Kind: EventAudioSessionInterrupted})
	case notify.InterruptionEnded:
		b.emit(Event{Kind: EventAudioSessionResumed})
	}
}

func (b *NotificationBridge) mediaServicesLost(notify.Notification) {
	if b.Active() {
		b.emit(Event{Kind: EventMediaServicesLost})
	}
}

func (b *NotificationBridge) mediaServicesReset(notify.Notification) {
	if b.Active() {
		b.emit(Event{Kind: EventMediaServicesReset})
	}
}
