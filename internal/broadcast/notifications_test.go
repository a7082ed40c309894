package broadcast

import (
	"testing"

	"broadcast-orchestrator/internal/notify"
)

func TestNotificationBridge_subscribe_idempotent(t *testing.T) {
	center := notify.NewCenter()
	var got []EventKind
	b := newNotificationBridge(center, func(e Event) { got = append(got, e.Kind) })

	b.Subscribe()
	b.Subscribe()
	if n := center.ObserverCount(notify.AudioInterruption); n != 1 {
		t.Fatalf("expected one interruption observer, got %d", n)
	}
	if !b.Active() {
		t.Error("bridge should be active")
	}

	center.Post(notify.Interruption(notify.InterruptionBegan))
	if len(got) != 1 || got[0] != EventAudioSessionInterrupted {
		t.Errorf("expected one interrupted event, got %v", got)
	}

	b.Unsubscribe()
	b.Unsubscribe()
	for _, name := range []notify.Name{notify.AudioInterruption, notify.MediaServicesLost, notify.MediaServicesReset} {
		if n := center.ObserverCount(name); n != 0 {
			t.Errorf("%s: expected no observers, got %d", name, n)
		}
	}
	if b.Active() {
		t.Error("bridge should be inactive")
	}
}

func TestNotificationBridge_nil_source(t *testing.T) {
	b := newNotificationBridge(nil, func(Event) {})
	b.Subscribe()
	if b.Active() {
		t.Error("bridge without a source cannot subscribe")
	}
	b.Unsubscribe()
}

func TestNotificationBridge_maps_media_services(t *testing.T) {
	center := notify.NewCenter()
	var got []EventKind
	b := newNotificationBridge(center, func(e Event) { got = append(got, e.Kind) })
	b.Subscribe()

	center.Post(notify.Notification{Name: notify.MediaServicesReset})
	center.Post(notify.Notification{Name: notify.MediaServicesLost})
	center.Post(notify.Interruption(notify.InterruptionEnded))

	want := []EventKind{EventMediaServicesReset, EventMediaServicesLost, EventAudioSessionResumed}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
