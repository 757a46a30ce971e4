package indexer

import (
	"testing"
	"time"
)

func TestNotifierAppliesRemoteAddAndRemove(t *testing.T) {
	srv, err := StartEmbeddedServer()
	if err != nil {
		t.Fatalf("failed to start embedded nats-server: %v", err)
	}
	defer srv.Shutdown()

	target := NewMemory()
	root := target.Paths().RootPathID()
	path := target.Paths().Allocate(root, "widgets")

	publisher, err := NewNotifier(srv.ClientURL(), target)
	if err != nil {
		t.Fatalf("failed to connect publisher: %v", err)
	}
	defer publisher.Close()

	subscriber, err := NewNotifier(srv.ClientURL(), target)
	if err != nil {
		t.Fatalf("failed to connect subscriber: %v", err)
	}
	defer subscriber.Close()

	var keyUpdates []int64
	if err := subscriber.Subscribe(path, func(pathID int, ids []int64) {
		keyUpdates = append(keyUpdates, ids...)
	}); err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	if err := publisher.PublishAdd(path, []int64{501, 502}); err != nil {
		t.Fatalf("failed to publish add: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(target.GetAllMatches(path)) < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if len(target.GetAllMatches(path)) != 2 {
		t.Fatalf("expected 2 elements applied via notification, got %v", target.GetAllMatches(path))
	}

	if err := publisher.PublishRemove(path, []int64{501}); err != nil {
		t.Fatalf("failed to publish remove: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for len(target.GetAllMatches(path)) != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if len(target.GetAllMatches(path)) != 1 {
		t.Fatalf("expected 1 element remaining after remote remove, got %v", target.GetAllMatches(path))
	}
}
