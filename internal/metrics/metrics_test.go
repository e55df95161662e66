package metrics

import (
	"errors"
	"testing"
)

func TestScope_SuccessPairsBeginWithEnd(t *testing.T) {
	logger := NewRecordingLogger()

	func() (err error) {
		defer Scope(logger, "GetUsers")(&err)
		return nil
	}()

	if err := logger.AssertNoLeakedTokens(); err != nil {
		t.Fatal(err)
	}

	events := logger.Events()
	if len(events) != 3 {
		t.Fatalf("expected Begin+End+Increment, got %d events: %+v", len(events), events)
	}
	if events[0].Kind != "Begin" || events[1].Kind != "End" || events[2].Kind != "Increment" {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
}

func TestScope_FailurePairsBeginWithCancelBegin(t *testing.T) {
	logger := NewRecordingLogger()
	sentinel := errors.New("shard unreachable")

	func() (err error) {
		defer Scope(logger, "GetUsers")(&err)
		err = sentinel
		return err
	}()

	if err := logger.AssertNoLeakedTokens(); err != nil {
		t.Fatal(err)
	}

	events := logger.Events()
	if len(events) != 2 {
		t.Fatalf("expected Begin+CancelBegin, got %d events: %+v", len(events), events)
	}
	if events[0].Kind != "Begin" || events[1].Kind != "CancelBegin" {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
}

func TestRecordingLogger_AddAndIncrementDoNotRequireOpenToken(t *testing.T) {
	logger := NewRecordingLogger()
	logger.Add("groups-mapped-to-user", 7)
	logger.Increment("GetUsers")

	events := logger.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Value != 7 {
		t.Fatalf("expected gauge value 7, got %d", events[0].Value)
	}
}
