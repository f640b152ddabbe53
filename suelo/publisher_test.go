package suelo

import (
	"encoding/json"
	"testing"
	"time"
)

func testRecord(id, parent string) *InferredRecord {
	parentID := int64(1)
	return &InferredRecord{
		ID:         id,
		Name:       "site",
		Lat:        19.05,
		Lon:        -99.02,
		ParentID:   &parentID,
		ParentName: parent,
		DistanceKm: 5.9,
		Confidence: 78.2,
		CreatedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ---------------------------------------------------------------------------
// PublishRecord
// ---------------------------------------------------------------------------

func TestPublisher_PublishRecord(t *testing.T) {
	client := newMockMQTTClient()
	client.setConnected(true)
	pub := NewPublisher(client, "suelogrid")

	if err := pub.PublishRecord(testRecord("rec-1", "Centro")); err != nil {
		t.Fatalf("PublishRecord: %v", err)
	}

	messages := client.publishedMessages()
	if len(messages) != 2 {
		t.Fatalf("published %d messages, want 2 (event + combined)", len(messages))
	}

	event := messages[0]
	if event.Topic != "suelogrid/analysis" {
		t.Errorf("event topic = %q, want suelogrid/analysis", event.Topic)
	}
	if event.Retain {
		t.Error("event messages must not be retained")
	}
	var rec InferredRecord
	if err := json.Unmarshal(event.Payload, &rec); err != nil {
		t.Fatalf("event payload is not a record: %v", err)
	}
	if rec.ID != "rec-1" || rec.ParentName != "Centro" {
		t.Errorf("event record = (%s, %s)", rec.ID, rec.ParentName)
	}

	combined := messages[1]
	if combined.Topic != "suelogrid/records" {
		t.Errorf("combined topic = %q, want suelogrid/records", combined.Topic)
	}
	if !combined.Retain {
		t.Error("combined topic must be retained")
	}
}

func TestPublisher_LatestPerParent(t *testing.T) {
	client := newMockMQTTClient()
	client.setConnected(true)
	pub := NewPublisher(client, "suelogrid")

	if err := pub.PublishRecord(testRecord("rec-1", "Centro")); err != nil {
		t.Fatal(err)
	}
	if err := pub.PublishRecord(testRecord("rec-2", "Centro")); err != nil {
		t.Fatal(err)
	}
	if err := pub.PublishRecord(testRecord("rec-3", "Norte")); err != nil {
		t.Fatal(err)
	}

	latest, ok := pub.LatestRecord("Centro")
	if !ok {
		t.Fatal("no latest record for Centro")
	}
	if latest.ID != "rec-2" {
		t.Errorf("latest for Centro = %s, want rec-2", latest.ID)
	}

	all := pub.AllRecords()
	if len(all) != 2 {
		t.Errorf("AllRecords has %d entries, want 2", len(all))
	}
}

func TestPublisher_AllRecordsReturnsCopies(t *testing.T) {
	client := newMockMQTTClient()
	client.setConnected(true)
	pub := NewPublisher(client, "suelogrid")

	if err := pub.PublishRecord(testRecord("rec-1", "Centro")); err != nil {
		t.Fatal(err)
	}

	all := pub.AllRecords()
	all["Centro"].ID = "mutated"

	latest, _ := pub.LatestRecord("Centro")
	if latest.ID != "rec-1" {
		t.Error("mutating AllRecords output leaked into the publisher")
	}
}

func TestPublisher_NotConnected(t *testing.T) {
	client := newMockMQTTClient()
	pub := NewPublisher(client, "suelogrid")

	if err := pub.PublishRecord(testRecord("rec-1", "Centro")); err == nil {
		t.Error("expected an error when the client is not connected")
	}
}

func TestPublisher_NilClient(t *testing.T) {
	pub := NewPublisher(nil, "suelogrid")
	if err := pub.PublishRecord(testRecord("rec-1", "Centro")); err == nil {
		t.Error("expected an error with a nil client")
	}
}

func TestPublisher_DefaultPrefix(t *testing.T) {
	client := newMockMQTTClient()
	client.setConnected(true)
	pub := NewPublisher(client, "")

	if err := pub.PublishRecord(testRecord("rec-1", "Centro")); err != nil {
		t.Fatal(err)
	}
	if got := client.publishedMessages()[0].Topic; got != "suelogrid/analysis" {
		t.Errorf("topic = %q, want the default prefix", got)
	}
}

func TestPublisher_RecordWithoutParentKeyedByID(t *testing.T) {
	client := newMockMQTTClient()
	client.setConnected(true)
	pub := NewPublisher(client, "suelogrid")

	rec := testRecord("rec-9", "")
	rec.ParentID = nil
	if err := pub.PublishRecord(rec); err != nil {
		t.Fatal(err)
	}

	if _, ok := pub.LatestRecord("rec-9"); !ok {
		t.Error("parentless record should be keyed by its own ID")
	}
}
