package suelo

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher pushes saved inferred records to MQTT: every record goes to an
// events topic, and the latest record per parent sample is kept on a
// retained combined topic so late subscribers see current state.
type Publisher struct {
	client mqtt.Client
	prefix string
	qos    byte
	retain bool

	mu     sync.RWMutex
	latest map[string]*InferredRecord
}

// NewPublisher creates a record publisher. A nil client disables publishing
// (used in tests).
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = "suelogrid"
	}
	return &Publisher{
		client: client,
		prefix: prefix,
		qos:    1, // saved records should survive a flaky link
		retain: true,
		latest: make(map[string]*InferredRecord),
	}
}

// PublishRecord publishes one inferred record to the events topic and
// refreshes the retained combined topic.
func (p *Publisher) PublishRecord(rec *InferredRecord) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	key := rec.ParentName
	if key == "" {
		key = rec.ID
	}
	p.mu.Lock()
	p.latest[key] = rec
	p.mu.Unlock()

	if err := p.publishEvent(rec); err != nil {
		return err
	}
	return p.publishCombined()
}

// publishEvent publishes a single record to <prefix>/analysis.
func (p *Publisher) publishEvent(rec *InferredRecord) error {
	topic := fmt.Sprintf("%s/analysis", p.prefix)

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	token := p.client.Publish(topic, p.qos, false, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// publishCombined publishes the latest record per parent to
// <prefix>/records, retained.
func (p *Publisher) publishCombined() error {
	p.mu.RLock()
	records := make([]*InferredRecord, 0, len(p.latest))
	for _, rec := range p.latest {
		records = append(records, rec)
	}
	p.mu.RUnlock()

	topic := fmt.Sprintf("%s/records", p.prefix)

	message := map[string]interface{}{
		"records":   records,
		"timestamp": time.Now().Unix(),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling combined records: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// LatestRecord returns the last published record for a parent sample name.
func (p *Publisher) LatestRecord(parentName string) (*InferredRecord, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.latest[parentName]
	return rec, ok
}

// AllRecords returns a copy of every retained record.
func (p *Publisher) AllRecords() map[string]*InferredRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	records := make(map[string]*InferredRecord, len(p.latest))
	for key, rec := range p.latest {
		recCopy := *rec
		records[key] = &recCopy
	}
	return records
}

// SetQoS sets the publish Quality of Service level (0, 1, or 2).
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}
