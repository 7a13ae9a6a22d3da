package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Message is the wire envelope for every topic event
type Message struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Subscriber is one consumer of topic events. Send is a bounded mailbox:
// when it fills, events for this subscriber are dropped rather than stalling
// the hub.
type Subscriber struct {
	Topics []string
	Send   chan []byte
}

const subscriberBuffer = 256

// Hub routes published events to topic subscribers. A single run loop owns
// the subscription table, so delivery within a topic is FIFO in publish
// order and no lock is held while fanning out. Implements
// service.Broadcaster.
type Hub struct {
	// topic -> subscriber set
	topics map[string]map[*Subscriber]struct{}

	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan *Message

	stop     chan struct{}
	stopOnce sync.Once

	log zerolog.Logger
}

// NewHub creates a hub and starts its run loop
func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		topics:     make(map[string]map[*Subscriber]struct{}),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		broadcast:  make(chan *Message, 256),
		stop:       make(chan struct{}),
		log:        log.With().Str("component", "hub").Logger(),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			for _, topic := range sub.Topics {
				if h.topics[topic] == nil {
					h.topics[topic] = make(map[*Subscriber]struct{})
				}
				h.topics[topic][sub] = struct{}{}
			}

		case sub := <-h.unregister:
			registered := false
			for _, topic := range sub.Topics {
				if subs, ok := h.topics[topic]; ok {
					if _, ok := subs[sub]; ok {
						registered = true
						delete(subs, sub)
						if len(subs) == 0 {
							delete(h.topics, topic)
						}
					}
				}
			}
			if registered {
				close(sub.Send)
			}

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				h.log.Error().Err(err).Str("topic", msg.Topic).Msg("marshal event")
				continue
			}
			for sub := range h.topics[msg.Topic] {
				select {
				case sub.Send <- data:
				default:
					// Mailbox full: drop for this subscriber.
				}
			}

		case <-h.stop:
			closed := make(map[*Subscriber]struct{})
			for _, subs := range h.topics {
				for sub := range subs {
					if _, ok := closed[sub]; !ok {
						closed[sub] = struct{}{}
						close(sub.Send)
					}
				}
			}
			h.topics = make(map[string]map[*Subscriber]struct{})
			return
		}
	}
}

// Subscribe registers a consumer for the given topics. Events published
// before this call are not replayed.
func (h *Hub) Subscribe(topics ...string) *Subscriber {
	sub := &Subscriber{
		Topics: topics,
		Send:   make(chan []byte, subscriberBuffer),
	}
	select {
	case h.register <- sub:
	case <-h.stop:
		close(sub.Send)
	}
	return sub
}

// Unsubscribe removes the consumer and closes its mailbox.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.stop:
	}
}

// Close stops the run loop and closes every subscriber mailbox. Safe to call
// more than once; Subscribe and Unsubscribe become no-ops afterwards.
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Publish fans an event out to the topic's current subscribers. At-most-once
// and non-blocking: if the hub's inbox is full the event is dropped.
func (h *Hub) Publish(topic string, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Str("topic", topic).Msg("marshal payload")
		return
	}
	msg := &Message{
		Topic:   topic,
		Type:    eventType,
		Payload: data,
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Str("topic", topic).Str("type", eventType).Msg("hub inbox full, dropping event")
	}
}
