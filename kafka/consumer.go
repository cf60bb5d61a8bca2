// Package kafka consumes analysis requests from a Kafka topic, so other
// services can queue products for analysis without going through the HTTP
// API.
package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"

	"reviewlens/types"
)

// AnalysisRequest is the message body on the analysis-requests topic.
type AnalysisRequest struct {
	ProductID string `json:"product_id"`
}

// Pipeline is the part of the orchestrator the consumer needs.
type Pipeline interface {
	StartAnalysis(ctx context.Context, productID string) error
}

// Consumer reads analysis requests off a consumer group and feeds them to the
// pipeline.
type Consumer struct {
	group    sarama.ConsumerGroup
	pipeline Pipeline
	topic    string
	groupID  string
	ready    chan struct{}
}

// Config holds consumer wiring.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewConsumer builds a consumer group member.
func NewConsumer(cfg Config, pipeline Pipeline) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_6_0_0
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "creating kafka consumer group")
	}
	return &Consumer{
		group:    group,
		pipeline: pipeline,
		topic:    cfg.Topic,
		groupID:  cfg.GroupID,
		ready:    make(chan struct{}),
	}, nil
}

// Start begins consuming in the background and returns once the group has
// joined. Consumption stops when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &groupHandler{pipeline: c.pipeline, ready: c.ready}

	go func() {
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
				if err == context.Canceled {
					return
				}
				log.Printf("[kafka] consume error: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan struct{})
		}
	}()

	<-c.ready
	log.Printf("[kafka] consumer started (group %s, topic %s)", c.groupID, c.topic)

	go func() {
		for err := range c.group.Errors() {
			log.Printf("[kafka] consumer error: %v", err)
		}
	}()
	return nil
}

// Close leaves the group.
func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	pipeline Pipeline
	ready    chan struct{}
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg := <-claim.Messages():
			if msg == nil {
				return nil
			}
			if h.handle(session.Context(), msg.Value) {
				session.MarkMessage(msg, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// handle processes one request and reports whether the offset should be
// marked. Requests that can never succeed (bad JSON, unknown product) are
// marked so they are not redelivered; transient failures are left unmarked
// for retry.
func (h *groupHandler) handle(ctx context.Context, value []byte) bool {
	var req AnalysisRequest
	if err := json.Unmarshal(value, &req); err != nil {
		log.Printf("[kafka] dropping malformed request: %v", err)
		return true
	}
	if req.ProductID == "" {
		log.Printf("[kafka] dropping request with empty product_id")
		return true
	}

	err := h.pipeline.StartAnalysis(ctx, req.ProductID)
	switch {
	case err == nil:
		log.Printf("[kafka] queued analysis for %s", req.ProductID)
		return true
	case types.IsKind(err, types.KindNotFound), types.IsKind(err, types.KindValidation):
		log.Printf("[kafka] dropping request for %s: %v", req.ProductID, err)
		return true
	case types.IsKind(err, types.KindConflict):
		// Already running; the request is satisfied.
		return true
	default:
		log.Printf("[kafka] start failed for %s, will retry: %v", req.ProductID, err)
		return false
	}
}
