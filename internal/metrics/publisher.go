// Package metrics streams committed decisions to Redis for the live
// operations feed. Publishing is best effort: it runs behind a bounded
// buffer and never blocks or fails the request path.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/messaging-engine/internal/domain"
)

const (
	recentKey     = "engine:decisions:recent"
	outcomeKeyFmt = "engine:outcomes:%s:%s" // outcome, YYYY-MM-DD (UTC)

	defaultRecentLimit = 100
	bufferSize         = 256
)

// DecisionRecord is the compact feed entry pushed to Redis.
type DecisionRecord struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	EventType   string    `json:"event_type"`
	MatchedRule *string   `json:"matched_rule,omitempty"`
	Outcome     string    `json:"outcome"`
	Reason      string    `json:"reason"`
	DecidedAt   time.Time `json:"decided_at"`
}

// Publisher ships decisions to Redis from a single background goroutine.
type Publisher struct {
	client      *redis.Client
	recentLimit int64

	ch      chan domain.Decision
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewPublisher creates a publisher over an open Redis client.
func NewPublisher(client *redis.Client, recentLimit int) *Publisher {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &Publisher{
		client:      client,
		recentLimit: int64(recentLimit),
		ch:          make(chan domain.Decision, bufferSize),
	}
}

// Start launches the background publish loop.
func (p *Publisher) Start() {
	if p.running {
		return
	}
	p.running = true
	p.ctx, p.cancel = context.WithCancel(context.Background())

	log.Printf("[Metrics] Starting decision publisher (recent limit %d)", p.recentLimit)
	p.wg.Add(1)
	go p.runLoop()
}

// Stop gracefully stops the publisher. Buffered records may be dropped.
func (p *Publisher) Stop() {
	if !p.running {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.running = false
	log.Println("[Metrics] Publisher stopped")
}

// Record enqueues a committed decision. It never blocks: when the buffer
// is full the record is dropped.
func (p *Publisher) Record(d domain.Decision) {
	select {
	case p.ch <- d:
	default:
		log.Printf("[Metrics] Buffer full, dropping decision %s", d.ID)
	}
}

func (p *Publisher) runLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case d := <-p.ch:
			p.publish(d)
		}
	}
}

func (p *Publisher) publish(d domain.Decision) {
	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	defer cancel()

	rec := DecisionRecord{
		EventID:     d.EventID,
		UserID:      d.UserID,
		EventType:   d.EventType,
		MatchedRule: d.MatchedRule,
		Outcome:     string(d.Outcome),
		Reason:      d.Reason,
		DecidedAt:   d.CreatedAt,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[Metrics] Encode decision %s: %v", d.ID, err)
		return
	}

	if err := p.client.LPush(ctx, recentKey, data).Err(); err != nil {
		log.Printf("[Metrics] Push decision %s: %v", d.ID, err)
		return
	}
	if err := p.client.LTrim(ctx, recentKey, 0, p.recentLimit-1).Err(); err != nil {
		log.Printf("[Metrics] Trim decision feed: %v", err)
	}

	day := d.CreatedAt.UTC().Format("2006-01-02")
	counter := fmt.Sprintf(outcomeKeyFmt, d.Outcome, day)
	if err := p.client.Incr(ctx, counter).Err(); err != nil {
		log.Printf("[Metrics] Increment %s: %v", counter, err)
	}
}

// Recent returns the newest feed entries, most recent first.
func (p *Publisher) Recent(ctx context.Context, limit int) ([]DecisionRecord, error) {
	if limit <= 0 || int64(limit) > p.recentLimit {
		limit = int(p.recentLimit)
	}
	vals, err := p.client.LRange(ctx, recentKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent decisions: %w", err)
	}

	out := make([]DecisionRecord, 0, len(vals))
	for _, v := range vals {
		var rec DecisionRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			log.Printf("[Metrics] Skip malformed feed entry: %v", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// OutcomeCounts returns the per-outcome counters for the UTC day of t.
func (p *Publisher) OutcomeCounts(ctx context.Context, t time.Time) (map[domain.Outcome]int64, error) {
	date := t.UTC().Format("2006-01-02")
	outcomes := []domain.Outcome{
		domain.OutcomeAllow, domain.OutcomeAlert, domain.OutcomeSuppress, domain.OutcomeNone,
	}

	counts := make(map[domain.Outcome]int64, len(outcomes))
	for _, o := range outcomes {
		val, err := p.client.Get(ctx, fmt.Sprintf(outcomeKeyFmt, o, date)).Int64()
		if errors.Is(err, redis.Nil) {
			counts[o] = 0
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read outcome counter: %w", err)
		}
		counts[o] = val
	}
	return counts, nil
}
