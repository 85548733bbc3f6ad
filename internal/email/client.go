package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/frahmantamala/calendar-sharing/internal"
)

// Client posts mail to an HTTP mail provider through a worker pool.
// Enqueue is fire-and-forget: a full queue or a failed delivery is
// logged and dropped, never surfaced to the caller.
type Client struct {
	enabled     bool
	providerURL string
	apiKey      string
	fromAddress string
	fromName    string
	sendTimeout time.Duration
	logger      *slog.Logger

	jobQueue   chan Message
	workerPool chan chan Message
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewClient(cfg internal.EmailConfig, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := cfg.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	client := &Client{
		enabled:     cfg.Enabled,
		providerURL: cfg.ProviderURL,
		apiKey:      cfg.APIKey,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		sendTimeout: sendTimeout,
		logger:      logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Message, jobQueueSize),
		workerPool: make(chan chan Message, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {

		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.processMessage)
		}

		go c.dispatch()

		c.logger.Info("mail worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue),
			"enabled", c.enabled)
	})
}

func (c *Client) dispatch() {
	defer c.wg.Done()
	c.wg.Add(1)

	for {
		select {
		case job := <-c.jobQueue:

			select {
			case jobChannel := <-c.workerPool:

				select {
				case jobChannel <- job:

				case <-c.ctx.Done():
					c.logger.Info("mail dispatcher shutting down")
					return
				}
			case <-c.ctx.Done():
				c.logger.Info("mail dispatcher shutting down")
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("mail dispatcher shutting down")
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down mail client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("mail client shutdown complete")
}

// Send queues the message for asynchronous delivery. It only returns an
// error when the queue is saturated.
func (c *Client) Send(ctx context.Context, msg Message) error {
	select {
	case c.jobQueue <- msg:
		c.logger.Debug("mail queued",
			"to", msg.To,
			"subject", msg.Subject,
			"queue_length", len(c.jobQueue))
		return nil
	default:
		c.logger.Warn("mail queue full, dropping message",
			"to", msg.To,
			"subject", msg.Subject,
			"queue_capacity", cap(c.jobQueue))
		return fmt.Errorf("mail queue full")
	}
}

func (c *Client) processMessage(msg Message) {
	if !c.enabled {
		c.logger.Info("mail delivery disabled, skipping",
			"to", msg.To,
			"subject", msg.Subject)
		return
	}

	if err := c.deliver(msg); err != nil {
		c.logger.Error("mail delivery failed",
			"to", msg.To,
			"subject", msg.Subject,
			"error", err)
		return
	}

	c.logger.Info("mail delivered", "to", msg.To, "subject", msg.Subject)
}

func (c *Client) deliver(msg Message) error {
	payload := map[string]interface{}{
		"from": map[string]string{
			"email": c.fromAddress,
			"name":  c.fromName,
		},
		"to": []map[string]string{
			{"email": msg.To, "name": msg.ToName},
		},
		"subject": msg.Subject,
		"html":    msg.HTML,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.providerURL+"/send", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpClient := &http.Client{Timeout: c.sendTimeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}

	return nil
}
