// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/deedbridge/bridge"
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/event"
	"github.com/prometheus/client_golang/prometheus"
)

// MessageProcessor accepts inbound messages on the primary ledger
type MessageProcessor interface {
	ProcessMessage(
		ctx context.Context,
		caller common.Address,
		msg *bridge.Message,
	) (*bridge.MessageResult, error)
}

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	EventBus     *event.EventBus
	// Identity is the relayer address submitted messages are signed as
	Identity common.Address
	// Manual holds acknowledgments until Flush is called
	Manual      bool
	Buffer      int
	KeyCapacity int
}

// Relayer applies bridge stage notifications to the remote ledger and
// returns acknowledgments to the bridge. It also carries remote deposits
// to the bridge.
type Relayer struct {
	config    Config
	processor MessageProcessor
	ledger    *RemoteLedger
	outbound  *Channel[*bridge.Message]
	subId     event.EventSubscriberId
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
}

func New(
	cfg Config,
	processor MessageProcessor,
	ledger *RemoteLedger,
) (*Relayer, error) {
	if cfg.EventBus == nil {
		return nil, errors.New("relay: event bus is required")
	}
	if processor == nil {
		return nil, errors.New("relay: message processor is required")
	}
	if ledger == nil {
		return nil, errors.New("relay: remote ledger is required")
	}
	if cfg.Identity.IsZero() {
		return nil, errors.New("relay: relayer identity is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	outbound, err := NewChannel[*bridge.Message](cfg.Buffer, cfg.KeyCapacity)
	if err != nil {
		return nil, err
	}
	r := &Relayer{
		config:    cfg,
		processor: processor,
		ledger:    ledger,
		outbound:  outbound,
	}
	if cfg.PromRegistry != nil {
		registerMetrics(cfg.PromRegistry, outbound)
	}
	return r, nil
}

// Ledger returns the remote ledger the relayer mirrors stages onto
func (r *Relayer) Ledger() *RemoteLedger {
	return r.ledger
}

// Start subscribes to stage notifications and, unless in manual mode,
// starts delivering acknowledgments
func (r *Relayer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("relayer already started")
	}
	select {
	case <-r.outbound.Done():
		return errors.New("relayer stopped")
	default:
	}
	r.started = true
	r.subId = r.config.EventBus.RegisterSubscriber(
		bridge.StageChangeNotificationEventType,
		&notificationSubscriber{relayer: r},
	)
	if !r.config.Manual {
		r.wg.Add(1)
		go r.deliverLoop()
	}
	r.config.Logger.Info(
		"relayer started",
		"component", "relay",
		"identity", r.config.Identity.String(),
		"manual", r.config.Manual,
	)
	return nil
}

// Stop unsubscribes and waits for the delivery loop to exit. Undelivered
// acknowledgments are dropped; the bridge retry path re-announces them.
func (r *Relayer) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()
	r.config.EventBus.Unsubscribe(
		bridge.StageChangeNotificationEventType,
		r.subId,
	)
	r.outbound.Close()
	r.wg.Wait()
}

func (r *Relayer) deliverLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.outbound.Done():
			return
		case msg := <-r.outbound.Receive():
			if err := r.submit(context.Background(), msg); err != nil {
				r.config.Logger.Error(
					"failed to deliver acknowledgment",
					"component", "relay",
					"message_id", msg.ID,
					"error", err,
				)
			}
		}
	}
}

// Flush delivers every held acknowledgment and returns the first error
func (r *Relayer) Flush(ctx context.Context) error {
	var errs []error
	for {
		select {
		case msg := <-r.outbound.Receive():
			if err := r.submit(ctx, msg); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}

// Held returns the number of acknowledgments waiting for delivery
func (r *Relayer) Held() int {
	return r.outbound.Len()
}

// RelayDeposit records a custodial deposit on the remote ledger and submits
// it to the bridge
func (r *Relayer) RelayDeposit(
	ctx context.Context,
	propertyID string,
	foreignAddress string,
	amount uint64,
) (*bridge.MessageResult, error) {
	deposit := r.ledger.Deposit(propertyID, foreignAddress, amount)
	msg := &bridge.Message{
		ID:             bridge.DeriveMessageID(deposit.TxHash, common.MessageTypeDeposit),
		PropertyID:     propertyID,
		Type:           common.MessageTypeDeposit,
		ForeignAddress: foreignAddress,
		Amount:         amount,
		ForeignTxHash:  deposit.TxHash,
	}
	return r.processor.ProcessMessage(ctx, r.config.Identity, msg)
}

// submit hands a message to the bridge. Replays and acknowledgments for a
// transition that was already superseded are not failures.
func (r *Relayer) submit(ctx context.Context, msg *bridge.Message) error {
	_, err := r.processor.ProcessMessage(ctx, r.config.Identity, msg)
	switch {
	case err == nil:
		r.config.Logger.Debug(
			"acknowledgment delivered",
			"component", "relay",
			"message_id", msg.ID,
			"property_id", msg.PropertyID,
			"stage", msg.AcknowledgedStage.String(),
		)
		return nil
	case errors.Is(err, common.ErrAlreadyProcessed):
		return nil
	case errors.Is(err, common.ErrNoPendingChange),
		errors.Is(err, common.ErrStageMismatch):
		r.config.Logger.Info(
			"stale acknowledgment dropped",
			"component", "relay",
			"message_id", msg.ID,
			"property_id", msg.PropertyID,
			"reason", common.ErrorKind(err),
		)
		return nil
	default:
		return fmt.Errorf("failed to submit message %s: %w", msg.ID, err)
	}
}

func (r *Relayer) handleNotification(evt bridge.StageChangeNotificationEvent) error {
	r.ledger.ApplyStage(evt.PropertyID, evt.TargetStage)
	msg := &bridge.Message{
		ID: bridge.DeriveMessageID(
			fmt.Sprintf(
				"%s:%s:%d",
				evt.PropertyID,
				evt.TargetStage,
				evt.InitiatedAt.UnixNano(),
			),
			common.MessageTypeStageAcknowledgment,
		),
		PropertyID:        evt.PropertyID,
		Type:              common.MessageTypeStageAcknowledgment,
		AcknowledgedStage: evt.TargetStage,
	}
	// Each announcement is its own envelope while the message ID stays
	// stable, so a retry resends an acknowledgment the bridge may already
	// hold
	key := fmt.Sprintf("%s#%d", msg.ID, evt.RetryCount)
	sent, err := r.outbound.Send(key, msg)
	if err != nil {
		if errors.Is(err, ErrChannelClosed) {
			return nil
		}
		r.config.Logger.Warn(
			"acknowledgment dropped",
			"component", "relay",
			"property_id", evt.PropertyID,
			"stage", evt.TargetStage.String(),
			"error", err,
		)
		return nil
	}
	if !sent {
		r.config.Logger.Debug(
			"duplicate notification ignored",
			"component", "relay",
			"property_id", evt.PropertyID,
			"key", key,
		)
	}
	return nil
}

// notificationSubscriber handles stage notifications on the publishing
// goroutine, after the bridge transaction has committed
type notificationSubscriber struct {
	relayer *Relayer
}

func (s *notificationSubscriber) Deliver(evt event.Event) error {
	data, ok := evt.Data.(bridge.StageChangeNotificationEvent)
	if !ok {
		return fmt.Errorf("unexpected event data %T", evt.Data)
	}
	return s.relayer.handleNotification(data)
}

func (s *notificationSubscriber) Close() {}
