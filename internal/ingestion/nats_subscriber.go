package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSSubscriber subscribes to NATS JetStream subjects and feeds commands
// into the core via the commandChan.
// NATS JetStream is the primary high-throughput ingestion surface. Each
// subject maps to a command type.
type NATSSubscriber struct {
	js          jetstream.JetStream
	commandChan chan<- RawCommand
	consumers   []jetstream.ConsumeContext
}

// RawCommand is the parsed-but-untyped command from NATS, ready for the
// shell to validate and convert into a typed command.Command before
// sending to the core.
type RawCommand struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	AckFunc   func() // Call to ACK the NATS message after successful processing
	NakFunc   func() // Call to NAK on failure (will be redelivered)
}

// SubjectConfig maps NATS subjects to command types.
// Each command type has its own subject for independent scaling.
type SubjectConfig struct {
	Subject      string
	CommandType  string
	ConsumerName string
	StreamName   string
}

// DefaultSubjects returns the standard subject configuration.
func DefaultSubjects() []SubjectConfig {
	return []SubjectConfig{
		{Subject: "battle.rooms.create.>", CommandType: "CreateBattleRoom", ConsumerName: "ledger-room-create", StreamName: "BATTLE_ROOMS"},
		{Subject: "battle.rooms.join.>", CommandType: "JoinBattleRoom", ConsumerName: "ledger-room-join", StreamName: "BATTLE_ROOMS"},
		{Subject: "battle.rooms.start.>", CommandType: "StartBattle", ConsumerName: "ledger-room-start", StreamName: "BATTLE_ROOMS"},
		{Subject: "battle.rooms.close.>", CommandType: "CloseBattle", ConsumerName: "ledger-room-close", StreamName: "BATTLE_ROOMS"},
		{Subject: "battle.rooms.winner.>", CommandType: "SetWinner", ConsumerName: "ledger-room-winner", StreamName: "BATTLE_ROOMS"},
		{Subject: "battle.trades.>", CommandType: "RecordTrade", ConsumerName: "ledger-trades", StreamName: "BATTLE_TRADES"},
		{Subject: "battle.claims.>", CommandType: "ClaimReward", ConsumerName: "ledger-claims", StreamName: "BATTLE_CLAIMS"},
		{Subject: "battle.tokens.initialize.>", CommandType: "InitializeToken", ConsumerName: "ledger-token-init", StreamName: "BATTLE_TOKENS"},
		{Subject: "battle.tokens.fees.>", CommandType: "UpdateFees", ConsumerName: "ledger-token-fees", StreamName: "BATTLE_TOKENS"},
		{Subject: "battle.tokens.freeze.>", CommandType: "EmergencyFreeze", ConsumerName: "ledger-token-freeze", StreamName: "BATTLE_TOKENS"},
		{Subject: "battle.tokens.unfreeze.>", CommandType: "EmergencyUnfreeze", ConsumerName: "ledger-token-unfreeze", StreamName: "BATTLE_TOKENS"},
		{Subject: "battle.tokens.mint.>", CommandType: "MintTokens", ConsumerName: "ledger-token-mint", StreamName: "BATTLE_TOKENS"},
		{Subject: "battle.tokens.trade.>", CommandType: "ExecuteTrade", ConsumerName: "ledger-token-trade", StreamName: "BATTLE_TOKENS"},
		{Subject: "battle.tokens.treasury.>", CommandType: "SetTreasury", ConsumerName: "ledger-token-treasury", StreamName: "BATTLE_TOKENS"},
		{Subject: "battle.tokens.metadata.>", CommandType: "UpdateMetadata", ConsumerName: "ledger-token-metadata", StreamName: "BATTLE_TOKENS"},
		{Subject: "battle.tokens.ownership.>", CommandType: "TransferOwnership", ConsumerName: "ledger-token-ownership", StreamName: "BATTLE_TOKENS"},
	}
}

func NewNATSSubscriber(js jetstream.JetStream, commandChan chan<- RawCommand) *NATSSubscriber {
	return &NATSSubscriber{
		js:          js,
		commandChan: commandChan,
	}
}

// Subscribe creates JetStream consumers for all configured subjects.
// Consumers use explicit ACK, max_deliver=5, ack_wait=30s.
func (ns *NATSSubscriber) Subscribe(ctx context.Context, subjects []SubjectConfig) error {
	for _, cfg := range subjects {
		consumer, err := ns.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
			Durable:       cfg.ConsumerName,
			FilterSubject: cfg.Subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       30 * time.Second,
			MaxDeliver:    5,
			DeliverPolicy: jetstream.DeliverAllPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
		}

		consumerContext, err := consumer.Consume(func(msg jetstream.Msg) {
			raw := RawCommand{
				Subject:   msg.Subject(),
				Data:      msg.Data(),
				Timestamp: time.Now(),
				AckFunc:   func() { msg.Ack() },
				NakFunc:   func() { msg.Nak() },
			}

			select {
			case ns.commandChan <- raw:
				// Successfully queued for processing
			case <-ctx.Done():
				msg.Nak()
			}
		})
		if err != nil {
			return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
		}

		ns.consumers = append(ns.consumers, consumerContext)
		log.Printf("INFO: subscribed to %s (consumer=%s)", cfg.Subject, cfg.ConsumerName)
	}

	return nil
}

// EnsureStreams creates the required JetStream streams if they don't exist.
// Streams use FileStorage, retention=Limits, max_age=72h.
func EnsureStreams(ctx context.Context, js jetstream.JetStream) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      "BATTLE_ROOMS",
			Subjects:  []string{"battle.rooms.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "BATTLE_TRADES",
			Subjects:  []string{"battle.trades.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "BATTLE_CLAIMS",
			Subjects:  []string{"battle.claims.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "BATTLE_TOKENS",
			Subjects:  []string{"battle.tokens.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
	}

	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		log.Printf("INFO: ensured stream %s", cfg.Name)
	}

	return nil
}

// Stop gracefully stops all consumers.
func (ns *NATSSubscriber) Stop() {
	for _, cc := range ns.consumers {
		cc.Stop()
	}
	log.Println("INFO: NATS subscribers stopped")
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("WARN: NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("INFO: NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
