// Package runtime hosts the pairing core: presence, queue, session store and relay.
// Transports only talk to the Orchestrator.
package runtime

import (
	"context"
	"log/slog"
	"pair-chat/contract"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"pair-chat/errors"
	"pair-chat/moderation"
	"pair-chat/observability"
	"pair-chat/runtime/workers"
	"strings"
	"sync"
	"time"
)

const shutdownReason = "server shutting down"

// Options tunes the orchestrator. Zero durations disable the matching worker.
type Options struct {
	TelemetryBufferSize int
	SinkTimeout         time.Duration
	MaxContentLength    int
	QueueIdleTimeout    time.Duration
	AbandonTimeout      time.Duration
	ReaperInterval      time.Duration
	SnapshotInterval    time.Duration
	MetricInterval      time.Duration
	ModerationEnabled   bool
	CharReplacement     rune
}

type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	opts       Options
	supervisor contract.ISupervisor
	presence   *Presence
	matchmaker *Matchmaker
	// lifecycle keeps the presence change and the matchmaker hook of a
	// connect or disconnect in one step per identity.
	lifecycle  *identityLocks
	relay      *Relay
	history    contract.IHistoryRepository
	telemetry  chan event.Envelope
	sinks      []contract.EventSink
	workers    []contract.Worker
	metrics    *observability.Metrics
}

func NewOrchestrator(
	log *slog.Logger,
	supervisor contract.ISupervisor,
	history contract.IHistoryRepository,
	profiles contract.IProfileRepository,
	pairings contract.IPairingRepository,
	opts Options,
) (*Orchestrator, error) {
	telemetry := make(chan event.Envelope, max(opts.TelemetryBufferSize, 1))
	presence := NewPresence(log, telemetry)
	matchmaker := NewMatchmaker(log, presence, profiles, pairings)

	censor, err := prepareModeration(log, opts)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		log:        log,
		opts:       opts,
		supervisor: supervisor,
		presence:   presence,
		matchmaker: matchmaker,
		lifecycle:  newIdentityLocks(),
		relay:      NewRelay(log, presence, matchmaker, history, censor, opts.MaxContentLength),
		history:    history,
		telemetry:  telemetry,
	}, nil
}

// prepareModeration loads the embedded dictionaries and builds the automaton.
func prepareModeration(log *slog.Logger, opts Options) (Censor, error) {
	if !opts.ModerationEnabled {
		return nil, nil
	}
	list, err := LoadEmbeddedWordList()
	if err != nil {
		return nil, err
	}
	log.Info("Censored dictionaries loaded",
		"languages", strings.Join(list.Languages, ","),
		"words", len(list.Words))

	moderator, err := moderation.NewModerator(list.Words, opts.CharReplacement, log)
	if err != nil {
		return nil, err
	}
	return moderator, nil
}

// AddSinks registers telemetry sinks. Call before Start.
func (o *Orchestrator) AddSinks(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sinks...)
}

// AddWorkers registers extra supervised workers. Call before Start.
func (o *Orchestrator) AddWorkers(w ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, w...)
}

// WithMetrics enables relay outcome counters.
func (o *Orchestrator) WithMetrics(metrics *observability.Metrics) *Orchestrator {
	o.metrics = metrics
	return o
}

// Start restores the last pairing snapshot and launches the supervised
// workers in the background.
func (o *Orchestrator) Start(ctx context.Context) error {
	restored, err := o.matchmaker.Restore()
	if err != nil {
		return err
	}
	if restored > 0 {
		o.log.Info("Pairings restored", "count", restored)
	}

	o.mu.Lock()
	o.supervisor.Add(workers.NewEventFanout(o.log, o.telemetry, o.opts.SinkTimeout, o.sinks...))
	if o.opts.ReaperInterval > 0 {
		o.supervisor.Add(workers.NewReaperWorker(o.log, o.matchmaker,
			o.opts.ReaperInterval, o.opts.QueueIdleTimeout, o.opts.AbandonTimeout))
	}
	if o.opts.SnapshotInterval > 0 {
		o.supervisor.Add(workers.NewSnapshotWorker(o.log, o.matchmaker, o.opts.SnapshotInterval))
	}
	if o.metrics != nil && o.opts.MetricInterval > 0 {
		o.supervisor.Add(workers.NewChannelCapacityWorker(o.log,
			[]workers.NamedChannel{{Name: "telemetry", Channel: o.telemetry}},
			o.metrics, o.opts.MetricInterval))
	}
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the workers, snapshots the pairings and closes every handle.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	if err := o.matchmaker.Snapshot(); err != nil {
		o.log.Error("Final pairing snapshot failed", "error", err)
	}
	o.presence.CloseAll(shutdownReason)
}

// Connect binds conn to userID, replacing any previous handle.
func (o *Orchestrator) Connect(userID domain.UserID, conn contract.Connection) (*Handle, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	o.lifecycle.Lock(userID)
	defer o.lifecycle.Unlock(userID)

	h, replaced := o.presence.Connect(userID, conn)
	o.log.Info("Participant connected", "user_id", userID, "replaced", replaced)
	o.matchmaker.OnConnect(userID, replaced)
	return h, nil
}

// Disconnect drops the handle of userID. A second call is a no-op.
func (o *Orchestrator) Disconnect(userID domain.UserID) {
	o.lifecycle.Lock(userID)
	defer o.lifecycle.Unlock(userID)

	if _, ok := o.presence.Disconnect(userID); !ok {
		return
	}
	o.log.Info("Participant disconnected", "user_id", userID)
	o.matchmaker.OnDisconnect(userID)
}

// Release is called by a transport whose connection ended. It only acts if h
// is still the live handle of its identity.
func (o *Orchestrator) Release(h *Handle) {
	if h == nil {
		return
	}
	o.lifecycle.Lock(h.UserID)
	defer o.lifecycle.Unlock(h.UserID)

	if !o.presence.Release(h) {
		return
	}
	o.log.Info("Participant disconnected", "user_id", h.UserID)
	o.matchmaker.OnDisconnect(h.UserID)
}

func (o *Orchestrator) Find(userID domain.UserID) error {
	if err := o.requireOnline(userID); err != nil {
		return err
	}
	return o.matchmaker.Find(userID)
}

func (o *Orchestrator) Cancel(userID domain.UserID) error {
	if err := o.requireOnline(userID); err != nil {
		return err
	}
	o.matchmaker.Cancel(userID)
	return nil
}

func (o *Orchestrator) Skip(userID domain.UserID) error {
	if err := o.requireOnline(userID); err != nil {
		return err
	}
	return o.matchmaker.Skip(userID)
}

func (o *Orchestrator) End(userID domain.UserID) error {
	if err := o.requireOnline(userID); err != nil {
		return err
	}
	return o.matchmaker.End(userID)
}

// Send relays content to the partner of userID.
func (o *Orchestrator) Send(ctx context.Context, userID domain.UserID, content string) (domain.Receipt, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return domain.Receipt{}, err
	}
	receipt, err := o.relay.RelayMessage(ctx, userID, content)
	if o.metrics != nil && (err == nil || errors.KindOf(err) == errors.KindPersistence) {
		o.metrics.RelayOutcome(receipt.Delivered, err)
	}
	return receipt, err
}

// History pages through the conversation of the current pairing of userID.
func (o *Orchestrator) History(ctx context.Context, userID domain.UserID, cursor string) (domain.HistoryPage, error) {
	if err := o.requireOnline(userID); err != nil {
		return domain.HistoryPage{}, err
	}
	session, err := o.matchmaker.Conversation(userID)
	if err != nil {
		return domain.HistoryPage{}, err
	}
	messages, next, err := o.history.ListSince(ctx, session.ConversationID, cursor)
	if err != nil {
		return domain.HistoryPage{}, err
	}
	return domain.HistoryPage{ConversationID: session.ConversationID, Messages: messages, Cursor: next}, nil
}

// State returns the runtime state of userID. Unknown identities are IDLE.
func (o *Orchestrator) State(userID domain.UserID) domain.UserState {
	return o.matchmaker.State(userID)
}

func (o *Orchestrator) Online(userID domain.UserID) bool {
	return o.presence.Online(userID)
}

// Counts reports the current occupancy, used by monitoring.
func (o *Orchestrator) Counts() observability.Counts {
	return observability.Counts{
		OnlineUsers:    o.presence.Count(),
		QueueLength:    len(o.matchmaker.Waiting()),
		ActivePairings: len(o.matchmaker.Sessions()),
	}
}

func (o *Orchestrator) requireOnline(userID domain.UserID) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	if !o.presence.Online(userID) {
		return errors.ErrUnknownIdentity
	}
	return nil
}
