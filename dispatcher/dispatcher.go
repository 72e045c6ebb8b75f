package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/logging"
	"github.com/hupe1980/chatrouter/model"
	"github.com/hupe1980/chatrouter/router"
	"github.com/hupe1980/chatrouter/session"
	"github.com/hupe1980/chatrouter/specialist"
)

// User-visible messages. Error events never carry provider payloads.
const (
	StatusClassifying      = "classifying intent"
	StatusDegradedRouting  = "intent classification unavailable, using the general assistant"
	MessageGenerationError = "Sorry, I couldn't generate a response right now. Please try again."
	MessageTimeout         = "The response took too long. Please try again."
	MessageCommitError     = "Sorry, the conversation could not be saved. Please try again."
)

// Router classifies a message; *router.Router implements it.
type Router interface {
	Route(ctx context.Context, message string, history []core.Exchange) (core.RoutingDecision, error)
}

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// TurnTimeout bounds routing plus generation of one turn.
	TurnTimeout time.Duration
	// MaxConcurrentTurns limits in-flight turns; Dispatch fails fast with
	// core.ErrTooManyTurns when reached. Zero disables the limit.
	MaxConcurrentTurns int
	// EventBufferSize sets channel buffering for events. Events still
	// buffered when a turn is cancelled are discarded by Next and stream.Pump.
	EventBufferSize int
	// HistoryWindow bounds the exchanges read from the session store.
	HistoryWindow int
	// AllowConcurrentSessionTurns disables the busy-session rejection.
	AllowConcurrentSessionTurns bool
	// Streaming toggles token streaming; specialists may opt out individually.
	Streaming bool

	Router       Router
	SessionStore core.SessionStore
	Profile      *specialist.Profile
	Logger       logging.Logger
	Now          func() time.Time
}

// TurnRequest is the inbound request of one turn.
type TurnRequest struct {
	SessionID string
	Message   string
	// Timeout overrides Options.TurnTimeout when > 0.
	Timeout time.Duration
}

// TurnHandle identifies an accepted turn. Events is closed after the
// terminal event (or promptly after cancellation).
type TurnHandle struct {
	TurnID    string
	SessionID string
	Events    <-chan core.Event
	// Done is closed when the turn is cancelled. It stays open for turns
	// that end with done or error.
	Done <-chan struct{}
}

// Next returns the next event of the turn. It reports false when the stream
// ended, the turn was cancelled or ctx is done. Once Done is closed no
// further event is returned, even if some are still buffered.
func (h *TurnHandle) Next(ctx context.Context) (core.Event, bool) {
	select {
	case <-h.Done:
		return core.Event{}, false
	case <-ctx.Done():
		return core.Event{}, false
	case ev, ok := <-h.Events:
		if !ok {
			return core.Event{}, false
		}
		select {
		case <-h.Done:
			return core.Event{}, false
		default:
			return ev, true
		}
	}
}

// Dispatcher orchestrates turns: route, select specialist, generate,
// translate provider output into the ordered event stream and commit.
// Public methods are safe for concurrent use.
type Dispatcher struct {
	registry *specialist.Registry
	provider model.Provider
	router   Router
	store    core.SessionStore
	opts     Options
	logger   logging.Logger

	sem chan struct{}
	wg  sync.WaitGroup

	mu       sync.Mutex
	active   map[string]context.CancelFunc
	sessions map[string]string
}

// New constructs a Dispatcher with optional overrides.
func New(registry *specialist.Registry, provider model.Provider, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		TurnTimeout:        60 * time.Second,
		MaxConcurrentTurns: 64,
		EventBufferSize:    1,
		HistoryWindow:      router.DefaultHistoryWindow,
		Streaming:          true,
		Now:                time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.Profile == nil {
		opts.Profile = specialist.DefaultProfile()
	}
	if opts.Router == nil {
		opts.Router = router.New(registry, provider, func(o *router.Options) {
			o.HistoryWindow = opts.HistoryWindow
			o.Logger = opts.Logger
		})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = 60 * time.Second
	}
	if opts.EventBufferSize < 0 {
		opts.EventBufferSize = 0
	}

	d := &Dispatcher{
		registry: registry,
		provider: provider,
		router:   opts.Router,
		store:    opts.SessionStore,
		opts:     opts,
		logger:   logging.OrNoOp(opts.Logger),
		active:   make(map[string]context.CancelFunc),
		sessions: make(map[string]string),
	}
	if opts.MaxConcurrentTurns > 0 {
		d.sem = make(chan struct{}, opts.MaxConcurrentTurns)
	}
	return d
}

// Dispatch validates the request and starts the turn asynchronously.
// Validation errors and admission rejections are returned before any event
// stream exists. Cancelling ctx cancels the turn.
func (d *Dispatcher) Dispatch(ctx context.Context, req TurnRequest) (*TurnHandle, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, core.NewValidationError("message", core.ErrEmptyMessage)
	}
	sessionID := core.ResolveSessionID(req.SessionID)

	if d.sem != nil {
		select {
		case d.sem <- struct{}{}:
		default:
			return nil, core.ErrTooManyTurns
		}
	}

	turn := core.NewTurn(sessionID, message)
	turnCtx, cancel := context.WithCancel(ctx)

	// stop marks the turn cancelled before its context is cancelled, so any
	// read racing with Cancel already observes Done.
	stopped := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(stopped) })
		cancel()
	}

	d.mu.Lock()
	if _, busy := d.sessions[sessionID]; busy && !d.opts.AllowConcurrentSessionTurns {
		d.mu.Unlock()
		cancel()
		d.release()
		return nil, fmt.Errorf("%w: %s", core.ErrSessionBusy, sessionID)
	}
	d.active[turn.ID] = stop
	d.sessions[sessionID] = turn.ID
	d.wg.Add(1)
	d.mu.Unlock()
	unhook := context.AfterFunc(ctx, stop)

	timeout := d.opts.TurnTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	events := make(chan core.Event, d.opts.EventBufferSize)
	go func() {
		defer func() {
			// Free the session before closing so a follow-up turn is admitted
			// as soon as the consumer observes the end of the stream.
			d.mu.Lock()
			delete(d.active, turn.ID)
			if d.sessions[sessionID] == turn.ID {
				delete(d.sessions, sessionID)
			}
			d.mu.Unlock()
			d.release()
			unhook()
			cancel()
			close(events)
			d.wg.Done()
		}()
		d.run(turnCtx, turn, timeout, events)
	}()

	return &TurnHandle{TurnID: turn.ID, SessionID: sessionID, Events: events, Done: stopped}, nil
}

func (d *Dispatcher) release() {
	if d.sem != nil {
		<-d.sem
	}
}

// Cancel cancels an in-flight turn by ID. No further events are delivered
// and the session store is not updated, unless the turn already committed.
func (d *Dispatcher) Cancel(turnID string) error {
	d.mu.Lock()
	cancel, exists := d.active[turnID]
	d.mu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrTurnNotFound, turnID)
	}
	cancel()
	return nil
}

// Active returns the number of in-flight turns.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.active)
}

// Registry returns the specialist registry.
func (d *Dispatcher) Registry() *specialist.Registry { return d.registry }

// SessionStore returns the session store turns are committed to.
func (d *Dispatcher) SessionStore() core.SessionStore { return d.store }

// Shutdown cancels every in-flight turn and waits for them to stop.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	for _, cancel := range d.active {
		cancel()
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// emitter stamps and delivers the events of one turn. Nothing is delivered
// once ctx is done or a terminal event was sent.
type emitter struct {
	ctx      context.Context
	out      chan<- core.Event
	turn     *core.Turn
	seq      int
	finished bool
}

func (e *emitter) emit(ev core.Event) bool {
	if e.finished || e.ctx.Err() != nil {
		return false
	}
	e.seq++
	ev.Seq = e.seq
	ev.TurnID = e.turn.ID
	ev.SessionID = e.turn.SessionID
	select {
	case <-e.ctx.Done():
		return false
	case e.out <- ev:
		e.finished = ev.IsTerminal()
		return true
	}
}

func (d *Dispatcher) turnLogger(t *core.Turn) logging.Logger {
	if rl, ok := d.logger.(*logging.RouterLogger); ok {
		return rl.WithComponent("dispatcher").WithSession(t.SessionID, t.ID)
	}
	return d.logger
}

func (d *Dispatcher) run(ctx context.Context, turn *core.Turn, timeout time.Duration, out chan<- core.Event) {
	start := time.Now()
	log := d.turnLogger(turn)
	em := &emitter{ctx: ctx, out: out, turn: turn}

	genCtx, genCancel := context.WithTimeout(ctx, timeout)
	defer genCancel()

	cancelled := func(stage string) {
		_ = turn.Transition(core.TurnCancelled)
		log.Info("Turn cancelled", "stage", stage, "session_id", turn.SessionID, "turn_id", turn.ID)
		d.logTurn(log, turn, start)
	}

	// Pending -> Routing
	if err := turn.Transition(core.TurnRouting); err != nil {
		log.Error("Turn state", "error", err)
		return
	}
	if !em.emit(core.NewStatusEvent(StatusClassifying)) {
		cancelled("pending")
		return
	}

	history, err := d.store.History(genCtx, turn.SessionID, d.opts.HistoryWindow)
	if err != nil {
		log.Warn("Loading history failed, continuing without context", "error", err)
		history = nil
	}

	decision := d.route(genCtx, turn.Message, history, log)
	if ctx.Err() != nil {
		cancelled("routing")
		return
	}
	if decision.Degraded != nil {
		if !em.emit(core.NewStatusEvent(StatusDegradedRouting)) {
			cancelled("routing")
			return
		}
	}

	// Routing -> Generating
	if err := turn.SetDecision(decision); err != nil {
		log.Error("Turn state", "error", err)
		return
	}
	if err := turn.Transition(core.TurnGenerating); err != nil {
		log.Error("Turn state", "error", err)
		return
	}
	if !em.emit(core.NewDomainChangeEvent(decision)) {
		cancelled("routing")
		return
	}

	genErr := d.generate(genCtx, turn, decision, history, em, log)
	if ctx.Err() != nil {
		cancelled("generating")
		return
	}
	if genErr != nil {
		d.fail(turn, em, log, genErr, start)
		return
	}

	// Commit before done so a completed stream always has a stored exchange.
	if err := d.store.Append(ctx, turn.SessionID, turn.Exchange()); err != nil {
		if ctx.Err() != nil {
			cancelled("commit")
			return
		}
		log.Error("Committing turn failed", "error", err)
		_ = turn.Transition(core.TurnFailed)
		em.emit(core.NewErrorEvent(MessageCommitError))
		d.logTurn(log, turn, start)
		return
	}
	// A cancel after the commit keeps the stored exchange but suppresses done.
	if ctx.Err() != nil {
		cancelled("committed")
		return
	}
	_ = turn.Transition(core.TurnCompleted)
	if !em.emit(core.NewDoneEvent(turn.SessionID, decision.Tag, decision.Confidence, turn.Output())) {
		log.Info("Turn cancelled after commit", "session_id", turn.SessionID, "turn_id", turn.ID)
	}
	d.logTurn(log, turn, start)
}

// route never fails: any classifier error or unknown tag becomes the
// fallback decision.
func (d *Dispatcher) route(ctx context.Context, message string, history []core.Exchange, log logging.Logger) core.RoutingDecision {
	if rl, ok := log.(*logging.RouterLogger); ok {
		defer rl.StartTimer("route")()
	}
	decision, err := d.router.Route(ctx, message, history)
	if err != nil {
		return core.FallbackDecision("routing error", err)
	}
	if !d.registry.Has(decision.Tag) {
		log.Warn("Router returned unregistered tag, using fallback", "agent", decision.Tag)
		return core.FallbackDecision(fmt.Sprintf("unregistered tag %q", decision.Tag), nil)
	}
	decision.Tag = specialist.NormalizeTag(decision.Tag)
	decision.Confidence = min(max(decision.Confidence, 0), 1)
	return decision
}

func (d *Dispatcher) generate(
	ctx context.Context,
	turn *core.Turn,
	decision core.RoutingDecision,
	history []core.Exchange,
	em *emitter,
	log logging.Logger,
) error {
	desc, err := d.registry.Resolve(decision.Tag)
	if err != nil {
		desc = d.registry.Fallback()
	}
	prompt, err := specialist.BuildPrompt(desc, specialist.Input{
		Message: turn.Message,
		History: history,
		Profile: d.opts.Profile,
		Now:     d.opts.Now(),
	})
	if err != nil {
		return model.NewProviderError("prompt", model.Fatal, err)
	}

	stream := d.opts.Streaming && desc.StreamingEnabled()
	req := model.Request{
		Name:         desc.Tag,
		Instructions: prompt.System,
		Messages:     []model.Message{{Role: model.RoleUser, Text: prompt.User}},
		Stream:       stream,
		Temperature:  desc.Temperature,
	}

	start := time.Now()
	fragments := 0
	var final string
	gotFinal := false

	out, errCh := d.provider.Generate(ctx, req)
	for r := range out {
		if r.Partial {
			if r.Text == "" {
				continue
			}
			fragments++
			turn.AppendOutput(r.Text)
			if !em.emit(core.NewTokenEvent(r.Text)) {
				break
			}
			continue
		}
		final, gotFinal = r.Text, true
	}
	var genErr error
	if em.ctx.Err() == nil {
		genErr = <-errCh
	}
	if genErr == nil && ctx.Err() != nil && em.ctx.Err() == nil {
		genErr = ctx.Err()
	}
	if genErr == nil && fragments == 0 && strings.TrimSpace(final) == "" {
		genErr = model.NewProviderError(d.provider.Info().Provider, model.Fatal, model.ErrEmptyResponse)
	}
	d.logCall(log, stream, fragments, time.Since(start), genErr)

	if genErr != nil || em.ctx.Err() != nil {
		return genErr
	}
	if fragments == 0 && gotFinal {
		// Non-streaming specialist or provider.
		turn.AppendOutput(final)
		em.emit(core.NewResponseEvent(decision.Tag, final))
	}
	return nil
}

func (d *Dispatcher) fail(turn *core.Turn, em *emitter, log logging.Logger, err error, start time.Time) {
	msg := MessageGenerationError
	if errors.Is(err, context.DeadlineExceeded) {
		msg = MessageTimeout
		err = model.NewProviderError(d.provider.Info().Provider, model.Transient, err)
	}
	kind := model.Fatal
	if model.IsTransient(err) {
		kind = model.Transient
	}
	log.Error("Generation failed", "kind", kind, "error", err, "session_id", turn.SessionID, "turn_id", turn.ID)
	_ = turn.Transition(core.TurnFailed)
	em.emit(core.NewErrorEvent(msg))
	d.logTurn(log, turn, start)
}

func (d *Dispatcher) logCall(log logging.Logger, stream bool, fragments int, dur time.Duration, err error) {
	name := d.provider.Info().Name
	if rl, ok := log.(*logging.RouterLogger); ok {
		rl.LogLLMCall(name, stream, fragments, dur, err)
		return
	}
	log.Debug("LLM call finished", "model", name, "stream", stream, "fragments", fragments, "duration", dur, "error", err)
}

func (d *Dispatcher) logTurn(log logging.Logger, turn *core.Turn, start time.Time) {
	decision, _ := turn.Decision()
	if rl, ok := log.(*logging.RouterLogger); ok {
		rl.LogTurn(decision.Tag, decision.Confidence, string(turn.Status()), time.Since(start))
		return
	}
	log.Info("Turn finished", "agent", decision.Tag, "status", turn.Status(), "duration", time.Since(start))
}
