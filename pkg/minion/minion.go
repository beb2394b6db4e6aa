// Package minion owns one relay connection: it dials, authenticates,
// tracks the named subscriptions described by pkg/minion's FilterSet
// catalogue, and hands decoded EVENT/OK/NOTICE/CLOSED frames to whatever
// the Overlord wired in as a Processor (spec.md §4.5).
package minion

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes/authenvelope"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes/closeenvelope"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes/closedenvelope"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes/eoseenvelope"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes/eventenvelope"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes/noticeenvelope"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes/okenvelope"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes/reqenvelope"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/tag"
)

// kindClientAuth is NIP-42's ClientAuthentication kind (22242).
const kindClientAuth = 22242

// Processor is the slice of pkg/processor the minion needs: accept
// interfaces so this package never imports pkg/store directly.
type Processor interface {
	Ingest(ev *event.E) (wrote bool, err error)
}

// Picker is the slice of pkg/relaypicker the minion reports disconnects to.
type Picker interface {
	RelayDisconnected(url string, penaltySeconds int64)
}

// Signer is the slice of pkg/identity the minion needs to answer an AUTH
// challenge (spec.md §4.5).
type Signer interface {
	SignEvent(ev *event.E) error
}

// AuthApproval mirrors store.Approval's tri-state values without importing
// pkg/store (spec.md §3 allow_auth).
type AuthApproval uint8

const (
	AuthAsk AuthApproval = iota
	AuthAlways
	AuthNever
)

// AuthPolicy is the slice of pkg/store the minion consults to decide how to
// answer an AUTH challenge for its own relay (spec.md §4.5).
type AuthPolicy interface {
	ApprovalForAuth(url string) AuthApproval
}

// Subscription is one entry of the Subscribing state's handle map
// (spec.md §4.5).
type Subscription struct {
	ID        []byte
	Temporary bool
	Filters   Request
}

// PublishWaiter is signaled when an OK envelope arrives for a submitted
// event id (spec.md §4.5 Incoming OK).
type PublishWaiter chan okResult

type okResult struct {
	OK      bool
	Message string
}

const (
	futureAllowanceSec = 15 * 60
	outboundQueueSize  = 256
)

// M is one relay's connection actor (spec.md §4.5).
type M struct {
	URL        string
	proc       Processor
	picker     Picker
	signer     Signer
	authPolicy AuthPolicy
	connectTO  time.Duration
	pingFreq   time.Duration

	mu    sync.Mutex
	state State
	conn  *websocket.Conn
	subs  map[string]*Subscription

	outbound chan []byte
	limiter  *rate.Limiter

	waitersMu sync.Mutex
	waiters   map[string]PublishWaiter // hex event id -> waiter

	spamSafe bool

	cancel context.CancelFunc
}

// New builds a minion for url. connectTimeout/pingFrequency come from
// settings.S (spec.md §5 per-request timeouts). signer and authPolicy may
// both be nil, in which case AUTH challenges are logged and never answered.
func New(url string, proc Processor, picker Picker, signer Signer, authPolicy AuthPolicy, connectTimeout, pingFrequency time.Duration, spamSafe bool) *M {
	return &M{
		URL:        url,
		proc:       proc,
		picker:     picker,
		signer:     signer,
		authPolicy: authPolicy,
		connectTO:  connectTimeout,
		pingFreq:   pingFrequency,
		state:      StateConnecting,
		subs:       map[string]*Subscription{},
		outbound:   make(chan []byte, outboundQueueSize),
		limiter:    rate.NewLimiter(rate.Limit(20), 40),
		waiters:    map[string]PublishWaiter{},
		spamSafe:   spamSafe,
	}
}

// State returns the minion's current state-machine node.
func (m *M) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *M) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Run dials the relay and services it until ctx is canceled or the
// connection drops, at which point it reports a penalty to picker and
// returns (spec.md §4.5 Connecting/Reconnection). The caller (Overlord) is
// responsible for respawning after the exclusion window clears.
func (m *M) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, m.connectTO)
	defer dialCancel()

	var conn *websocket.Conn
	if conn, _, err = websocket.Dial(dialCtx, m.URL, nil); chk.E(err) {
		m.picker.RelayDisconnected(m.URL, ErrorMedium.PenaltySeconds())
		m.setState(StateExcluded)
		return
	}
	conn.SetReadLimit(1 << 20)
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
	defer conn.CloseNow()

	m.setState(StateIdle)
	log.D.F("minion: connected to %s", m.URL)

	go m.writeLoop(ctx)
	go m.pingLoop(ctx)

	for {
		var typ websocket.MessageType
		var msg []byte
		if typ, msg, err = conn.Read(ctx); err != nil {
			class := classifyCloseError(err)
			m.picker.RelayDisconnected(m.URL, class.PenaltySeconds())
			m.setState(StateExcluded)
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		m.handleFrame(msg)
	}
}

// Stop cancels the minion's run loop, if active.
func (m *M) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// classifyCloseError buckets a websocket.Read error by severity for the
// exclusion-duration formula (spec.md §4.5 Reconnection).
func classifyCloseError(err error) ErrorClass {
	if err == nil {
		return ErrorLow
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "use of closed network connection"):
		return ErrorLow
	case strings.Contains(msg, "TLS"), strings.Contains(msg, "certificate"):
		return ErrorHigh
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "i/o timeout"):
		return ErrorMedium
	default:
		status := websocket.CloseStatus(err)
		switch status {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return ErrorLow
		case websocket.StatusNoStatusRcvd, websocket.StatusAbnormalClosure:
			return ErrorMedium
		default:
			return ErrorHigh
		}
	}
}

func (m *M) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-m.outbound:
			m.mu.Lock()
			conn := m.conn
			m.mu.Unlock()
			if conn == nil {
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := conn.Write(writeCtx, websocket.MessageText, b); chk.E(err) {
				cancel()
				return
			}
			cancel()
		}
	}
}

func (m *M) pingLoop(ctx context.Context) {
	if m.pingFreq <= 0 {
		return
	}
	ticker := time.NewTicker(m.pingFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			conn := m.conn
			m.mu.Unlock()
			if conn == nil {
				continue
			}
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := conn.Ping(pingCtx); chk.E(err) {
				cancel()
				return
			}
			cancel()
		}
	}
}

// send enqueues b, applying back-pressure (spec.md §4.5): essential is true
// for the user's own configuration feed, which is never dropped; other
// sends back off briefly when the queue is near full.
func (m *M) send(ctx context.Context, b []byte, essential bool) {
	if !essential && len(m.outbound) > outboundQueueSize/2 {
		if err := m.limiter.Wait(ctx); chk.E(err) {
			return
		}
	}
	select {
	case m.outbound <- b:
	case <-ctx.Done():
	default:
		if essential {
			select {
			case m.outbound <- b:
			case <-ctx.Done():
			}
		} else {
			log.W.F("minion: dropping non-essential send to %s, queue full", m.URL)
		}
	}
}

// Subscribe opens req as a new REQ subscription (spec.md §4.5 Subscribing).
func (m *M) Subscribe(ctx context.Context, req Request, essential bool) {
	m.mu.Lock()
	m.subs[req.Handle] = &Subscription{ID: []byte(req.Handle), Temporary: req.Temporary, Filters: req}
	m.state = StateSubscribing
	m.mu.Unlock()

	env := reqenvelope.NewFrom([]byte(req.Handle), req.Filters)
	m.send(ctx, env.Marshal(nil), essential)
}

// Unsubscribe sends CLOSE for handle and forgets it.
func (m *M) Unsubscribe(ctx context.Context, handle string) {
	m.mu.Lock()
	delete(m.subs, handle)
	m.mu.Unlock()
	env := closeenvelope.NewFrom([]byte(handle))
	m.send(ctx, env.Marshal(nil), false)
}

// Publish submits ev and returns a channel that receives the relay's OK
// response (spec.md §4.5 Incoming OK).
func (m *M) Publish(ctx context.Context, ev *event.E) PublishWaiter {
	w := make(PublishWaiter, 1)
	m.waitersMu.Lock()
	m.waiters[string(ev.ID)] = w
	m.waitersMu.Unlock()

	sub := eventenvelope.NewSubmissionWith(ev)
	m.send(ctx, sub.Marshal(nil), true)
	return w
}

// handleFrame dispatches one decoded wire frame to its envelope handler
// (spec.md §4.5).
func (m *M) handleFrame(raw []byte) {
	label, rem, err := envelopes.Identify(raw)
	if chk.E(err) {
		return
	}
	switch label {
	case eventenvelope.L:
		m.handleEvent(rem)
	case okenvelope.L:
		m.handleOK(rem)
	case eoseenvelope.L:
		m.handleEOSE(rem)
	case noticeenvelope.L:
		m.handleNotice(rem)
	case authenvelope.L:
		m.handleAuth(rem)
	case closedenvelope.L:
		m.handleClosed(rem)
	default:
		log.D.F("minion: unhandled envelope label %q from %s", label, m.URL)
	}
}

func (m *M) handleEvent(rem []byte) {
	res := eventenvelope.NewResult()
	if _, err := res.Unmarshal(rem); chk.E(err) {
		return
	}
	if res.Event == nil {
		return
	}
	// spec.md §4.5: the minion does not verify signatures, only the future
	// bound, and logs/drops otherwise.
	if res.Event.CreatedAt > time.Now().Unix()+futureAllowanceSec {
		log.W.F("minion: dropping event from %s with created_at too far in the future", m.URL)
		return
	}
	if _, err := m.proc.Ingest(res.Event); chk.E(err) {
		log.W.F("minion: ingest failed for event from %s: %v", m.URL, err)
	}
}

func (m *M) handleOK(rem []byte) {
	ok := okenvelope.New()
	if _, err := ok.Unmarshal(rem); chk.E(err) {
		return
	}
	m.waitersMu.Lock()
	w, found := m.waiters[string(ok.EventID)]
	if found {
		delete(m.waiters, string(ok.EventID))
	}
	m.waitersMu.Unlock()
	if found {
		select {
		case w <- okResult{OK: ok.OK, Message: string(ok.Message)}:
		default:
		}
	}
}

func (m *M) handleEOSE(rem []byte) {
	eose := eoseenvelope.New()
	if _, err := eose.Unmarshal(rem); chk.E(err) {
		return
	}
	handle := string(eose.Subscription)
	m.mu.Lock()
	sub, ok := m.subs[handle]
	if ok && sub.Temporary {
		delete(m.subs, handle)
	}
	if len(m.subs) == 0 {
		m.state = StateIdle
	} else {
		m.state = StateDraining
	}
	m.mu.Unlock()
	if ok && sub.Temporary {
		m.Unsubscribe(context.Background(), handle)
	}
}

func (m *M) handleNotice(rem []byte) {
	notice := noticeenvelope.New()
	if _, err := notice.Unmarshal(rem); chk.E(err) {
		return
	}
	log.I.F("minion: NOTICE from %s: %s", m.URL, notice.Message)
}

// handleAuth applies the allow_auth tri-state policy (spec.md §4.5) to an
// incoming AUTH challenge: never refuses silently, always signs and replies,
// ask logs and waits for the policy to change rather than guessing.
func (m *M) handleAuth(rem []byte) {
	chal := authenvelope.NewChallenge()
	if _, err := chal.Unmarshal(rem); chk.E(err) {
		return
	}
	log.D.F("minion: AUTH challenge from %s", m.URL)
	if m.signer == nil {
		return
	}
	approval := AuthAsk
	if m.authPolicy != nil {
		approval = m.authPolicy.ApprovalForAuth(m.URL)
	}
	switch approval {
	case AuthNever:
		log.D.F("minion: AUTH challenge from %s refused by policy", m.URL)
		return
	case AuthAsk:
		log.W.F("minion: AUTH challenge from %s needs allow_auth approval, ignoring", m.URL)
		return
	}

	ev := event.New()
	ev.Kind = kindClientAuth
	ev.CreatedAt = time.Now().Unix()
	ev.Tags = tag.NewS(
		tag.NewFromAny("relay", m.URL),
		tag.NewFromAny("challenge", string(chal.Challenge)),
	)
	if err := m.signer.SignEvent(ev); chk.E(err) {
		return
	}
	resp := authenvelope.NewResponseWith(ev)
	m.send(context.Background(), resp.Marshal(nil), true)
}

func (m *M) handleClosed(rem []byte) {
	c := closedenvelope.New()
	if _, err := c.Unmarshal(rem); chk.E(err) {
		return
	}
	m.mu.Lock()
	delete(m.subs, string(c.ID))
	m.mu.Unlock()
	log.D.F("minion: CLOSED %q from %s: %s", c.ID, m.URL, c.Message)
}
