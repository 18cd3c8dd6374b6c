// Package conversation provides the orchestrator that glues user input to the
// state machine, the durable store, and the external chat service.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capshealth/healthbot/internal/models"
	"github.com/capshealth/healthbot/internal/session"
	"github.com/capshealth/healthbot/internal/store"
)

// ChatService is the external collaborator the engine exchanges messages
// through. Chat returns the bot reply text; AppendLog records one exchange.
type ChatService interface {
	Chat(ctx context.Context, req models.ChatRequest) (string, error)
	AppendLog(ctx context.Context, req models.ChatLogRequest) error
}

// ErrAlreadyRegistered is returned when registration is attempted on a
// session that already completed it.
var ErrAlreadyRegistered = errors.New("session is already registered")

// DefaultChatTimeout bounds the external chat call. The upstream call is
// otherwise unbounded and would hang the conversation indefinitely.
const DefaultChatTimeout = 30 * time.Second

// DefaultLogTimeout bounds the fire-and-forget log append.
const DefaultLogTimeout = 10 * time.Second

// Opts holds configuration for the engine.
type Opts struct {
	ChatTimeout time.Duration
}

// Option configures the engine.
type Option func(*Opts)

// WithChatTimeout sets the bound on the external chat call.
func WithChatTimeout(d time.Duration) Option {
	return func(o *Opts) { o.ChatTimeout = d }
}

// Engine owns the single conversation record. All transitions are applied on
// one logical thread (guarded by mu) through the reducer, and the durable
// snapshot is written after every transition. Persistence is best-effort: a
// failed write is logged, never surfaced, and never blocks the conversation.
type Engine struct {
	mu          sync.Mutex
	state       models.ConversationState
	st          store.Store
	chat        ChatService
	chatTimeout time.Duration
	// logWG tracks in-flight log appends so tests can wait for them.
	logWG sync.WaitGroup
}

// NewEngine loads the persisted snapshot (if any) and initializes the
// session. An unregistered session gets a healthcare context and privacy
// style — stored values when present, uniform random picks when absent — and
// a welcome document generated only when none is stored yet.
func NewEngine(st store.Store, chat ChatService, opts ...Option) (*Engine, error) {
	cfg := Opts{ChatTimeout: DefaultChatTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	snap, err := st.GetConversationState()
	if err != nil {
		slog.Error("Engine.NewEngine: failed to load conversation snapshot", "error", err)
		return nil, fmt.Errorf("failed to load conversation snapshot: %w", err)
	}

	e := &Engine{
		st:          st,
		chat:        chat,
		chatTimeout: cfg.ChatTimeout,
	}
	if snap != nil {
		e.state = snap.Restore()
		slog.Debug("Engine.NewEngine: restored conversation snapshot", "registered", e.state.IsRegistered, "messages", len(e.state.Messages))
	} else {
		e.state = models.ConversationState{Messages: []models.Message{}}
		slog.Debug("Engine.NewEngine: starting with empty conversation state")
	}

	e.mu.Lock()
	e.initializeSession()
	e.mu.Unlock()
	return e, nil
}

// initializeSession applies the startup transitions for an unregistered
// session. Caller must hold mu.
func (e *Engine) initializeSession() {
	if e.state.IsRegistered {
		return
	}

	hc := e.state.HealthcareContext
	if hc == "" {
		contexts := models.HealthcareContexts()
		hc = contexts[rand.Intn(len(contexts))]
	}
	ps := e.state.PrivacyStyle
	if ps == "" {
		styles := models.PrivacyStyles()
		ps = styles[rand.Intn(len(styles))]
	}
	e.dispatch(Action{Type: ActionInitializeSession, HealthcareContext: hc, PrivacyStyle: ps})

	// The welcome document is generated exactly once per unregistered
	// session and never regenerated after registration.
	if e.state.WelcomeMessage == "" {
		e.dispatch(Action{Type: ActionSetWelcomeMessage, Welcome: WelcomeDocument(hc, ps)})
	}
	slog.Info("Engine.initializeSession: session initialized", "healthcareContext", hc, "privacyStyle", ps)
}

// dispatch applies one reducer action and persists the resulting snapshot.
// Caller must hold mu.
func (e *Engine) dispatch(action Action) {
	e.state = Reduce(e.state, action)
	if err := e.st.SaveConversationState(e.state.Snapshot()); err != nil {
		slog.Error("Engine.dispatch: failed to persist conversation snapshot", "error", err, "action", action.Type)
	}
}

// State returns a copy of the current conversation state. The message slice
// is copied so callers cannot alias the engine's transcript.
func (e *Engine) State() models.ConversationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() models.ConversationState {
	state := e.state
	state.Messages = make([]models.Message, len(e.state.Messages))
	copy(state.Messages, e.state.Messages)
	return state
}

// SendMessage runs one exchange: append the user message, call the chat
// service, and append the reply or record the failure. Empty input and input
// arriving while an exchange is in flight are ignored without any state
// change. Failures of the exchange land in ConversationState.Error; the
// returned state reflects the completed exchange.
func (e *Engine) SendMessage(ctx context.Context, content string) models.ConversationState {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		slog.Debug("Engine.SendMessage: ignoring empty message")
		return e.State()
	}

	e.mu.Lock()
	if e.state.IsLoading {
		slog.Warn("Engine.SendMessage: exchange already in flight, ignoring message")
		state := e.snapshotLocked()
		e.mu.Unlock()
		return state
	}
	hc := e.state.HealthcareContext
	ps := e.state.PrivacyStyle
	sessionID := e.state.SessionID
	userDetails := e.state.UserDetails
	e.dispatch(Action{Type: ActionAddMessage, Message: models.Message{
		ID:        uuid.NewString(),
		Content:   content,
		Timestamp: time.Now(),
		Sender:    models.SenderUser,
	}})
	e.dispatch(Action{Type: ActionSetLoading, Loading: true})
	e.dispatch(Action{Type: ActionClearError})
	e.mu.Unlock()

	chatCtx, cancel := context.WithTimeout(ctx, e.chatTimeout)
	defer cancel()
	reply, err := e.chat.Chat(chatCtx, models.ChatRequest{
		UserInput:         content,
		HealthcareContext: hc,
		PrivacyStyle:      ps,
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		message := err.Error()
		if chatCtx.Err() == context.DeadlineExceeded {
			message = fmt.Sprintf("Chat service timed out after %s. Please try again.", e.chatTimeout)
		}
		slog.Error("Engine.SendMessage: chat service call failed", "error", err)
		e.dispatch(Action{Type: ActionSetError, Error: message})
		e.dispatch(Action{Type: ActionSetLoading, Loading: false})
		return e.snapshotLocked()
	}

	e.dispatch(Action{Type: ActionAddMessage, Message: models.Message{
		ID:        uuid.NewString(),
		Content:   StripEmphasis(reply),
		Timestamp: time.Now(),
		Sender:    models.SenderBot,
	}})
	e.dispatch(Action{Type: ActionSetLoading, Loading: false})

	// Fire-and-forget: the chat log carries the original, unstripped reply.
	// Logging is best-effort and must never block or corrupt the visible
	// conversation, so its failure is swallowed after being logged.
	logReq := models.ChatLogRequest{
		SessionID:         sessionID,
		HealthcareContext: hc,
		PrivacyStyle:      ps,
		UserInput:         content,
		BotReply:          reply,
		UserDetails:       userDetails,
	}
	e.logWG.Add(1)
	go func() {
		defer e.logWG.Done()
		logCtx, cancel := context.WithTimeout(context.Background(), DefaultLogTimeout)
		defer cancel()
		if err := e.chat.AppendLog(logCtx, logReq); err != nil {
			slog.Warn("Engine.SendMessage: chat log append failed", "error", err, "sessionID", sessionID)
		}
	}()

	slog.Info("Engine.SendMessage: exchange completed", "sessionID", sessionID, "replyLength", len(reply))
	return e.snapshotLocked()
}

// Register validates the registration request, derives the user's age and
// session identifier, and applies the RegisterUser transition. Validation and
// consent failures are returned to the caller and never stored in
// ConversationState.Error. The welcome document already in state is retained
// unchanged.
func (e *Engine) Register(req models.RegistrationRequest) (models.ConversationState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsRegistered {
		slog.Warn("Engine.Register: session already registered")
		return e.snapshotLocked(), ErrAlreadyRegistered
	}

	now := time.Now()
	if err := session.ValidateRegistration(req, now); err != nil {
		slog.Warn("Engine.Register: registration rejected", "error", err)
		return e.snapshotLocked(), err
	}

	details, err := session.BuildUserDetails(req, now)
	if err != nil {
		return e.snapshotLocked(), err
	}
	sessionID := session.DeriveSessionID(details.FirstName, details.LastName, details.DateOfBirth)

	e.dispatch(Action{Type: ActionRegisterUser, UserDetails: &details, SessionID: sessionID})
	slog.Info("Engine.Register: user registered", "sessionID", sessionID, "age", details.Age)
	return e.snapshotLocked(), nil
}

// TogglePrivacyBox flips the privacy box. The reducer forces it hidden for
// any style other than progressive.
func (e *Engine) TogglePrivacyBox() models.ConversationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispatch(Action{Type: ActionTogglePrivacyBox})
	return e.snapshotLocked()
}

// ClearError dismisses the last failure message.
func (e *Engine) ClearError() models.ConversationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispatch(Action{Type: ActionClearError})
	return e.snapshotLocked()
}

// Reset clears the durable slot and reinitializes the conversation from
// empty, which rolls a fresh context/privacy-style pair and generates a new
// welcome document.
func (e *Engine) Reset() (models.ConversationState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.st.DeleteConversationState(); err != nil {
		slog.Error("Engine.Reset: failed to clear conversation snapshot", "error", err)
		return e.snapshotLocked(), fmt.Errorf("failed to clear conversation snapshot: %w", err)
	}
	e.state = models.ConversationState{Messages: []models.Message{}}
	e.initializeSession()
	slog.Info("Engine.Reset: conversation reset to registration")
	return e.snapshotLocked(), nil
}

// WaitForPendingLogs blocks until in-flight chat log appends finish. Test
// hook; production callers never need it.
func (e *Engine) WaitForPendingLogs() {
	e.logWG.Wait()
}
