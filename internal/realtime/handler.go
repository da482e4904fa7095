// Package realtime – Handler
//
// This file implements the connection lifecycle logic: decoding inbound
// event frames, applying them to the store, relaying them to the sender's
// room and producing the delayed assistant reply for chat messages.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/services"
)

// Store is the persistence the handler needs. *services.Store satisfies it.
type Store interface {
	// CreateMessage persists a chat message and assigns its id.
	CreateMessage(ctx context.Context, in domain.NewMessage) (*domain.Message, error)
	// UpdateTeamMember applies a team_update; ErrNotFound for unknown ids.
	UpdateTeamMember(ctx context.Context, id int64, patch domain.TeamMemberPatch) (*domain.TeamMember, error)
	// UpdateProject applies a project_update; ErrNotFound for unknown ids.
	UpdateProject(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error)
}

// Replier produces assistant text and the label of the model behind it.
// *ai.Responder satisfies it.
type Replier interface {
	// Reply always returns text; the label is "fallback" for local replies.
	Reply(ctx context.Context, text, model string) (string, string)
}

// Default reply timing: 1s plus up to 2s of jitter, and a cap on provider
// latency so a hung upstream cannot pin a goroutine forever.
const (
	DefaultReplyDelay   = time.Second
	DefaultReplyJitter  = 2 * time.Second
	DefaultReplyTimeout = 45 * time.Second
)

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithScheduler replaces the timer source used for delayed replies.
func WithScheduler(s Scheduler) HandlerOption { return func(h *Handler) { h.sched = s } }

// WithDelay replaces the reply delay source.
func WithDelay(d DelayFunc) HandlerOption { return func(h *Handler) { h.delay = d } }

// WithReplyTimeout bounds the time spent generating one reply.
func WithReplyTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// Handler applies inbound events for a connection and schedules the
// assistant reply to every chat message.
//
// Replies outlive the connection that triggered them and are broadcast to
// the room captured when the message arrived. Pending timers are keyed by
// the user message id; Close cancels the ones still waiting and waits for
// those already running. One Handler serves every connection.
type Handler struct {
	hub      *Hub
	store    Store
	replier  Replier
	sched    Scheduler
	delay    DelayFunc
	timeout  time.Duration
	validate *validator.Validate

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[int64]Timer
	closed  bool
}

// NewHandler wires a handler. Without options replies fire after 1s plus up
// to 2s of jitter on real timers.
func NewHandler(hub *Hub, store Store, replier Replier, opts ...HandlerOption) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		hub:      hub,
		store:    store,
		replier:  replier,
		sched:    RealScheduler{},
		delay:    RandomDelay(DefaultReplyDelay, DefaultReplyJitter, 0),
		timeout:  DefaultReplyTimeout,
		validate: v,
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[int64]Timer),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Dispatch handles one inbound frame from c. The returned error describes
// why the frame had no effect; it never means the connection should close.
//
// Event handling:
//   - join: (re)join a room with optional userId and projectId
//   - chat_message: persist, echo to the room, schedule the assistant reply;
//     requires a joined session with a user id
//   - team_update, project_update: apply to the store, then relay
//   - collaboration: relay with the sender's user id, nothing persisted
//   - anything else: ignored
//
// Malformed JSON and binding failures wrap services.ErrValidation. A panic
// while handling the frame is recovered and returned as an error.
func (h *Handler) Dispatch(ctx context.Context, c *Client, frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling frame: %v", r)
		}
	}()

	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return fmt.Errorf("%w: malformed frame: %v", services.ErrValidation, err)
	}
	framesIn.WithLabelValues(metricType(env.Type)).Inc()

	ctx, span := otel.Tracer("realtime/Handler").Start(ctx, "ws."+metricType(env.Type),
		trace.WithAttributes(attribute.String("ws.conn_id", c.ID())),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "event rejected")
		}
	}()

	switch env.Type {
	case EventJoin:
		return h.join(c, frame)
	case EventChatMessage:
		return h.chat(ctx, c, frame)
	case EventTeamUpdate:
		return h.teamUpdate(ctx, c, frame)
	case EventProjectUpdate:
		return h.projectUpdate(ctx, c, frame)
	case EventCollaboration:
		return h.collaboration(c, frame)
	default:
		return nil
	}
}

// metricType bounds the label cardinality of per-type metrics and spans.
func metricType(t string) string {
	switch t {
	case EventJoin, EventChatMessage, EventTeamUpdate, EventProjectUpdate, EventCollaboration:
		return t
	default:
		return "unknown"
	}
}

// decode unmarshals frame into v and validates its binding tags, the same
// tags gin uses for HTTP bodies.
func (h *Handler) decode(frame []byte, v any) error {
	if err := json.Unmarshal(frame, v); err != nil {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	if err := h.validate.Struct(v); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			parts := make([]string, 0, len(ves))
			for _, fe := range ves {
				parts = append(parts, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", services.ErrValidation, strings.Join(parts, ", "))
		}
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	return nil
}

func (h *Handler) join(c *Client, frame []byte) error {
	var ev joinEvent
	if err := h.decode(frame, &ev); err != nil {
		return err
	}
	if !h.hub.Join(c, ev.Room, ev.UserID.value(), ev.ProjectID.value()) {
		return ErrTransport
	}
	return nil
}

// chat persists a user message from the session's user and project, echoes
// it to the room and arms the reply.
func (h *Handler) chat(ctx context.Context, c *Client, frame []byte) error {
	var ev chatEvent
	if err := h.decode(frame, &ev); err != nil {
		return err
	}
	sess := c.Session()
	if !sess.Joined() || sess.UserID == nil {
		return ErrNotJoined
	}

	msg, err := h.store.CreateMessage(ctx, domain.NewMessage{
		Content:   ev.Message,
		Type:      domain.MessageUser,
		UserID:    sess.UserID,
		ProjectID: sess.ProjectID,
		Metadata:  datatypes.JSONMap(ev.Metadata),
	})
	if err != nil {
		return err
	}
	if _, err := h.hub.Broadcast(sess.Room, ChatMessageOut{Type: EventChatMessage, Message: msg}); err != nil {
		return err
	}
	h.schedule(msg, sess.Room)
	return nil
}

// teamUpdate applies updates to a team member and relays them unchanged,
// including keys the store ignored.
func (h *Handler) teamUpdate(ctx context.Context, c *Client, frame []byte) error {
	var ev teamUpdateEvent
	if err := h.decode(frame, &ev); err != nil {
		return err
	}
	sess := c.Session()
	if !sess.Joined() {
		return ErrNotJoined
	}
	var patch domain.TeamMemberPatch
	if err := convertUpdates(ev.Updates, &patch); err != nil {
		return err
	}
	if _, err := h.store.UpdateTeamMember(ctx, ev.MemberID.ID, patch); err != nil {
		return err
	}
	_, err := h.hub.Broadcast(sess.Room, TeamUpdateOut{Type: EventTeamUpdate, MemberID: *ev.MemberID, Updates: ev.Updates})
	return err
}

func (h *Handler) projectUpdate(ctx context.Context, c *Client, frame []byte) error {
	var ev projectUpdateEvent
	if err := h.decode(frame, &ev); err != nil {
		return err
	}
	sess := c.Session()
	if !sess.Joined() {
		return ErrNotJoined
	}
	var patch domain.ProjectPatch
	if err := convertUpdates(ev.Updates, &patch); err != nil {
		return err
	}
	if _, err := h.store.UpdateProject(ctx, ev.ProjectID.ID, patch); err != nil {
		return err
	}
	_, err := h.hub.Broadcast(sess.Room, ProjectUpdateOut{Type: EventProjectUpdate, ProjectID: *ev.ProjectID, Updates: ev.Updates})
	return err
}

func (h *Handler) collaboration(c *Client, frame []byte) error {
	var ev collaborationEvent
	if err := h.decode(frame, &ev); err != nil {
		return err
	}
	sess := c.Session()
	if !sess.Joined() {
		return ErrNotJoined
	}
	_, err := h.hub.Broadcast(sess.Room, CollaborationOut{
		Type:   EventCollaboration,
		Action: ev.Action,
		Data:   ev.Data,
		UserID: sess.UserID,
	})
	return err
}

// convertUpdates maps a free-form updates object onto a typed patch. Keys
// the patch does not know are ignored.
func convertUpdates(updates map[string]any, patch any) error {
	b, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("%w: updates: %v", services.ErrValidation, err)
	}
	if err := json.Unmarshal(b, patch); err != nil {
		return fmt.Errorf("%w: updates: %v", services.ErrValidation, err)
	}
	return nil
}

// schedule arms the assistant reply to msg, delivered to room.
func (h *Handler) schedule(msg *domain.Message, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.wg.Add(1)
	pendingReplies.Inc()
	// h.mu is held until the entry is stored, so the callback cannot
	// observe a missing entry.
	h.pending[msg.ID] = h.sched.AfterFunc(h.delay(), func() { h.reply(msg, room) })
}

// reply runs on the scheduler's goroutine. It asks the replier for text,
// stores it as an ai message with aiModel metadata and broadcasts it. Errors
// are logged; there is no caller to return them to.
func (h *Handler) reply(msg *domain.Message, room string) {
	defer h.wg.Done()

	h.mu.Lock()
	delete(h.pending, msg.ID)
	closed := h.closed
	h.mu.Unlock()
	pendingReplies.Dec()
	if closed {
		return
	}

	logger := log.With().Int64("message_id", msg.ID).Str("room", room).Logger()
	ctx, cancel := context.WithTimeout(h.ctx, h.timeout)
	defer cancel()

	text, label := h.replier.Reply(ctx, msg.Content, "")
	out, err := h.store.CreateMessage(h.ctx, domain.NewMessage{
		Content:   text,
		Type:      domain.MessageAI,
		ProjectID: msg.ProjectID,
		Metadata:  datatypes.JSONMap{"aiModel": label},
	})
	if err != nil {
		logger.Error().Err(err).Msg("persist ai reply failed")
		return
	}
	if _, err := h.hub.Broadcast(room, ChatMessageOut{Type: EventChatMessage, Message: out}); err != nil {
		logger.Error().Err(err).Msg("broadcast ai reply failed")
	}
}

// Pending returns the number of replies waiting for their timer.
func (h *Handler) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Close cancels waiting replies and waits for running ones to finish. Later
// chat messages are still stored and echoed but get no reply.
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	for id, t := range h.pending {
		if t.Stop() {
			h.wg.Done()
			pendingReplies.Dec()
		}
		delete(h.pending, id)
	}
	h.mu.Unlock()
	h.cancel()
	h.wg.Wait()
}

// eventType extracts the type of a frame for logging; malformed frames
// yield "".
func eventType(frame []byte) string {
	var env envelope
	_ = json.Unmarshal(frame, &env)
	return env.Type
}

// logDispatchError reports a rejected frame at a level matching its cause.
func logDispatchError(logger zerolog.Logger, typ string, err error) {
	switch {
	case errors.Is(err, ErrNotJoined):
		logger.Debug().Err(err).Str("type", typ).Msg("event ignored")
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrNotFound), errors.Is(err, ErrTransport):
		logger.Warn().Err(err).Str("type", typ).Msg("event rejected")
	default:
		logger.Error().Err(err).Str("type", typ).Msg("event failed")
	}
}
