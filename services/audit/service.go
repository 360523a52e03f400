package audit

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

// Event types recorded by the auth flows.
const (
	EventLogin           = "login"
	EventLoginMFAPending = "login_mfa_pending"
	EventMFAVerified     = "mfa_verified"
	EventBackupCodeUsed  = "backup_code_used"
	EventRegister        = "register"
	EventRefresh         = "refresh"
	EventRefreshReplay   = "refresh_replay"
	EventLogout          = "logout"
	EventPasswordChanged = "password_changed"
	EventPasswordReset   = "password_reset"
	EventMFAEnabled      = "mfa_enabled"
	EventMFADisabled     = "mfa_disabled"
)

type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    uint              `json:"user_id,omitempty"`
	Username  string            `json:"username,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives events from the dispatcher goroutine, one at a time.
type Sink interface {
	Write(event Event)
}

type NoOpSink struct{}

func (NoOpSink) Write(Event) {}

// ZapSink records events through the structured logger.
type ZapSink struct {
	logger *logging.Service
}

func NewZapSink(logger *logging.Service) *ZapSink {
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Write(event Event) {
	if s.logger == nil {
		return
	}

	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.UserID != 0 {
		fields = append(fields, zap.Uint("user_id", event.UserID))
	}
	if event.Username != "" {
		fields = append(fields, zap.String("username", event.Username))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	for key, value := range event.Metadata {
		fields = append(fields, zap.String(key, value))
	}

	s.logger.Info("audit event", fields...)
}

// Service fans audit events out to a sink from a single drain goroutine.
// Emit never blocks the auth path: when the buffer is full the event is
// dropped and counted.
type Service struct {
	sink      Sink
	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewService(cfg *config.Config, sink Sink) *Service {
	if !cfg.Audit.Enabled {
		return nil
	}

	bufferSize := cfg.Audit.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	s := &Service{
		sink: sink,
		ch:   make(chan Event, bufferSize),
		done: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *Service) run() {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.ch:
			s.sink.Write(event)
		case <-s.done:
			for {
				select {
				case event := <-s.ch:
					s.sink.Write(event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues an event for the sink. Safe to call on a nil service.
func (s *Service) Emit(event Event) {
	if s == nil || s.closed.Load() {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case s.ch <- event:
	default:
		s.dropped.Add(1)
	}
}

// Close drains buffered events and stops the dispatcher.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.wg.Wait()
	})
}

func (s *Service) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}
