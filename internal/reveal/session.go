package reveal

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"infusesecret/internal/constants"
	"infusesecret/internal/platform/logger"
)

// State 揭曉狀態.
type State int

const (
	Locked State = iota
	Unlocking
	Unlocked
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocking:
		return "unlocking"
	case Unlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ScanRecorder 記錄一次成功揭曉.
type ScanRecorder interface {
	IncrementScan(ctx context.Context, id string) error
}

// Particle 揭曉動畫中落下的符號.
type Particle struct {
	Symbol   string
	Delay    time.Duration
	Duration time.Duration
	Left     float64 // 水平位置百分比 0..100.
}

// Session 單次瀏覽的揭曉狀態機，不持久化.
type Session struct {
	mu sync.Mutex

	messageID  string
	theme      Theme
	state      State
	clicks     int
	particles  []Particle
	unlockedAt time.Time

	recorder    ScanRecorder
	scanTimeout time.Duration
	onChange    func(from, to State)
	rng         *rand.Rand
	now         func() time.Time
	pending     sync.WaitGroup
}

// Option 設定 Session.
type Option func(*Session)

// WithScanRecorder 設定揭曉時的掃描記錄器.
func WithScanRecorder(r ScanRecorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithScanTimeout 設定掃描記錄的逾時.
func WithScanTimeout(d time.Duration) Option {
	return func(s *Session) { s.scanTimeout = d }
}

// WithTransitionHook 狀態改變時呼叫；在鎖外執行.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(s *Session) { s.onChange = fn }
}

// WithRand 指定亂數來源.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithClock 指定時鐘.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession 建立鎖定中的揭曉流程.
func NewSession(messageID, theme string, opts ...Option) *Session {
	s := &Session{
		messageID:   messageID,
		theme:       ThemeFor(theme),
		state:       Locked,
		scanTimeout: constants.ScanRecordTimeout,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Click 處理一次點擊並回傳點擊後的狀態；解鎖後的點擊不生效.
func (s *Session) Click() State {
	s.mu.Lock()
	if s.state != Locked {
		state := s.state
		s.mu.Unlock()
		return state
	}

	s.clicks++
	if s.clicks < constants.RevealClickThreshold {
		s.mu.Unlock()
		return Locked
	}

	s.state = Unlocking
	s.particles = s.spawnParticles()
	s.recordScan()
	s.state = Unlocked
	s.unlockedAt = s.now()
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook(Locked, Unlocking)
		hook(Unlocking, Unlocked)
	}
	return Unlocked
}

// spawnParticles 需持有鎖.
func (s *Session) spawnParticles() []Particle {
	particles := make([]Particle, constants.RevealParticleCount)
	for i := range particles {
		particles[i] = Particle{
			Symbol:   s.theme.Symbols[s.rng.IntN(len(s.theme.Symbols))],
			Delay:    time.Duration(s.rng.Float64() * float64(500*time.Millisecond)),
			Duration: 2*time.Second + time.Duration(s.rng.Float64()*float64(2*time.Second)),
			Left:     s.rng.Float64() * 100,
		}
	}
	return particles
}

// recordScan 非同步送出一次掃描計數，失敗只記錄不重試.
func (s *Session) recordScan() {
	if s.recorder == nil || s.messageID == "" {
		return
	}

	recorder, id, timeout := s.recorder, s.messageID, s.scanTimeout
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := recorder.IncrementScan(ctx, id); err != nil {
			logger.Warning(ctx, fmt.Sprintf("掃描計數更新失敗: %v", err),
				logger.WithMessageID(id),
				logger.WithAction("increment_scan"))
		}
	}()
}

// Wait 等待尚未完成的掃描記錄.
func (s *Session) Wait() {
	s.pending.Wait()
}

// State 目前狀態.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Clicks 已點擊次數.
func (s *Session) Clicks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clicks
}

// Remaining 距離解鎖還需要的點擊次數.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(0, constants.RevealClickThreshold-s.clicks)
}

// Particles 解鎖時產生的動畫粒子.
func (s *Session) Particles() []Particle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Particle(nil), s.particles...)
}

// Celebrating 解鎖後的慶祝動畫期間.
func (s *Session) Celebrating(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unlocked {
		return false
	}
	return now.Sub(s.unlockedAt) < constants.RevealCelebration
}

// Theme 揭曉主題.
func (s *Session) Theme() Theme {
	return s.theme
}

// Hint 顯示給瀏覽者的提示.
func (s *Session) Hint() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := max(0, constants.RevealClickThreshold-s.clicks)
	switch {
	case s.clicks == 0:
		return "Click the icon to reveal your message"
	case remaining == 0:
		return "Unlocking..."
	case remaining == 1:
		return "1 more click!"
	default:
		return fmt.Sprintf("%d more clicks!", remaining)
	}
}
