package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/nepaledu/edusearch/internal/config"
)

// Default dismiss delays.
const (
	DefaultDismiss      = 3 * time.Second
	DefaultErrorDismiss = 4 * time.Second
)

// Notification is a message currently shown to the user.
type Notification struct {
	ID      uint64    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Tray keeps visible notifications and dismisses each after a fixed delay.
type Tray struct {
	dismiss      time.Duration
	errorDismiss time.Duration
	now          func() time.Time

	mu     sync.Mutex
	nextID uint64
	items  map[uint64]Notification
	timers map[uint64]*time.Timer
}

// NewTray creates a Tray. A nil cfg uses the default delays.
func NewTray(cfg *config.NotifyConfig) *Tray {
	t := &Tray{
		dismiss:      DefaultDismiss,
		errorDismiss: DefaultErrorDismiss,
		now:          time.Now,
		items:        make(map[uint64]Notification),
		timers:       make(map[uint64]*time.Timer),
	}
	if cfg != nil {
		if cfg.DismissMillis > 0 {
			t.dismiss = time.Duration(cfg.DismissMillis) * time.Millisecond
		}
		if cfg.ErrorDismissMillis > 0 {
			t.errorDismiss = time.Duration(cfg.ErrorDismissMillis) * time.Millisecond
		}
	}
	return t
}

// Notify shows a notification and schedules its dismissal.
func (t *Tray) Notify(level Level, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.items[id] = Notification{ID: id, Level: level, Message: message, Time: t.now()}

	delay := t.dismiss
	if level == Error {
		delay = t.errorDismiss
	}
	t.timers[id] = time.AfterFunc(delay, func() { t.Dismiss(id) })
}

// Dismiss removes a notification early. Unknown ids are ignored.
func (t *Tray) Dismiss(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	delete(t.items, id)
}

// Active returns visible notifications, oldest first.
func (t *Tray) Active() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Notification, 0, len(t.items))
	for _, n := range t.items {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close stops pending dismiss timers and clears the tray.
func (t *Tray) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.items = make(map[uint64]Notification)
}
