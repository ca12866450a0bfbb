// Package session holds the interactive search state: the current query and filters,
// the last good results and suggestions, and search-as-you-type scheduling.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/debounce"
	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/notify"
	"github.com/nepaledu/edusearch/internal/search"
	"github.com/nepaledu/edusearch/pkg/utils"
)

// DefaultDebounce is the search-as-you-type delay.
const DefaultDebounce = 300 * time.Millisecond

// Searcher runs searches and suggestion lookups.
type Searcher interface {
	Search(ctx context.Context, query string, filters models.Filters) ([]*models.Result, error)
	Suggest(ctx context.Context, partial string) ([]models.Suggestion, error)
}

// History records queries and stores saved searches.
type History interface {
	Record(ctx context.Context, query string) error
	Save(ctx context.Context, name, query string, filters models.Filters) (*models.SavedSearch, error)
	Get(ctx context.Context, id string) (*models.SavedSearch, error)
}

// State is a snapshot of the session.
type State struct {
	Query       string
	Filters     models.Filters
	Results     []*models.Result
	Suggestions []models.Suggestion
}

// Session is the search controller for one user.
type Session struct {
	searcher Searcher
	history  History
	notifier notify.Notifier
	logger   *zap.Logger
	debounce *debounce.Debouncer
	onChange func(State)

	mu          sync.Mutex
	query       string
	filters     models.Filters
	results     []*models.Result
	suggestions []models.Suggestion
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier sets where user-facing messages go.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Session) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = utils.NopIfNil(l) }
}

// WithDebounce sets the search-as-you-type delay.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.debounce = debounce.New(d)
		}
	}
}

// WithOnChange registers a callback run after results or suggestions change.
func WithOnChange(fn func(State)) Option {
	return func(s *Session) { s.onChange = fn }
}

// New creates a Session.
func New(searcher Searcher, history History, opts ...Option) *Session {
	s := &Session{
		searcher: searcher,
		history:  history,
		notifier: notify.Nop{},
		logger:   zap.NewNop(),
		debounce: debounce.New(DefaultDebounce),
		results:  []*models.Result{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetQuery replaces the query text without searching.
func (s *Session) SetQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

// SetFilters replaces the active filters without searching.
func (s *Session) SetFilters(f models.Filters) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

// Query returns the query text.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Filters returns the active filters.
func (s *Session) Filters() models.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Results returns the results of the last successful search.
func (s *Session) Results() []*models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Result(nil), s.results...)
}

// Suggestions returns the current autocomplete entries.
func (s *Session) Suggestions() []models.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Suggestion(nil), s.suggestions...)
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		Query:       s.query,
		Filters:     s.filters,
		Results:     append([]*models.Result(nil), s.results...),
		Suggestions: append([]models.Suggestion(nil), s.suggestions...),
	}
}

// Submit searches with the current query and filters.
// Neither query nor filters is a warning and returns models.ErrEmptySearch.
// A failed search is reported and leaves the previous results in place.
func (s *Session) Submit(ctx context.Context) error {
	s.debounce.Cancel()
	return s.submit(ctx)
}

// submit runs the search without touching the pending search-as-you-type,
// so a keystroke scheduled while a debounced search runs is kept.
func (s *Session) submit(ctx context.Context) error {
	s.mu.Lock()
	req := models.SearchRequest{Query: s.query, Filters: s.filters}
	s.mu.Unlock()

	if err := req.Validate(); err != nil {
		s.notifier.Notify(notify.Warning, err.Error())
		return err
	}

	results, err := s.searcher.Search(ctx, req.Query, req.Filters)
	if err != nil {
		level := notify.Error
		if search.IsValidation(err) {
			level = notify.Warning
		}
		s.notifier.Notify(level, search.UserMessage(err))
		return err
	}

	s.mu.Lock()
	s.results = results
	state := s.stateLocked()
	s.mu.Unlock()

	if err := s.history.Record(ctx, req.Query); err != nil {
		s.logger.Warn("failed to record search history", zap.String("query", req.Query), zap.Error(err))
	}
	s.notifier.Notify(notify.Info, resultMessage(len(results)))
	s.changed(state)
	return nil
}

func resultMessage(n int) string {
	if n == 1 {
		return "Found 1 result"
	}
	return fmt.Sprintf("Found %d results", n)
}

// Input handles a keystroke in the search box. Suggestions refresh and a search
// runs once typing pauses; each call replaces the pending one.
// Clearing the box with no filters set clears results instead of warning.
func (s *Session) Input(ctx context.Context, text string) {
	s.SetQuery(text)
	s.debounce.Trigger(func() {
		s.refreshSuggestions(ctx, text)

		s.mu.Lock()
		idle := strings.TrimSpace(s.query) == "" && s.filters.IsEmpty()
		if idle {
			s.results = []*models.Result{}
		}
		state := s.stateLocked()
		s.mu.Unlock()

		if idle {
			s.changed(state)
			return
		}
		if err := s.submit(ctx); err != nil {
			s.logger.Debug("search as you type failed", zap.Error(err))
		}
	})
}

// Flush runs a pending search-as-you-type now. It reports whether one was pending.
func (s *Session) Flush() bool {
	return s.debounce.Flush()
}

func (s *Session) refreshSuggestions(ctx context.Context, text string) {
	suggestions, err := s.searcher.Suggest(ctx, text)
	if err != nil {
		s.logger.Warn("suggestions failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.suggestions = suggestions
	state := s.stateLocked()
	s.mu.Unlock()
	s.changed(state)
}

// LoadSaved restores a saved search into the session and runs it.
// An unknown id does nothing and is not an error.
func (s *Session) LoadSaved(ctx context.Context, id string) error {
	saved, err := s.history.Get(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Debug("saved search not found", zap.String("id", id))
		return nil
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.query = saved.Query
	s.filters = saved.Filters
	s.mu.Unlock()
	return s.submit(ctx)
}

// SaveCurrent stores the current query and filters under name.
func (s *Session) SaveCurrent(ctx context.Context, name string) (*models.SavedSearch, error) {
	s.mu.Lock()
	query, filters := s.query, s.filters
	s.mu.Unlock()

	saved, err := s.history.Save(ctx, name, query, filters)
	if err != nil {
		s.notifier.Notify(notify.Error, "Failed to save search: "+err.Error())
		return nil, err
	}
	s.notifier.Notify(notify.Success, "Search saved")
	return saved, nil
}

// Close drops any pending search-as-you-type.
func (s *Session) Close() {
	s.debounce.Cancel()
}

func (s *Session) changed(state State) {
	if s.onChange != nil {
		s.onChange(state)
	}
}
