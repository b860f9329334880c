package services

import (
	"log/slog"
	"sort"
	"sync"

	"worship-presenter/internal/channel"
	"worship-presenter/internal/logging"
	"worship-presenter/internal/syncproto"
)

// PresenterService runs one server-side Presenter per channel name, created
// on first use.
type PresenterService struct {
	bus  *channel.Bus
	opts syncproto.PresenterOptions
	log  *slog.Logger

	mu         sync.Mutex
	presenters map[string]*syncproto.Presenter
}

// NewPresenterService creates presenters on bus using opts as the template.
func NewPresenterService(bus *channel.Bus, opts syncproto.PresenterOptions, logger *slog.Logger) *PresenterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenterService{
		bus:        bus,
		opts:       opts,
		log:        logger,
		presenters: make(map[string]*syncproto.Presenter),
	}
}

// Get returns the presenter for channel name, starting it if needed.
func (s *PresenterService) Get(name string) *syncproto.Presenter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.presenters[name]; ok {
		return p
	}
	opts := s.opts
	opts.Logger = logging.WithComponent(s.log, "presenter").With("channel", name)
	p := syncproto.NewPresenter(s.bus.Open(name), opts)
	p.Start()
	s.presenters[name] = p
	s.log.Info("presenter started", "channel", name)
	return p
}

// Lookup returns the presenter for name without creating one.
func (s *PresenterService) Lookup(name string) (*syncproto.Presenter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.presenters[name]
	return p, ok
}

// Names lists channels with a running presenter.
func (s *PresenterService) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.presenters))
	for name := range s.presenters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stop closes the presenter for name. Outputs keep their last state.
func (s *PresenterService) Stop(name string) bool {
	s.mu.Lock()
	p, ok := s.presenters[name]
	delete(s.presenters, name)
	s.mu.Unlock()
	if ok {
		_ = p.Close()
		s.log.Info("presenter stopped", "channel", name)
	}
	return ok
}

// Close stops every presenter.
func (s *PresenterService) Close() error {
	for _, name := range s.Names() {
		s.Stop(name)
	}
	return nil
}
