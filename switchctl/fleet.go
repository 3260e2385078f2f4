package switchctl

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/elijahnyp/light_switch/state"
	"github.com/elijahnyp/light_switch/transport"
	"golang.org/x/sync/errgroup"
)

var ErrNoSuchSwitch = errors.New("no such switch")

// Fleet is the set of configured switches, each behind its own worker.
type Fleet struct {
	workers map[string]*Worker
	names   []string
}

func NewFleet(workers ...*Worker) *Fleet {
	f := &Fleet{workers: make(map[string]*Worker, len(workers))}
	for _, w := range workers {
		name := w.Controller().Name()
		if _, dup := f.workers[name]; !dup {
			f.names = append(f.names, name)
		}
		f.workers[name] = w
	}
	sort.Strings(f.names)
	return f
}

// BuildFleet constructs a controller and worker for every config entry.
// Entries that fail (unknown device, missing field) are skipped and their
// errors returned. When prev is given, confirmed state is carried over by name.
func BuildFleet(cfgs []Config, table DeviceTable, sender transport.Sender, queueSize int, prev *Fleet, opts ...Option) (*Fleet, []error) {
	var errs []error
	workers := make([]*Worker, 0, len(cfgs))
	for _, cfg := range cfgs {
		switchOpts := opts
		if prev != nil {
			if snap, ok := prev.State(cfg.Name); ok {
				switchOpts = append(append([]Option{}, opts...), WithInitialState(snap.On, snap.LastChange))
			}
		}
		ctrl, err := New(cfg, table, sender, switchOpts...)
		if err != nil {
			errs = append(errs, fmt.Errorf("switch %q: %w", cfg.Name, err))
			continue
		}
		workers = append(workers, NewWorker(ctrl, queueSize))
	}
	return NewFleet(workers...), errs
}

// Run starts every worker and blocks until ctx is done.
func (f *Fleet) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range f.names {
		w := f.workers[name]
		g.Go(func() error { return w.Run(ctx) })
	}
	return g.Wait()
}

func (f *Fleet) Submit(name string, intent Intent) (<-chan Outcome, error) {
	w, ok := f.workers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchSwitch, name)
	}
	return w.Submit(intent)
}

func (f *Fleet) Get(name string) (*Controller, bool) {
	w, ok := f.workers[name]
	if !ok {
		return nil, false
	}
	return w.Controller(), true
}

func (f *Fleet) State(name string) (state.SwitchState, bool) {
	ctrl, ok := f.Get(name)
	if !ok {
		return state.SwitchState{}, false
	}
	return ctrl.Snapshot(), true
}

func (f *Fleet) Names() []string {
	return append([]string(nil), f.names...)
}

func (f *Fleet) Len() int { return len(f.names) }

func (f *Fleet) Snapshots() []state.SwitchState {
	out := make([]state.SwitchState, 0, len(f.names))
	for _, name := range f.names {
		out = append(out, f.workers[name].Controller().Snapshot())
	}
	return out
}
