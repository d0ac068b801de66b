package health

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	StatusUp   = "up"
	StatusDown = "down"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Report is the outcome of one Check. Components maps a dependency name to
// StatusUp or StatusDown.
type Report struct {
	Healthy    bool              `json:"-"`
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Time       int64             `json:"time"`
}

type Checker struct {
	names   []string
	deps    map[string]Pinger
	timeout time.Duration
	now     func() time.Time
}

func NewChecker(timeout time.Duration) *Checker {
	return &Checker{deps: map[string]Pinger{}, timeout: timeout, now: time.Now}
}

// Add registers a dependency under name. It is not safe to call after the
// checker is in use.
func (c *Checker) Add(name string, p Pinger) *Checker {
	if _, ok := c.deps[name]; !ok {
		c.names = append(c.names, name)
		sort.Strings(c.names)
	}
	c.deps[name] = p
	return c
}

// Check pings every dependency concurrently, each bounded by the timeout.
func (c *Checker) Check(ctx context.Context) Report {
	statuses := make([]string, len(c.names))

	var g errgroup.Group
	for i, name := range c.names {
		i := i
		p := c.deps[name]
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			statuses[i] = StatusUp
			if err := p.Ping(pctx); err != nil {
				statuses[i] = StatusDown
			}
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{
		Healthy:    true,
		Status:     StatusUp,
		Components: make(map[string]string, len(c.names)),
		Time:       c.now().Unix(),
	}
	for i, name := range c.names {
		rep.Components[name] = statuses[i]
		if statuses[i] != StatusUp {
			rep.Healthy = false
			rep.Status = StatusDown
		}
	}
	return rep
}
