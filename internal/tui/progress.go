package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/sim"
)

const (
	barWidth    = 40
	trailWidth  = 60
	trailHeight = 16
	trailLimit  = 400
	frameEvery  = 33 * time.Millisecond
)

// SampleMsg carries the latest sample and how many have been produced.
type SampleMsg struct {
	Sample dynamo.Sample
	Count  int
	Recent []dynamo.State
}

// DoneMsg ends the view.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

// Model is the progress view of one run.
type Model struct {
	title  string
	method dynamo.Method
	total  int
	cancel context.CancelFunc

	count   int
	last    dynamo.Sample
	trail   *trail
	started time.Time
	now     func() time.Time

	done   bool
	result *sim.Result
	err    error
}

// NewModel builds a view for a run expected to emit total samples. cancel
// is called when the user quits early.
func NewModel(title string, method dynamo.Method, total int, cancel context.CancelFunc) Model {
	return Model{
		title:   title,
		method:  method,
		total:   total,
		cancel:  cancel,
		trail:   newTrail(trailLimit),
		started: time.Now(),
		now:     time.Now,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
		}
	case SampleMsg:
		m.count = msg.Count
		m.last = msg.Sample
		for _, p := range msg.Recent {
			m.trail.push(p)
		}
	case DoneMsg:
		m.done = true
		m.result, m.err = msg.Result, msg.Err
		if msg.Result != nil {
			m.count = msg.Result.Trajectory.Len()
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(Header.Render(fmt.Sprintf("%s  %s", Title.Render(m.title), Subtle.Render(m.method.String()))))
	b.WriteString("\n\n")

	b.WriteString(m.bar())
	b.WriteString(fmt.Sprintf("  %s / %d\n", Value.Render(fmt.Sprint(m.count)), m.total))

	p := m.last.State()
	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %s\n",
		Label.Render("x"), Value.Render(fmt.Sprintf("%9.4f", p[0])),
		Label.Render("y"), Value.Render(fmt.Sprintf("%9.4f", p[1])),
		Label.Render("z"), Value.Render(fmt.Sprintf("%9.4f", p[2])),
		Label.Render("dt"), Value.Render(fmt.Sprintf("%.3g", m.last.Dt))))

	b.WriteString(Panel.Render(m.trail.render(trailWidth, trailHeight)))
	b.WriteString("\n")

	elapsed := m.now().Sub(m.started).Round(time.Millisecond)
	b.WriteString(m.status())
	b.WriteString(Subtle.Render(fmt.Sprintf("  %s", elapsed)))
	b.WriteString("\n")
	if !m.done {
		b.WriteString(KeyHint.Render("q to stop"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) bar() string {
	filled := 0
	if m.total > 0 {
		filled = min(barWidth, m.count*barWidth/m.total)
	}
	return barFull.Render(strings.Repeat("█", filled)) + barEmpty.Render(strings.Repeat("░", barWidth-filled))
}

func (m Model) status() string {
	switch {
	case !m.done:
		return StatusRunning.Render("running")
	case m.err != nil:
		return StatusFailed.Render("error: " + m.err.Error())
	case m.result != nil && !m.result.OK():
		msg := m.result.Status.String()
		if m.result.Err != nil {
			msg += ": " + m.result.Err.Error()
		}
		return StatusFailed.Render(msg)
	}
	return StatusDone.Render("completed")
}

// Result returns what the run finished with, once DoneMsg arrived.
func (m Model) Result() (*sim.Result, error) { return m.result, m.err }

// Sender is the part of tea.Program the observer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Observer forwards samples to a Sender, batching them so that the view
// updates at most about 30 times a second.
type Observer struct {
	mu     sync.Mutex
	send   Sender
	count  int
	recent []dynamo.State
	last   time.Time
	every  time.Duration
}

func NewObserver(s Sender) *Observer {
	return &Observer{send: s, every: frameEvery}
}

func (o *Observer) OnSample(s dynamo.Sample) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.count++
	o.recent = append(o.recent, s.State())
	if len(o.recent) > trailLimit {
		o.recent = o.recent[len(o.recent)-trailLimit:]
	}
	if time.Since(o.last) < o.every {
		return
	}
	o.last = time.Now()
	o.send.Send(SampleMsg{Sample: s, Count: o.count, Recent: o.recent})
	o.recent = nil
}

// Run executes the run behind a progress view and returns its result. The
// run is canceled if the user quits the view.
func Run(ctx context.Context, title string, total int, method dynamo.Method, s *sim.Simulator, run func(context.Context) (*sim.Result, error)) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, method, total, cancel))
	s.AddObserver(NewObserver(p))

	go func() {
		res, err := run(ctx)
		p.Send(DoneMsg{Result: res, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(Model).Result()
}
