package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"

	"github.com/raphi011/svn2git/internal/ui/styles"
)

// revisionMsg reports that the loop reached a revision.
type revisionMsg struct {
	done    int // revisions handled, including this one when skipped
	rev     int
	skipped bool
}

// barModel is the Bubbletea model behind Revisions.
type barModel struct {
	bar     progress.Model
	total   int
	done    int
	rev     int
	skipped int
	started time.Time
	updates <-chan revisionMsg
}

func newBarModel(from, to int, updates <-chan revisionMsg) barModel {
	return barModel{
		bar: progress.New(
			progress.WithWidth(40),
			progress.WithoutPercentage(),
			progress.WithColors(styles.Primary, styles.Accent),
		),
		total:   to - from + 1,
		rev:     from,
		started: time.Now(),
		updates: updates,
	}
}

func (m barModel) Init() tea.Cmd {
	return m.next()
}

// next waits for the following revision; a closed channel ends the program.
func (m barModel) next() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return tea.Quit()
		}
		return u
	}
}

func (m barModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if u, ok := msg.(revisionMsg); ok {
		m.done, m.rev = u.done, u.rev
		if u.skipped {
			m.skipped++
		}
		return m, m.next()
	}
	var cmd tea.Cmd
	m.bar, cmd = m.bar.Update(msg)
	return m, cmd
}

func (m barModel) View() tea.View {
	if m.total <= 0 {
		return tea.NewView("")
	}
	return tea.NewView(m.line(time.Since(m.started)))
}

// line renders: [██████░░░░] 45% r1234 450/1000 (12 skipped) eta 3m20s
func (m barModel) line(elapsed time.Duration) string {
	percent := float64(m.done) / float64(m.total)
	s := fmt.Sprintf("%s %3d%% r%d %d/%d", m.bar.ViewAs(percent), m.done*100/m.total, m.rev, m.done, m.total)
	if m.skipped > 0 {
		s += styles.MutedStyle.Render(fmt.Sprintf(" (%d skipped)", m.skipped))
	}
	if m.done > 0 && m.done < m.total {
		eta := time.Duration(float64(elapsed) / float64(m.done) * float64(m.total-m.done))
		s += " eta " + eta.Round(time.Second).String()
	}
	return s
}

// Revisions shows the export loop as a progress bar. It implements
// export.Progress.
type Revisions struct {
	out io.Writer

	mu      sync.Mutex
	program *tea.Program
	updates chan revisionMsg
	stopped chan struct{}
	from    int
}

// NewRevisions creates an idle bar drawing on out; Begin starts it.
func NewRevisions(out io.Writer) *Revisions {
	return &Revisions{out: out}
}

// Begin starts the bar for [from, to]. An empty interval shows nothing.
func (r *Revisions) Begin(from, to int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if to < from || r.program != nil {
		return
	}
	r.from = from
	r.updates = make(chan revisionMsg, 64)
	r.stopped = make(chan struct{})

	program := tea.NewProgram(newBarModel(from, to, r.updates),
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithOutput(r.out),
		tea.WithColorProfile(colorprofile.Detect(r.out, os.Environ())),
	)
	r.program = program
	stopped := r.stopped
	go func() {
		_, _ = program.Run()
		close(stopped)
	}()
}

// Skipped advances past a filtered revision.
func (r *Revisions) Skipped(rev int) {
	r.send(revisionMsg{done: rev - r.from + 1, rev: rev, skipped: true})
}

// Exporting shows the revision being exported.
func (r *Revisions) Exporting(rev int) {
	r.send(revisionMsg{done: rev - r.from, rev: rev})
}

// send drops the update when the bar is busy; the next one catches up.
func (r *Revisions) send(u revisionMsg) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program == nil {
		return
	}
	select {
	case r.updates <- u:
	default:
	}
}

// Finished stops the bar and clears its line.
func (r *Revisions) Finished() {
	r.mu.Lock()
	if r.program == nil {
		r.mu.Unlock()
		return
	}
	program := r.program
	r.program = nil
	close(r.updates)
	r.mu.Unlock()

	program.Quit()
	select {
	case <-r.stopped:
	case <-time.After(500 * time.Millisecond):
	}
	fmt.Fprint(r.out, "\r\033[K")
}
