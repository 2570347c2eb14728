package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"

	"github.com/raphi011/svn2git/internal/ui/styles"
)

// spinnerModel is the Bubbletea model behind Spinner.
type spinnerModel struct {
	spin  spinner.Model
	label string
	since time.Time
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() tea.View {
	elapsed := time.Since(m.since).Truncate(time.Second)
	return tea.NewView(fmt.Sprintf("%s %s %s", m.spin.View(), m.label, styles.MutedStyle.Render(elapsed.String())))
}

// Spinner animates while a phase without measurable progress runs, such
// as dumping and indexing the svn history.
type Spinner struct {
	out   io.Writer
	label string

	mu      sync.Mutex
	program *tea.Program
	stopped chan struct{}
}

// NewSpinner creates a spinner drawing label on out.
func NewSpinner(out io.Writer, label string) *Spinner {
	return &Spinner{out: out, label: label}
}

// Start begins the animation. Starting twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		return
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.PrimaryStyle

	s.stopped = make(chan struct{})
	program := tea.NewProgram(spinnerModel{spin: sp, label: s.label, since: time.Now()},
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithOutput(s.out),
		tea.WithColorProfile(colorprofile.Detect(s.out, os.Environ())),
	)
	s.program = program
	stopped := s.stopped
	go func() {
		_, _ = program.Run()
		close(stopped)
	}()
}

// Stop ends the animation and clears its line. Stopping an idle spinner
// is a no-op.
func (s *Spinner) Stop() {
	s.mu.Lock()
	program := s.program
	s.program = nil
	s.mu.Unlock()

	if program == nil {
		return
	}
	program.Quit()
	select {
	case <-s.stopped:
	case <-time.After(500 * time.Millisecond):
	}
	fmt.Fprint(s.out, "\r\033[K")
}
