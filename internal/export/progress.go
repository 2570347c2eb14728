package export

import "github.com/raphi011/svn2git/internal/output"

// Progress observes the export loop. All calls come from the loop's goroutine.
type Progress interface {
	// Begin is called once before the first revision.
	Begin(from, to int)
	// Skipped is called for a revision the filter excludes.
	Skipped(rev int)
	// Exporting is called right before a revision is handed to the source.
	Exporting(rev int)
	// Finished is called once after the loop, before finalization.
	Finished()
}

// Nop ignores every event.
type Nop struct{}

func (Nop) Begin(int, int) {}
func (Nop) Skipped(int)    {}
func (Nop) Exporting(int)  {}
func (Nop) Finished()      {}

// DotProgress prints one dot per filtered-out revision and ends the dot line
// when a listed revision is exported.
type DotProgress struct {
	Printer *output.Printer
}

func (d DotProgress) Begin(int, int) {}

func (d DotProgress) Skipped(int) {
	d.Printer.Dot()
}

func (d DotProgress) Exporting(int) {
	d.Printer.EndLine()
}

func (d DotProgress) Finished() {
	d.Printer.EndLine()
}

type multi []Progress

// Multi fans events out to every given Progress in order.
func Multi(ps ...Progress) Progress {
	return multi(ps)
}

func (m multi) Begin(from, to int) {
	for _, p := range m {
		p.Begin(from, to)
	}
}

func (m multi) Skipped(rev int) {
	for _, p := range m {
		p.Skipped(rev)
	}
}

func (m multi) Exporting(rev int) {
	for _, p := range m {
		p.Exporting(rev)
	}
}

func (m multi) Finished() {
	for _, p := range m {
		p.Finished()
	}
}
