package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/isro-crawler/internal/sources"
)

// Result is the outcome of one source.
type Result struct {
	Name     string
	Label    string
	Count    int
	Outputs  []string
	Status   string
	Err      error
	Duration time.Duration
}

// Saved renders the single-source completion line.
func (r Result) Saved() string {
	return fmt.Sprintf("Saved %d %s", r.Count, r.Label)
}

// Summary is the outcome of a run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

// Failed returns the results that carry an error.
func (s Summary) Failed() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

var shortNames = map[string]string{
	sources.SpacecraftMissions: "Spacecraft",
	sources.LaunchMissions:     "Launches",
	sources.TimelineLinks:      "Timeline",
	sources.UpcomingMissions:   "Upcoming",
	sources.News:               "News",
	sources.LaunchVehicleSpecs: "Specs",
	sources.MissionDetails:     "Missions",
}

func shortName(name string) string {
	if s, ok := shortNames[name]; ok {
		return s
	}
	return name
}

// Line renders the combined one-line summary, e.g.
// "Done. Spacecraft: 120, Launches: 98, Timeline: 40".
func (s Summary) Line() string {
	parts := make([]string, 0, len(s.Results))
	for _, r := range s.Results {
		parts = append(parts, fmt.Sprintf("%s: %d", shortName(r.Name), r.Count))
	}
	line := "Done. " + strings.Join(parts, ", ")
	if failed := s.Failed(); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, r.Name)
		}
		line += fmt.Sprintf(" (failed: %s)", strings.Join(names, ", "))
	}
	return line
}

// WriteTable renders the per-source results as a table.
func (s Summary) WriteTable(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Run %s", s.RunID)
	t.AppendHeader(table.Row{"Source", "Records", "Status", "Duration", "Outputs", "Error"})
	total := 0
	for _, r := range s.Results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		t.AppendRow(table.Row{
			r.Name,
			r.Count,
			r.Status,
			r.Duration.Round(time.Millisecond),
			strings.Join(r.Outputs, "\n"),
			errText,
		})
		total += r.Count
	}
	t.AppendFooter(table.Row{"Total", total})
	t.Render()
}
