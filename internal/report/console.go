// Package report renders run progress and summaries for the terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/usecase"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	nameStyle    = lipgloss.NewStyle().Width(18)
	scoreStyle   = lipgloss.NewStyle().Width(8).Align(lipgloss.Right)
)

// Progress renders one finished category as a single line.
func Progress(res domain.CategoryResult) string {
	cat, _ := domain.CategoryByID(res.Category)
	label := fmt.Sprintf("%2d %s", res.Category, nameStyle.Render(cat.Name))

	if res.Succeeded() {
		return fmt.Sprintf("%s %s %s %s", okStyle.Render("✓"), label,
			scoreStyle.Render(fmt.Sprintf("%.2f", res.Score.Score)),
			mutedStyle.Render(fmt.Sprintf("(%d items, %s)", res.Score.ItemCount, res.Duration.Round(100*time.Millisecond))))
	}

	msg := "no result"
	if res.Failure != nil {
		msg = fmt.Sprintf("%s: %s", res.Failure.Kind, oneLine(res.Failure.Message))
	}
	return fmt.Sprintf("%s %s %s", failStyle.Render("✗"), label, mutedStyle.Render(msg))
}

// Summary renders the final score of a run with its outcome line.
func Summary(r usecase.RunReport) string {
	final := r.Final
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("%s (%s)", final.PoliticianName, final.PoliticianID)))
	b.WriteString(StatusLine(final) + "\n")

	for _, id := range final.Requested {
		cat, _ := domain.CategoryByID(id)
		score, ok := final.PerCategory[id]
		value := failStyle.Render("failed")
		if ok {
			value = fmt.Sprintf("%.2f", score)
		}
		fmt.Fprintf(&b, "  %2d %s %s\n", id, nameStyle.Render(cat.Name), scoreStyle.Render(value))
	}

	if final.Succeeded > 0 {
		fmt.Fprintf(&b, "%s %.2f\n", titleStyle.Render("Overall:"), final.OverallScore)
	}
	fmt.Fprintf(&b, "%s\n", mutedStyle.Render(fmt.Sprintf("items %d, official %.0f%%, public %.0f%%",
		final.TotalItems, final.OfficialRatio*100, final.PublicRatio*100)))

	if !final.Complete && len(final.Missing) > 0 {
		fmt.Fprintf(&b, "%s\n", partialStyle.Render(fmt.Sprintf("Incomplete: missing categories %v", final.Missing)))
	}
	if r.ArtifactPath != "" {
		fmt.Fprintf(&b, "Result file: %s\n", r.ArtifactPath)
	}
	if r.PersistErr != nil {
		fmt.Fprintf(&b, "%s\n", failStyle.Render("Database write failed: "+oneLine(r.PersistErr.Error())))
	}
	if r.EmitErr != nil {
		fmt.Fprintf(&b, "%s\n", failStyle.Render("Result file not written: "+oneLine(r.EmitErr.Error())))
	}
	return b.String()
}

// StatusLine states the three-tier outcome of a run.
func StatusLine(final domain.FinalScore) string {
	switch final.Status {
	case domain.RunComplete:
		return okStyle.Render("All categories succeeded")
	case domain.RunSubset:
		return partialStyle.Render(fmt.Sprintf("All %d requested categories succeeded, %d not evaluated", final.Succeeded, len(final.Missing)))
	case domain.RunPartial:
		return partialStyle.Render(fmt.Sprintf("%d of %d categories succeeded", final.Succeeded, len(final.Requested)))
	default:
		return failStyle.Render(fmt.Sprintf("%d of %d categories succeeded", final.Succeeded, len(final.Requested)))
	}
}

// StartFailure renders a run that never dispatched.
func StartFailure(err error) string {
	return failStyle.Render("Run failed to start: ") + oneLine(err.Error())
}

// Politicians renders the stored roster.
func Politicians(list []domain.Politician) string {
	if len(list) == 0 {
		return mutedStyle.Render("no politicians registered")
	}
	idStyle := lipgloss.NewStyle().Width(12)
	var b strings.Builder
	for _, p := range list {
		details := strings.Join(nonEmpty(p.Party, p.Region, p.Position), ", ")
		fmt.Fprintf(&b, "%s %s %s\n", idStyle.Render(p.ID), p.Name, mutedStyle.Render(details))
	}
	return b.String()
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 160 {
		s = string(r[:157]) + "..."
	}
	return s
}
