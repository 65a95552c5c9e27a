// Package presenter renders progress, achievements and the activity heatmap
// for the terminal.
package presenter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/application/session"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/achievement"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/activity"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOAST
// ══════════════════════════════════════════════════════════════════════════════

// FormatToast renders an unlock as a bordered toast. It matches
// notification.Formatter.
func FormatToast(u achievement.Unlock) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		Hot.Render("🏆 Achievement Unlocked"),
		fmt.Sprintf("%s %s", u.Icon, lipgloss.NewStyle().Bold(true).Render(u.Name)),
		Muted.Render(u.Description),
	)
	return Toast.Render(body)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const barLength = 20

// FormatProgressBar renders "[████░░░░] 40%".
func FormatProgressBar(v progress.View) string {
	filled := v.Percent.Rounded() * barLength / 100
	if filled > barLength {
		filled = barLength
	}
	if filled < 0 {
		filled = 0
	}
	bar := Done.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", barLength-filled))
	return fmt.Sprintf("[%s] %d%%", bar, v.Percent.Rounded())
}

// FormatCourse renders a course header with its progress.
func FormatCourse(course content.Folder, v progress.View, tags []string) string {
	var sb strings.Builder
	sb.WriteString(Title.Render(course.Name))
	if len(tags) > 0 {
		sb.WriteString(" " + Muted.Render("#"+strings.Join(tags, " #")))
	}
	sb.WriteString("\n")
	if v.IsEmpty() {
		sb.WriteString(Muted.Render("no lessons"))
		return sb.String()
	}
	sb.WriteString(FormatProgressBar(v))
	sb.WriteString(Muted.Render(fmt.Sprintf("  %d/%d lessons", v.CompletedCount, v.Total)))
	return sb.String()
}

// LessonRow is one line of a course listing.
type LessonRow struct {
	Lesson    content.Lesson
	Completed bool
	Current   bool
}

// FormatLessons renders the lessons of a course with completion marks.
func FormatLessons(rows []LessonRow) string {
	var sb strings.Builder
	for i, r := range rows {
		mark := Muted.Render("○")
		if r.Completed {
			mark = Done.Render("✓")
		}
		title := r.Lesson.Title()
		if r.Current {
			title = Hot.Render("▶ " + title)
		}
		fmt.Fprintf(&sb, "%s %2d. %s\n", mark, i+1, title)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// FormatOutcome summarises one playback operation. Unlocks are left to the
// notifier.
func FormatOutcome(out session.Outcome) string {
	var lines []string
	switch {
	case out.JustCompleted:
		lines = append(lines, Done.Render("✓ completed ")+content.FormatTitle(baseName(out.Path)))
	case out.Record.Completed:
		lines = append(lines, Muted.Render("already completed ")+content.FormatTitle(baseName(out.Path)))
	default:
		lines = append(lines, fmt.Sprintf("saved at %.0fs", out.Record.Position))
	}
	if out.CourseCompleted {
		lines = append(lines, Hot.Render("🎓 course complete: "+out.Course))
	}
	if out.StreakRecomputed {
		lines = append(lines, FormatStreak(out.Streak))
	}
	if out.Next != nil {
		lines = append(lines, Muted.Render("next: ")+out.Next.Title())
	}
	return strings.Join(lines, "\n")
}

// FormatStreak renders "🔥 3 day streak".
func FormatStreak(days int) string {
	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return Hot.Render(fmt.Sprintf("🔥 %d %s streak", days, unit))
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// FormatAchievements lists unlocked then locked achievements.
func FormatAchievements(unlocked, locked []achievement.Definition) string {
	var sb strings.Builder
	sb.WriteString(Title.Render(fmt.Sprintf("Achievements %d/%d", len(unlocked), len(unlocked)+len(locked))))
	for _, d := range unlocked {
		fmt.Fprintf(&sb, "\n%s %s %s", d.Icon, lipgloss.NewStyle().Bold(true).Render(d.Name), Muted.Render(d.Description))
	}
	for _, d := range locked {
		fmt.Fprintf(&sb, "\n%s %s", "🔒", Muted.Render(d.Name+"  "+d.Description))
	}
	return sb.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// HEATMAP
// ══════════════════════════════════════════════════════════════════════════════

var weekdayLabels = [7]string{"Mon", "", "Wed", "", "Fri", "", ""}

// FormatHeatmap renders the contribution graph: one column per week, one row
// per weekday from Monday, month labels on top.
func FormatHeatmap(h activity.Heatmap) string {
	weeks := h.Weeks()
	if len(weeks) == 0 {
		return Muted.Render("no activity yet")
	}

	const gutter = 4
	header := []rune(strings.Repeat(" ", gutter+len(weeks)*2))
	lastEnd := 0
	for _, m := range h.Months {
		col := gutter + m.Week*2
		if col < lastEnd {
			continue
		}
		for i, r := range []rune(m.Label) {
			if col+i < len(header) {
				header[col+i] = r
			}
		}
		lastEnd = col + len([]rune(m.Label)) + 1
	}

	var sb strings.Builder
	sb.WriteString(Muted.Render(strings.TrimRight(string(header), " ")))
	for day := 0; day < 7; day++ {
		sb.WriteString("\n")
		sb.WriteString(Muted.Render(fmt.Sprintf("%-*s", gutter, weekdayLabels[day])))
		for _, week := range weeks {
			if day >= len(week) || week[day].Future {
				sb.WriteString("  ")
				continue
			}
			level := week[day].Level
			sb.WriteString(heatLevels[level].Render(heatGlyphs[level]) + " ")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(Muted.Render(strings.Repeat(" ", gutter) + "less "))
	for level := range heatGlyphs {
		sb.WriteString(heatLevels[level].Render(heatGlyphs[level]) + " ")
	}
	sb.WriteString(Muted.Render("more"))
	return sb.String()
}

// FormatAnalytics renders the dashboard: stats, heatmap and achievements.
func FormatAnalytics(a session.Analytics) string {
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		Pane.Render(FormatStreak(a.Streak)),
		Pane.Render(fmt.Sprintf("longest %d", a.LongestStreak)),
		Pane.Render(fmt.Sprintf("%d lessons done", a.CompletedLessons)),
		Pane.Render(fmt.Sprintf("%d active days", a.ActiveDays)),
	)
	return strings.Join([]string{stats, FormatHeatmap(a.Heatmap), FormatAchievements(a.Unlocked, a.Locked)}, "\n\n")
}
