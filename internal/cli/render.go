package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/rcliao/expense-assistant/internal/model"
	"github.com/rcliao/expense-assistant/internal/pipeline"
)

type answerOutput struct {
	Session string `json:"session"`
	pipeline.Result
}

func printAnswer(w io.Writer, sessionID string, res pipeline.Result) {
	if !textFormat() {
		printJSON(w, answerOutput{Session: sessionID, Result: res})
		return
	}
	fmt.Fprintln(w, res.Text)
	if res.Chart != nil {
		fmt.Fprintln(w)
		renderChart(w, res.Chart)
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	t.SetBorder(true)
	t.SetHeader(header)
	return t
}

// renderChart prints a chart as a table with one row per label and one
// column per series.
func renderChart(w io.Writer, c *model.Chart) {
	fmt.Fprintln(w, c.Title)
	header := []string{""}
	for _, s := range c.Series {
		header = append(header, s.Name)
	}
	t := newTable(w, header...)
	for i, label := range c.Labels {
		row := []string{label}
		for _, s := range c.Series {
			v := ""
			if i < len(s.Values) {
				v = strconv.FormatFloat(s.Values[i], 'f', 2, 64)
			}
			row = append(row, v)
		}
		t.Append(row)
	}
	t.Render()
}

func renderEntries(w io.Writer, entries []model.MemoryEntry) {
	t := newTable(w, "Session", "Seq", "When", "Operation", "Query", "Answer")
	for _, e := range entries {
		t.Append([]string{
			e.SessionID,
			fmt.Sprint(e.Seq),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Operation,
			e.Query,
			firstLine(e.Answer),
		})
	}
	t.Render()
}

func renderSessions(w io.Writer, sessions []model.Session) {
	t := newTable(w, "ID", "Name", "Entries", "Updated", "Deleted")
	for _, s := range sessions {
		deleted := ""
		if s.DeletedAt != nil {
			deleted = s.DeletedAt.Local().Format("2006-01-02 15:04")
		}
		t.Append([]string{s.ID, s.Name, fmt.Sprint(s.Entries), s.UpdatedAt.Local().Format("2006-01-02 15:04"), deleted})
	}
	t.Render()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
