// Package render prints reconstructed series to a terminal, colouring each
// value by its health status. Two layouts are provided: a compact text
// layout and a boxed table layout.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/SolR3/Vali-Weight-Intervals/internal/health"
	"github.com/SolR3/Vali-Weight-Intervals/internal/series"
)

// ANSI styles per status. Colour is applied after padding so column widths
// stay aligned.
const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// Options controls the output layout.
type Options struct {
	// Table switches from the text layout to the boxed table layout.
	Table bool

	// NoColor disables ANSI colour codes (for piped output).
	NoColor bool
}

// Renderer writes per-subnet series reports.
type Renderer struct {
	out  io.Writer
	thr  health.Thresholds
	opts Options
}

// New returns a Renderer writing to out.
func New(out io.Writer, thr health.Thresholds, opts Options) *Renderer {
	return &Renderer{out: out, thr: thr, opts: opts}
}

// Render prints one report section per netuid, in the given order. Subnets
// absent from data are reported as failed; present subnets with no samples
// are reported as not running the validator.
func (r *Renderer) Render(netuids []int, data map[int]*series.ValidatorSeries) {
	for _, netuid := range netuids {
		vs, ok := data[netuid]
		switch {
		case !ok:
			fmt.Fprintf(r.out, "\n%s\n",
				r.paint(fmt.Sprintf("Failed to obtain data for subnet %d", netuid), health.StatusError))
		case vs.Len() == 0:
			fmt.Fprintf(r.out, "\n%s\n",
				r.paint(fmt.Sprintf("Validator not running on subnet %d", netuid), health.StatusError))
		case r.opts.Table:
			r.renderTable(netuid, vs)
		default:
			r.renderText(netuid, vs)
		}
	}
}

// cell is one padded, status-coloured value.
type cell struct {
	text   string
	status health.Status
}

// rows lays the series out as two parallel rows of equal-width cells,
// oldest sample first so the most recent value reads rightmost.
func (r *Renderer) rows(vs *series.ValidatorSeries) (updated, vtrust []cell) {
	for i := vs.Len() - 1; i >= 0; i-- {
		bd := vs.BlockData[i]

		u := fmt.Sprintf("%d", bd.Updated)
		v := fmt.Sprintf("%.3f", bd.Vtrust)
		width := len(u)
		if len(v) > width {
			width = len(v)
		}

		updated = append(updated, cell{
			text:   fmt.Sprintf("%*s", width, u),
			status: r.thr.ClassifyUpdated(bd.Updated),
		})
		vtrust = append(vtrust, cell{
			text:   fmt.Sprintf("%*s", width, v),
			status: r.thr.ClassifyVtrust(bd.Vtrust, bd.AvgVtrust),
		})
	}
	return updated, vtrust
}

func (r *Renderer) renderText(netuid int, vs *series.ValidatorSeries) {
	fmt.Fprintf(r.out, "\nSubnet %d (%s):\n", netuid, emissionLabel(vs))

	updated, vtrust := r.rows(vs)
	fmt.Fprintf(r.out, "Updated blocks:")
	for _, c := range updated {
		fmt.Fprintf(r.out, "  %s", r.paint(c.text, c.status))
	}
	fmt.Fprintf(r.out, "\nVtrust values: ")
	for _, c := range vtrust {
		fmt.Fprintf(r.out, "  %s", r.paint(c.text, c.status))
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) renderTable(netuid int, vs *series.ValidatorSeries) {
	fmt.Fprintf(r.out, "\nSubnet %d (%s):\n", netuid, emissionLabel(vs))

	updated, vtrust := r.rows(vs)
	labelWidth := len("Updated")

	var sep strings.Builder
	sep.WriteString("+" + strings.Repeat("-", labelWidth+2))
	for _, c := range updated {
		sep.WriteString("+" + strings.Repeat("-", len(c.text)+2))
	}
	sep.WriteString("+")

	fmt.Fprintln(r.out, sep.String())
	r.tableRow("Updated", labelWidth, updated)
	r.tableRow("Vtrust", labelWidth, vtrust)
	fmt.Fprintln(r.out, sep.String())
}

func (r *Renderer) tableRow(label string, labelWidth int, cells []cell) {
	fmt.Fprintf(r.out, "| %-*s ", labelWidth, label)
	for _, c := range cells {
		fmt.Fprintf(r.out, "| %s ", r.paint(c.text, c.status))
	}
	fmt.Fprintln(r.out, "|")
}

// paint wraps text in the ANSI colour for status.
func (r *Renderer) paint(text string, status health.Status) string {
	if r.opts.NoColor {
		return text
	}
	switch status {
	case health.StatusError:
		return ansiRed + text + ansiReset
	case health.StatusWarning:
		return ansiYellow + text + ansiReset
	default:
		return ansiGreen + text + ansiReset
	}
}

func emissionLabel(vs *series.ValidatorSeries) string {
	if vs.SubnetEmission == nil {
		return "-.--%"
	}
	return fmt.Sprintf("%.2f%%", *vs.SubnetEmission)
}
