// Package report renders run records as PDF and XLSX documents.
package report

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/runtime"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	red   = &props.Color{Red: 200}
	green = &props.Color{Green: 140}
)

// Generator renders run reports.
type Generator struct {
	// RunURL, when set, formats the link encoded as a QR code on PDFs.
	RunURL func(runID string) string
}

func NewGenerator(runURL func(runID string) string) *Generator {
	return &Generator{RunURL: runURL}
}

// PDF creates a one-document summary of run: outcome, calls and every
// observation in order.
func (g *Generator) PDF(run *domain.Run) ([]byte, error) {
	m := maroto.New()

	m.AddRows(
		row.New(20).Add(
			col.New(12).Add(
				text.New("API TEST RUN REPORT", props.Text{
					Align: align.Center,
					Size:  20,
					Style: fontstyle.Bold,
				}),
			),
		),
		row.New(10).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("Program: %s (%s)", run.ProgramName, shortHash(run.ProgramHash)), props.Text{
					Align: align.Center,
					Size:  12,
				}),
			),
		),
	)

	statusColor := green
	if run.Status != domain.RunPassed {
		statusColor = red
	}
	m.AddRows(
		row.New(10).Add(
			col.New(3).Add(text.New("Status:")),
			col.New(9).Add(text.New(string(run.Status), props.Text{Style: fontstyle.Bold, Color: statusColor})),
		),
		row.New(10).Add(
			col.New(3).Add(text.New("Started:")),
			col.New(9).Add(text.New(run.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"))),
		),
		row.New(10).Add(
			col.New(3).Add(text.New("Duration:")),
			col.New(9).Add(text.New(run.Duration().String())),
		),
	)
	if run.Failure != nil {
		m.AddRows(
			row.New(14).Add(
				col.New(3).Add(text.New("Failure:")),
				col.New(9).Add(text.New(fmt.Sprintf("%s at block %s: %s", run.Failure.Kind, run.Failure.BlockID, run.Failure.Message),
					props.Text{Color: red})),
			),
		)
	}

	m.AddRows(
		row.New(15).Add(
			col.New(12).Add(
				text.New("CALLS", props.Text{Style: fontstyle.Bold, Top: 5}),
			),
		),
	)
	for _, c := range run.Calls {
		status := strconv.Itoa(c.Status)
		if c.Error != "" {
			status = "error"
		}
		m.AddRows(
			row.New(10).Add(
				col.New(2).Add(text.New(c.BlockID)),
				col.New(2).Add(text.New(c.Method)),
				col.New(6).Add(text.New(c.URL)),
				col.New(2).Add(text.New(status, props.Text{Align: align.Right})),
			),
		)
	}

	m.AddRows(
		row.New(15).Add(
			col.New(12).Add(
				text.New("OBSERVATIONS", props.Text{Style: fontstyle.Bold, Top: 5}),
			),
		),
	)
	for _, l := range run.Lines {
		p := props.Text{Size: 9}
		if l.Level == runtime.LevelError {
			p.Color = red
		}
		m.AddRows(
			row.New(7).Add(
				col.New(2).Add(text.New(l.BlockID, props.Text{Size: 9})),
				col.New(10).Add(text.New(l.Text, p)),
			),
		)
	}

	if g.RunURL != nil && run.ID != "" {
		m.AddRows(
			row.New(40).Add(
				col.New(4).Add(
					code.NewQr(g.RunURL(run.ID), props.Rect{
						Percent: 100,
					}),
				),
				col.New(8).Add(
					text.New("Scan to open this run online.", props.Text{
						Top: 15,
					}),
				),
			),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return doc.GetBytes(), nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
