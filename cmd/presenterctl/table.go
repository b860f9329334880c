package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"worship-presenter/internal/scene"
	"worship-presenter/internal/syncproto"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func frameRows(f syncproto.Frame) [][]string {
	if f.Waiting {
		return [][]string{{"status", "waiting for presenter"}}
	}
	slide := "-"
	if f.Slide != nil {
		slide = f.Slide.ID
		if f.Slide.Title != "" {
			slide += " (" + f.Slide.Title + ")"
		}
	}
	rows := [][]string{
		{"slide", fmt.Sprintf("%d %s", f.SlideIndex, slide)},
		{"live", onOff(f.IsLive)},
		{"black", onOff(f.IsBlack)},
		{"logo", fmt.Sprintf("%s at %.1f,%.1f size %.0f", onOff(f.Logo.Visible), f.Logo.Position.X, f.Logo.Position.Y, f.Logo.Size)},
	}
	if f.Styles.Font != nil {
		rows = append(rows, []string{"font", fmt.Sprintf("%s %dpx %s", f.Styles.Font.Family, f.Styles.Font.SizePx, f.Styles.Font.Color)})
	}
	for _, p := range f.Props {
		rows = append(rows, []string{"prop", fmt.Sprintf("%s %s %q", p.ID, p.Type, p.Config.Content)})
	}
	for _, o := range f.TextOverlays {
		rows = append(rows, []string{"text", fmt.Sprintf("%s %q at %.1f,%.1f", o.ID, o.Text, o.Position.X, o.Position.Y)})
	}
	for _, o := range f.ImageOverlays {
		rows = append(rows, []string{"image", fmt.Sprintf("%s %s at %.1f,%.1f", o.ID, o.URL, o.Position.X, o.Position.Y)})
	}
	if f.VideoBackground != nil {
		rows = append(rows, []string{"video", f.VideoBackground.URL})
	}
	return rows
}

func renderFrame(f syncproto.Frame) string {
	return renderTable([]string{"Field", "Value"}, frameRows(f), nil)
}

func templateRows(templates []scene.Template) [][]string {
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		var auto, armed []string
		for _, p := range t.Look.Props {
			if p.Trigger == scene.TriggerAuto {
				auto = append(auto, p.Name)
			} else {
				armed = append(armed, p.Name)
			}
		}
		rows = append(rows, []string{
			t.ElementType,
			t.Look.Name,
			strconv.Itoa(len(t.Look.Props)),
			strings.Join(auto, ", "),
			strings.Join(armed, ", "),
		})
	}
	return rows
}
