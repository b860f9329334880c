package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"worship-presenter/internal/models"
	"worship-presenter/internal/scene"
	"worship-presenter/internal/syncproto"
)

// printState fetches the frame after a control operation.
func printState(cmd *cobra.Command, ctx *commandContext) error {
	var frame syncproto.Frame
	if err := ctx.client().do(cmd.Context(), http.MethodGet, channelPath(ctx.channel, "frame"), nil, &frame); err != nil {
		return err
	}
	if ctx.json {
		return writeJSON(cmd, frame)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderFrame(frame))
	return nil
}

func newNavigateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <slide-index>",
		Short: "Move to a slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("slide index must be a number: %w", err)
			}
			body := models.NavigatePayload{SlideIndex: idx}
			if err := ctx.client().do(cmd.Context(), http.MethodPost, channelPath(ctx.channel, "navigate"), body, nil); err != nil {
				return err
			}
			return printState(cmd, ctx)
		},
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func newFlagCommand(ctx *commandContext, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <on|off>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			body := models.FlagPayload{Value: v}
			if err := ctx.client().do(cmd.Context(), http.MethodPost, channelPath(ctx.channel, name), body, nil); err != nil {
				return err
			}
			return printState(cmd, ctx)
		},
	}
}

func newLogoCommand(ctx *commandContext) *cobra.Command {
	var (
		visible string
		x, y    float64
		size    float64
		slide   int
		remove  bool
	)
	cmd := &cobra.Command{
		Use:   "logo",
		Short: "Change the logo globally or for one slide",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			if remove {
				if slide < 0 {
					return fmt.Errorf("--clear needs --slide")
				}
				path := channelPath(ctx.channel, "logo", "overrides", strconv.Itoa(slide))
				if err := client.do(cmd.Context(), http.MethodDelete, path, nil, nil); err != nil {
					return err
				}
				return printState(cmd, ctx)
			}

			var patch models.LogoOverride
			if cmd.Flags().Changed("visible") {
				v, err := parseOnOff(visible)
				if err != nil {
					return err
				}
				patch.Visible = &v
			}
			if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
				patch.Position = &models.Position{X: x, Y: y}
			}
			if cmd.Flags().Changed("size") {
				patch.Size = &size
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to change; pass --visible, --x/--y or --size")
			}

			var err error
			if slide >= 0 {
				err = client.do(cmd.Context(), http.MethodPut, channelPath(ctx.channel, "logo", "overrides", strconv.Itoa(slide)), patch, nil)
			} else {
				err = client.do(cmd.Context(), http.MethodPatch, channelPath(ctx.channel, "logo"), patch, nil)
			}
			if err != nil {
				return err
			}
			return printState(cmd, ctx)
		},
	}
	cmd.Flags().StringVar(&visible, "visible", "", "Show or hide the logo (on|off)")
	cmd.Flags().Float64Var(&x, "x", 0, "Horizontal position in percent")
	cmd.Flags().Float64Var(&y, "y", 0, "Vertical position in percent")
	cmd.Flags().Float64Var(&size, "size", 0, "Size in percent of the canvas width")
	cmd.Flags().IntVar(&slide, "slide", -1, "Override only this slide index")
	cmd.Flags().BoolVar(&remove, "clear", false, "Remove the override of --slide")
	return cmd
}

func newPropCommand(ctx *commandContext, name, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <prop-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := channelPath(ctx.channel, "props", args[0], action)
			if err := ctx.client().do(cmd.Context(), http.MethodPost, path, nil, nil); err != nil {
				return err
			}
			return printState(cmd, ctx)
		},
	}
}

func newStateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show what the outputs render",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printState(cmd, ctx)
		},
	}

	load := &cobra.Command{
		Use:   "load-slides <slides.json>",
		Short: "Replace the deck with the slides in a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var slides []models.SlideRef
			if err := json.Unmarshal(data, &slides); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			body := models.SlidesPayload{Slides: slides}
			if err := ctx.client().do(cmd.Context(), http.MethodPost, channelPath(ctx.channel, "slides"), body, nil); err != nil {
				return err
			}
			return printState(cmd, ctx)
		},
	}
	cmd.AddCommand(load)
	return cmd
}

type channelInfo struct {
	Name      string `json:"name"`
	Clients   int    `json:"clients"`
	Members   int    `json:"members"`
	Presenter bool   `json:"presenter"`
}

func newChannelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List open sync channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var channels []channelInfo
			if err := ctx.client().do(cmd.Context(), http.MethodGet, "/api/channels", nil, &channels); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, channels)
			}
			rows := make([][]string, 0, len(channels))
			for _, c := range channels {
				rows = append(rows, []string{c.Name, strconv.Itoa(c.Clients), strconv.Itoa(c.Members), onOff(c.Presenter)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Channel", "Clients", "Members", "Presenter"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newScenesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "Manage scene templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scene templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var templates []scene.Template
			if err := ctx.client().do(cmd.Context(), http.MethodGet, "/api/scenes", nil, &templates); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, templates)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Element type", "Look", "Props", "Auto", "Armed"},
				templateRows(templates),
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Import a scene catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var resp struct {
				Imported int `json:"imported"`
			}
			if err := ctx.client().doRaw(cmd.Context(), http.MethodPost, "/api/scenes/import", data, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d templates\n", resp.Imported)
			return nil
		},
	})
	return cmd
}
