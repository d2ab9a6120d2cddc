package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/CristiGvl/picoFanCtl/api"
	"github.com/CristiGvl/picoFanCtl/internal/config"
	"github.com/CristiGvl/picoFanCtl/internal/control"
	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/editor"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/preset"
	"github.com/CristiGvl/picoFanCtl/internal/remote"
	"github.com/CristiGvl/picoFanCtl/internal/render"
	"github.com/CristiGvl/picoFanCtl/internal/temps"
	"github.com/spf13/cobra"
)

// services holds the wired components for one invocation
type services struct {
	cfg     config.Config
	channel *fan.ModuleChannel
	duty    fan.DutyDevice
	svc     *control.Service
}

func newServices() (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	duty := fan.NewDutyDevice(cfg.Module.DutyPath)
	channel := fan.NewModuleChannel(
		cfg.Module,
		fan.ShellRunner{Prefix: cfg.PrivilegePrefix},
		temps.NewReader(cfg.ThermalZone),
		duty,
	)
	repo := preset.NewRepository(preset.NewStore(cfg.PresetsPath), cfg.Curve)

	return &services{
		cfg:     cfg,
		channel: channel,
		duty:    duty,
		svc:     control.NewService(repo, channel, cfg.Curve),
	}, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API and the websocket editor",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()
		cfg := rt.cfg

		server, err := api.NewServer(rt.svc, api.Options{
			Theme:        cfg.Theme,
			Render:       cfg.Render,
			Padding:      cfg.Padding,
			Density:      cfg.Editor.Density,
			ImageWidth:   800,
			ImageHeight:  500,
			PollInterval: cfg.PollInterval(),
		})
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		editors := remote.NewServer(rt.svc, remote.Config{
			Editor:       cfg.Editor,
			Padding:      cfg.Padding,
			Theme:        cfg.Theme,
			Render:       cfg.Render,
			PollInterval: cfg.PollInterval(),
		})
		mux := http.NewServeMux()
		mux.Handle("/ws/editor", editors)
		editorServer := &http.Server{
			Addr:              cfg.Server.EditorAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var governor *fan.Governor
		if cfg.Governor.Enabled {
			governor = fan.NewGovernor(rt.channel, rt.channel, rt.duty, cfg.GovernorInterval())
			governor.Start(ctx)
			log.Printf("Fan governor running every %s", cfg.GovernorInterval())
		}

		errs := make(chan error, 2)
		go func() {
			log.Printf("Starting editor websocket on %s", cfg.Server.EditorAddr)
			if err := editorServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("editor listener: %w", err)
			}
		}()
		go func() {
			log.Printf("Starting picoFanCtl server on %s", cfg.Server.Address())
			if err := server.Start(cfg.Server.Address()); err != nil {
				errs <- fmt.Errorf("api listener: %w", err)
			}
		}()

		var runErr error
		select {
		case <-ctx.Done():
			log.Printf("Shutting down")
		case runErr = <-errs:
		}

		if governor != nil {
			governor.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := editorServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during editor shutdown: %v", err)
		}
		editors.Close()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
		return runErr
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show fan control state, duty and temperature",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		ctx, cancel := commandContext()
		defer cancel()

		st, err := rt.svc.Status(ctx)
		if err != nil {
			return err
		}
		label, err := control.NewToggle(rt.svc).Label(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, label)
		fmt.Fprintf(out, "Temperature: %d°C\n", st.TemperatureCelsius)
		fmt.Fprintf(out, "Fan speed:   %d%% (duty %d)\n", st.Percent, st.Duty)
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage fan curve presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets, marking the last applied one",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		ctx, cancel := commandContext()
		defer cancel()

		presets, err := rt.svc.Presets(ctx)
		if err != nil {
			return err
		}
		current, err := rt.svc.Current(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range presets {
			mark := " "
			if p.ID == current.ID {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %-36s  %s\n", mark, p.ID, p)
		}
		return nil
	},
}

var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		ctx, cancel := commandContext()
		defer cancel()
		return rt.svc.Delete(ctx, args[0])
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Apply a preset to the fan controller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		ctx, cancel := commandContext()
		defer cancel()

		p, err := rt.svc.Apply(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", p)
		return nil
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn curve control on with the last applied preset",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		ctx, cancel := commandContext()
		defer cancel()

		p, err := rt.svc.Enable(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fan control enabled with %s\n", p)
		return nil
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Return the fan to stock behaviour",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		ctx, cancel := commandContext()
		defer cancel()

		if err := rt.svc.Disable(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Fan control disabled")
		return nil
	},
}

var (
	toggleSelect string
	toggleOff    bool
)

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Quick toggle: enable control or pick a preset",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		ctx, cancel := commandContext()
		defer cancel()

		toggle := control.NewToggle(rt.svc)
		out := cmd.OutOrStdout()

		switch {
		case toggleOff:
			if err := toggle.Disable(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Fan control disabled")
			return nil
		case toggleSelect != "":
			p, err := toggle.Select(ctx, toggleSelect)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Applied %s\n", p)
			return nil
		}

		res, err := toggle.Activate(ctx)
		if err != nil {
			return err
		}
		if res.Applied != nil {
			fmt.Fprintf(out, "Fan control enabled with %s\n", res.Applied)
			return nil
		}
		fmt.Fprintln(out, "Fan control is on. Choose a preset with --select <id>:")
		for _, p := range res.Presets {
			mark := " "
			if p.ID == res.ActiveID {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %-36s  %s\n", mark, p.ID, p)
		}
		return nil
	},
}

var (
	renderOut    string
	renderWidth  int
	renderHeight int
	renderDark   bool
)

var renderCmd = &cobra.Command{
	Use:   "render <id>",
	Short: "Render a preset curve to a PNG file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		ctx, cancel := commandContext()
		defer cancel()

		p, err := rt.svc.Preset(ctx, args[0])
		if err != nil {
			return err
		}
		c, err := p.Curve(rt.cfg.Curve)
		if err != nil {
			return err
		}
		if renderWidth <= 0 || renderHeight <= 0 {
			return fmt.Errorf("image size must be positive")
		}

		density := rt.cfg.Editor.Density
		m := editor.NewMapper(rt.cfg.Padding, density)
		m.Resize(float64(renderWidth), float64(renderHeight))
		theme := rt.cfg.Theme
		if cmd.Flags().Changed("dark") {
			theme.Dark = renderDark
		}
		scene := render.Render(c, m, editor.NoPoint, theme.Resolve(density), rt.cfg.Render)

		f, err := os.Create(renderOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", renderOut, err)
		}
		if err := render.EncodePNG(f, scene); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", renderOut)
		return nil
	},
}

var dutyPreset string

var dutyCmd = &cobra.Command{
	Use:   "duty <millicelsius>",
	Short: "Evaluate the duty a preset gives for a temperature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		milli, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid temperature %q: %w", args[0], err)
		}

		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		ctx, cancel := commandContext()
		defer cancel()

		var p preset.Preset
		if dutyPreset != "" {
			p, err = rt.svc.Preset(ctx, dutyPreset)
		} else {
			p, err = rt.svc.Current(ctx)
		}
		if err != nil {
			return err
		}
		c, err := p.Curve(rt.cfg.Curve)
		if err != nil {
			return err
		}

		duty := c.DutyForTemperature(milli)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d°C -> duty %d (%d%%)\n", p.Name, milli/1000, duty, curve.DutyToPercent(duty))
		return nil
	},
}

func init() {
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsDeleteCmd)

	toggleCmd.Flags().StringVar(&toggleSelect, "select", "", "Apply the preset with this id")
	toggleCmd.Flags().BoolVar(&toggleOff, "off", false, "Disable fan control")

	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "curve.png", "Output PNG file")
	renderCmd.Flags().IntVar(&renderWidth, "width", 800, "Image width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 500, "Image height in pixels")
	renderCmd.Flags().BoolVar(&renderDark, "dark", false, "Use the dark theme")

	dutyCmd.Flags().StringVar(&dutyPreset, "preset", "", "Preset id (defaults to the last applied preset)")
}
