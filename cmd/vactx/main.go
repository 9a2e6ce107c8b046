package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/vacontext"
	"github.com/xaionaro-go/vacontext/manager"
	"github.com/xaionaro-go/vacontext/surface"
	"github.com/xaionaro-go/vacontext/va"
	"github.com/xaionaro-go/vacontext/va/libva"
	"github.com/xaionaro-go/vacontext/va/vafake"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	configPath := pflag.String("config", "", "path to the YAML config with the contexts to provision")
	device := pflag.String("device", "", "the DRM render node to open (default: "+libva.DefaultDevice+")")
	useFake := pflag.Bool("fake", false, "use the in-memory driver instead of libva")
	printConfig := pflag.Bool("print-config", false, "print the effective config and exit")
	pflag.Parse()
	if len(pflag.Args()) != 0 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func(ctx context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = vacontext.ReadConfig(*configPath)
		if err != nil {
			l.Fatal(err)
		}
	}
	if *device != "" {
		cfg.Device = *device
	}
	logger.Tracef(ctx, "config: %s", spew.Sdump(cfg))

	if *printConfig {
		b, err := cfg.Bytes()
		if err != nil {
			l.Fatal(err)
		}
		os.Stdout.Write(b)
		return
	}

	closer := astikit.NewCloser()
	defer func() {
		if err := closer.Close(); err != nil {
			l.Errorf("unable to close: %v", err)
		}
	}()

	display, err := openDisplay(ctx, cfg, *useFake)
	if err != nil {
		l.Fatal(err)
	}
	closer.AddWithError(display.Close)

	factory := manager.NewFactory(display)
	closer.AddWithError(factory.Close)

	for _, contextCfg := range cfg.Contexts {
		if err := provision(ctx, factory, contextCfg); err != nil {
			l.Errorf("context '%s': %v", contextCfg.Name, err)
		}
	}
}

func openDisplay(
	ctx context.Context,
	cfg *vacontext.Config,
	useFake bool,
) (*va.Display, error) {
	if useFake || (cfg.Device == "" && cfg.FakeDriver != nil) {
		drv := vafake.New()
		if cfg.FakeDriver != nil {
			for _, c := range cfg.FakeDriver.Capabilities {
				drv.SetCapability(c.Profile.VAProfile(), c.EntryPoint.VAEntrypoint(), vafake.Capability(c.Attributes()))
			}
		}
		logger.Debugf(ctx, "using the in-memory driver: %s", drv)
		return va.NewDisplay(drv, nil), nil
	}

	drv, err := libva.Open(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("unable to open the display: %w", err)
	}
	return va.NewDisplay(drv, drv), nil
}

func provision(
	ctx context.Context,
	factory *manager.Factory,
	cfg vacontext.ContextConfig,
) (_err error) {
	logger.Debugf(ctx, "provision(ctx, '%s')", cfg.Name)
	defer func() { logger.Debugf(ctx, "/provision(ctx, '%s'): %v", cfg.Name, _err) }()

	c, err := factory.NewContext(ctx, cfg.Descriptor)
	if err != nil {
		return err
	}
	defer c.Close(ctx)
	report(cfg.Name, c)

	for idx, d := range cfg.Resets {
		if err := c.Reset(ctx, d); err != nil {
			return fmt.Errorf("unable to reset (#%d) to %s: %w", idx, d, err)
		}
		report(cfg.Name, c)
	}

	for _, attrName := range cfg.Attributes {
		attrType, err := va.ParseConfigAttribType(attrName)
		if err != nil {
			return err
		}
		value, err := c.GetAttribute(ctx, attrType)
		if err != nil {
			fmt.Printf("%s: %s: %v\n", cfg.Name, attrType, err)
			continue
		}
		fmt.Printf("%s: %s: 0x%08x\n", cfg.Name, attrType, value)
	}
	return nil
}

func report(name string, c vacontext.Context) {
	d := c.GetDescriptor()
	footprint := surface.Footprint(d.Width, d.Height, surface.Count(d.RefFrames))
	fmt.Printf(
		"%s: %s: context:%s free surfaces:%d (~%s)\n",
		name, d, c.GetID(), c.GetSurfaceCount(), humanize.IBytes(footprint),
	)
}

func defaultConfig() *vacontext.Config {
	d := vacontext.Descriptor{
		Profile:     vacontext.ProfileH264High,
		EntryPoint:  vacontext.EntryPointSliceEncode,
		Width:       1920,
		Height:      1080,
		RefFrames:   2,
		RateControl: vacontext.RateControlCBR,
	}
	resized := d
	resized.Width, resized.Height = 1280, 720
	return &vacontext.Config{
		Contexts: []vacontext.ContextConfig{{
			Name:       "h264-encode",
			Descriptor: d,
			Resets:     []vacontext.Descriptor{resized},
			Attributes: []string{
				va.ConfigAttribRTFormat.String(),
				va.ConfigAttribEncMaxRefFrames.String(),
			},
		}},
		FakeDriver: &vacontext.FakeDriverConfig{
			Capabilities: []vacontext.FakeCapability{{
				Profile:      vacontext.ProfileH264High,
				EntryPoint:   vacontext.EntryPointSliceEncode,
				RateControls: []vacontext.RateControl{vacontext.RateControlNone, vacontext.RateControlCBR, vacontext.RateControlVBR},
			}},
		},
	}
}
