package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/browserctl/browserctl/browser"
	"github.com/browserctl/browserctl/launch"
)

func main() {
	app := &cli.App{
		Name:  "browserctl",
		Usage: "drive a browser over the DevTools protocol",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "The page URL to navigate to.",
				Value: "about:blank",
			},
			&cli.StringFlag{
				Name:  "ws-url",
				Usage: "Attach to an already-running browser's websocket debugger URL instead of launching one.",
			},
			&cli.StringFlag{
				Name:  "chrome-path",
				Usage: "Path to the Chrome/Chromium binary. Defaults to auto-discovery.",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Run the browser headless.",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "eval",
				Usage: "A JavaScript expression to evaluate after navigation; its value is printed as JSON.",
			},
			&cli.StringFlag{
				Name:  "screenshot",
				Usage: "File to write a PNG screenshot to after navigation.",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall deadline for the whole run.",
				Value: 60 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging.",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cliCtx *cli.Context) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	if !cliCtx.Bool("verbose") {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.InfoLevel))
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cliCtx.Duration("timeout"))
	defer cancel()

	wsURL := cliCtx.String("ws-url")
	if wsURL == "" {
		opts := []launch.Option{
			launch.WithLogger(logger),
			launch.WithHeadless(cliCtx.Bool("headless")),
		}
		if path := cliCtx.String("chrome-path"); path != "" {
			opts = append(opts, launch.WithPath(path))
		}
		chrome, err := launch.Launch(ctx, opts...)
		if err != nil {
			return fmt.Errorf("launching browser: %w", err)
		}
		defer chrome.Stop()
		wsURL = chrome.WebSocketDebuggerURL()
	}

	b, err := browser.Connect(ctx, wsURL, browser.WithLogger(logger))
	if err != nil {
		return err
	}
	defer b.Close(ctx)

	tab, err := b.NewTab(ctx, "")
	if err != nil {
		return fmt.Errorf("opening tab: %w", err)
	}
	defer tab.Close(ctx)

	url := cliCtx.String("url")
	if err := tab.NavigateTo(ctx, url); err != nil {
		return err
	}
	if err := tab.WaitUntilNavigated(ctx); err != nil {
		return err
	}

	if expr := cliCtx.String("eval"); expr != "" {
		obj, err := tab.Evaluate(ctx, expr)
		if err != nil {
			return err
		}
		out := obj.Value
		if out == nil {
			out = json.RawMessage(`null`)
		}
		fmt.Println(string(out))
	}

	if file := cliCtx.String("screenshot"); file != "" {
		png, err := tab.CaptureScreenshot(ctx, browser.ScreenshotOptions{FromSurface: true})
		if err != nil {
			return err
		}
		if err := os.WriteFile(file, png, 0o644); err != nil {
			return fmt.Errorf("writing screenshot: %w", err)
		}
		logger.Sugar().Infof("wrote screenshot to %s", file)
	}

	return nil
}
