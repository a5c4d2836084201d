// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/schollz/progressbar/v3"
	"github.com/skipperhq/skipper"
	"github.com/skipperhq/skipper/httpreader"
	"github.com/woozymasta/pathrules"
)

var opts struct {
	Config  string         `short:"c" long:"config" description:"path to the device config file" default-mask:"/data/skipper/config.jsonc"`
	Slot    string         `short:"s" long:"slot" choice:"a" choice:"b" description:"redirect rootfs payloads to the given slot from the device config"`
	Only    []string       `long:"only" description:"deploy only payloads matching this pattern; may be repeated, others are drained and verified"`
	Timeout time.Duration  `long:"timeout" description:"per-request timeout for http sources" default:"30s"`
	Quiet   bool           `short:"q" long:"quiet" description:"suppress progress bars"`
	Args    struct {
		Source string `positional-arg-name:"source" description:"update archive: local file or http(s) URL" required:"yes"`
	} `positional-args:"yes"`
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}

		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf(`deploy "%s" error: %v`, opts.Args.Source, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	src, err := openSource(opts.Args.Source)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	deployOpts, err := buildDeployOptions()
	if err != nil {
		return err
	}

	archive, err := skipper.OpenWithOptions(src, deployOpts)
	if err != nil {
		return err
	}

	res, err := archive.Deploy(ctx)
	if err != nil {
		return err
	}

	log.Printf("deployed %d payload(s) (%s written, %d skipped) in %s",
		res.DeployedPayloads, humanize.IBytes(uint64(res.BytesWritten)), res.SkippedPayloads,
		res.Duration.Round(time.Millisecond))
	return nil
}

// openSource routes http(s) URLs through the ranged reader and everything
// else through os.Open.
func openSource(source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	optFns := []func(*httpreader.Options){
		httpreader.WithClient(&http.Client{}),
		httpreader.WithTimeout(opts.Timeout),
	}
	if !opts.Quiet {
		optFns = append(optFns, httpreader.WithProgressLogger(log.Default(), 5*time.Second))
	}

	r, err := httpreader.New(source, optFns...)
	if err != nil {
		return nil, err
	}

	log.Printf(`downloading "%s" (%s)`, source, humanize.IBytes(uint64(r.Size())))
	return io.NopCloser(r), nil
}

func buildDeployOptions() (skipper.DeployOptions, error) {
	var deployOpts skipper.DeployOptions

	for _, pattern := range opts.Only {
		deployOpts.Select = append(deployOpts.Select, pathrules.Rule{
			Action:  pathrules.ActionInclude,
			Pattern: pattern,
		})
	}

	if opts.Slot != "" {
		cfg, err := skipper.LoadConfig(opts.Config)
		if err != nil {
			return deployOpts, err
		}

		slotDest, err := cfg.Slot(opts.Slot)
		if err != nil {
			return deployOpts, err
		}

		// Only destinations that name a configured rootfs slot are redirected;
		// everything else deploys where the manifest says.
		deployOpts.MapDest = func(info skipper.PayloadInfo) string {
			if info.Dest == cfg.RootfsA || info.Dest == cfg.RootfsB {
				return slotDest
			}

			return info.Dest
		}
	}

	if !opts.Quiet {
		var bar *progressbar.ProgressBar
		deployOpts.OnChunk = func(filename string, written, total int64) {
			if bar == nil {
				bar = newBar(total, filename)
			}

			_ = bar.Set64(written)
		}
		deployOpts.OnPayloadDone = func(p skipper.PayloadProgress) {
			if bar != nil {
				_ = bar.Finish()
				bar = nil
			}

			if p.Skipped {
				log.Printf(`skipped "%s" (verified, not written)`, p.Filename)
				return
			}

			log.Printf(`wrote "%s" to "%s" (%s)`, p.Filename, p.Dest, humanize.IBytes(uint64(p.Written)))
		}
	}

	return deployOpts, nil
}

func newBar(maxBytes int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(maxBytes,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(1*time.Second),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true))
}
