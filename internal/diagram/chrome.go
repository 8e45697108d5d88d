// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// =============================================================================
// HEADLESS BROWSER RENDERER
// =============================================================================

const (
	// DefaultMermaidScriptURL is loaded into the render page.
	DefaultMermaidScriptURL = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"

	// DefaultRenderTimeout bounds startup and each render call.
	DefaultRenderTimeout = 15 * time.Second
)

// ChromeOptions configures the headless browser renderer.
type ChromeOptions struct {
	ScriptURL string
	Timeout   time.Duration
	// ExecPath overrides browser discovery when set.
	ExecPath string
	Theme    string
}

// ChromeRenderer runs the real mermaid engine in one headless browser tab.
// Renders are serialized on that tab.
type ChromeRenderer struct {
	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	timeout       time.Duration
	seq           atomic.Uint64
	logger        *zap.Logger
}

// NewChromeRenderer launches the browser, loads the mermaid script, and
// initializes the engine. It fails if any step exceeds the timeout.
func NewChromeRenderer(opts ChromeOptions, logger *zap.Logger) (*ChromeRenderer, error) {
	if opts.ScriptURL == "" {
		opts.ScriptURL = DefaultMermaidScriptURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRenderTimeout
	}
	if opts.Theme == "" {
		opts.Theme = "dark"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	r := &ChromeRenderer{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		timeout:       opts.Timeout,
		logger:        logger.Named("chrome"),
	}

	// The first Run owns the browser process, so it gets the long-lived context.
	if err := chromedp.Run(browserCtx); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to start headless browser: %w", err)
	}

	startCtx, cancel := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var ready bool
	initJS := fmt.Sprintf(`mermaid.initialize({startOnLoad: false, securityLevel: 'strict', theme: %q}); true`, opts.Theme)
	err := chromedp.Run(startCtx,
		chromedp.Navigate("data:text/html,"+url.PathEscape(hostPage(opts.ScriptURL))),
		chromedp.Poll(`typeof window.mermaid !== 'undefined'`, &ready, chromedp.WithPollingTimeout(opts.Timeout)),
		chromedp.Evaluate(initJS, &ready),
	)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to load mermaid engine: %w", err)
	}

	r.logger.Info("mermaid engine ready", zap.String("script", opts.ScriptURL))
	return r, nil
}

func hostPage(scriptURL string) string {
	return `<!doctype html><html><head><meta charset="utf-8"></head><body>` +
		`<script src="` + scriptURL + `"></script></body></html>`
}

// Render implements Renderer. A rejected render promise is returned as an
// error; an error image is returned as output.
func (r *ChromeRenderer) Render(ctx context.Context, source string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := fmt.Sprintf("mm-%d", r.seq.Add(1))
	idJSON, _ := json.Marshal(id)
	srcJSON, err := json.Marshal(source)
	if err != nil {
		return "", fmt.Errorf("failed to encode diagram source: %w", err)
	}

	// mermaid leaves its scratch element behind on failure.
	expr := fmt.Sprintf(`(async () => {
  const id = %s;
  try {
    const out = await mermaid.render(id, %s);
    return out.svg;
  } finally {
    document.getElementById('d' + id)?.remove();
    document.getElementById(id)?.remove();
  }
})()`, idJSON, srcJSON)

	runCtx, cancel := context.WithTimeout(r.browserCtx, r.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var svg string
	err = chromedp.Run(runCtx, chromedp.Evaluate(expr, &svg, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("mermaid render failed: %w", err)
	}
	return svg, nil
}

// Close shuts down the browser.
func (r *ChromeRenderer) Close() error {
	r.browserCancel()
	r.allocCancel()
	return nil
}
