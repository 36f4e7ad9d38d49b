package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// staleMessages are CDP error fragments raised when a node id no longer
// belongs to the live document.
var staleMessages = []string{
	"could not find node with given id",
	"no node with given id found",
	"node with given id does not belong to the document",
	"cannot find context with specified id",
	"execution context was destroyed",
}

// ChromeLauncher launches a local Chrome through chromedp
type ChromeLauncher struct{}

// NewChromeLauncher creates a new chromedp-backed launcher
func NewChromeLauncher() *ChromeLauncher {
	return &ChromeLauncher{}
}

// Launch starts a new Chrome process with the given configuration
func (l *ChromeLauncher) Launch(ctx context.Context, cfg Config) (Driver, error) {
	// The browser outlives the request context on purpose; Session.Release
	// owns teardown.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), cfg.allocatorOptions()...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	d := &chromeDriver{
		ctx:         taskCtx,
		cancel:      taskCancel,
		allocCancel: allocCancel,
	}

	// First Run allocates the browser; it must not carry a timeout or the
	// whole browser is torn down when that timeout fires. ctx is watched
	// from outside instead, and tears the allocator down if it ends first.
	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(taskCtx)
	}()

	select {
	case err := <-started:
		if err != nil {
			d.Close() //nolint:errcheck
			return nil, fmt.Errorf("start chrome: %w", err)
		}
	case <-ctx.Done():
		d.Close() //nolint:errcheck
		return nil, fmt.Errorf("start chrome: %w", ctx.Err())
	}

	return d, nil
}

type chromeDriver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// run executes actions on the browser context, bounded by the caller's deadline
func (d *chromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := d.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(d.ctx, deadline)
		defer cancel()
	}

	err := chromedp.Run(runCtx, actions...)
	if err != nil && runCtx.Err() != nil && d.ctx.Err() == nil {
		return runCtx.Err()
	}
	return classify(err)
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

func (d *chromeDriver) Location(ctx context.Context) (string, error) {
	var location string
	err := d.run(ctx, chromedp.Location(&location))
	return location, err
}

func (d *chromeDriver) Exists(ctx context.Context, selector string) (bool, error) {
	nodes, err := d.query(ctx, selector)
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (d *chromeDriver) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	nodes, err := d.query(ctx, selector)
	if err != nil || len(nodes) == 0 {
		return "", false, err
	}

	// Read through the protocol rather than the cached node so a replaced
	// element surfaces as stale instead of returning an old value.
	var attrs []string
	err = d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		attrs, err = dom.GetAttributes(nodes[0].NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", false, err
	}

	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == name {
			return attrs[i+1], true, nil
		}
	}
	return "", false, nil
}

func (d *chromeDriver) SetValue(ctx context.Context, selector, value string) error {
	return d.run(ctx, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

func (d *chromeDriver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (d *chromeDriver) HTML(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (d *chromeDriver) Close() error {
	var err error
	if d.ctx != nil && d.ctx.Err() == nil {
		err = chromedp.Cancel(d.ctx)
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
	return err
}

// query looks up matching nodes without waiting for them to appear
func (d *chromeDriver) query(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)))
	return nodes, err
}

// classify maps protocol errors about detached nodes to ErrStaleElement
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range staleMessages {
		if strings.Contains(msg, fragment) {
			return fmt.Errorf("%w: %v", ErrStaleElement, err)
		}
	}
	return err
}
