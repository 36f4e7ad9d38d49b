// Package browsertest provides a scripted in-memory browser.Driver for
// exercising session state machines without a real Chrome.
package browsertest

import (
	"context"
	"errors"
	"sync"

	"github.com/nexconsult/case-fetcher/internal/browser"
)

// Element is a scripted DOM node.
type Element struct {
	// Attrs holds static attribute values.
	Attrs map[string]string
	// Sequence holds attribute values returned on successive reads; the
	// last value sticks once the sequence is exhausted.
	Sequence map[string][]string
	// AppearAfter hides the element for the first N reads.
	AppearAfter int
	// StaleReads makes the next N reads (after it appears) fail as stale.
	StaleReads int

	reads int
}

// Driver is a scripted browser.Driver. Zero value is an empty page.
type Driver struct {
	mu sync.Mutex

	URL      string
	Elements map[string]*Element
	Markup   string

	// BlockNavigate makes Navigate wait until its context ends.
	BlockNavigate bool
	NavigateErr   error
	SetValueErr   error
	ClickErr      error
	HTMLErr       error
	CloseErr      error

	// OnClick runs after a successful click, e.g. to swap in result markup.
	OnClick func(d *Driver, selector string)

	Navigations []string
	Values      map[string]string
	Clicks      []string
	Closes      int
}

// NewDriver returns a driver with the given elements on the page
func NewDriver(elements map[string]*Element) *Driver {
	if elements == nil {
		elements = map[string]*Element{}
	}
	return &Driver{Elements: elements, Values: map[string]string{}}
}

// SetElement adds or replaces an element; safe to call from OnClick
func (d *Driver) SetElement(selector string, el *Element) {
	d.Elements[selector] = el
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	d.Navigations = append(d.Navigations, url)
	block, err := d.BlockNavigate, d.NavigateErr
	if err == nil && !block {
		d.URL = url
	}
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (d *Driver) Location(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.URL, nil
}

func (d *Driver) Exists(_ context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, err := d.read(selector)
	return el != nil, err
}

func (d *Driver) Attribute(_ context.Context, selector, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, err := d.read(selector)
	if err != nil || el == nil {
		return "", false, err
	}
	if seq := el.Sequence[name]; len(seq) > 0 {
		value := seq[0]
		if len(seq) > 1 {
			el.Sequence[name] = seq[1:]
		}
		return value, true, nil
	}
	value, ok := el.Attrs[name]
	return value, ok, nil
}

func (d *Driver) SetValue(_ context.Context, selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.SetValueErr != nil {
		return d.SetValueErr
	}
	if _, ok := d.Elements[selector]; !ok {
		return browser.ErrElementNotFound
	}
	if d.Values == nil {
		d.Values = map[string]string{}
	}
	d.Values[selector] = value
	return nil
}

func (d *Driver) Click(_ context.Context, selector string) error {
	d.mu.Lock()
	if d.ClickErr != nil {
		d.mu.Unlock()
		return d.ClickErr
	}
	if _, ok := d.Elements[selector]; !ok {
		d.mu.Unlock()
		return browser.ErrElementNotFound
	}
	d.Clicks = append(d.Clicks, selector)
	onClick := d.OnClick
	d.mu.Unlock()

	if onClick != nil {
		d.mu.Lock()
		onClick(d, selector)
		d.mu.Unlock()
	}
	return nil
}

func (d *Driver) HTML(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Markup, d.HTMLErr
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closes++
	return d.CloseErr
}

// CloseCount returns how many times Close was called
func (d *Driver) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Closes
}

func (d *Driver) read(selector string) (*Element, error) {
	el, ok := d.Elements[selector]
	if !ok {
		return nil, nil
	}
	el.reads++
	if el.reads <= el.AppearAfter {
		return nil, nil
	}
	if el.StaleReads > 0 {
		el.StaleReads--
		return nil, browser.ErrStaleElement
	}
	return el, nil
}

// Launcher hands out a fixed driver, or fails with Err.
type Launcher struct {
	mu       sync.Mutex
	Driver   *Driver
	Err      error
	Launches int

	// Hang, when set, makes Launch block until it is closed, ignoring ctx.
	Hang chan struct{}
}

// NewLauncher returns a launcher serving d
func NewLauncher(d *Driver) *Launcher {
	return &Launcher{Driver: d}
}

func (l *Launcher) Launch(context.Context, browser.Config) (browser.Driver, error) {
	l.mu.Lock()
	l.Launches++
	hang := l.Hang
	l.mu.Unlock()

	if hang != nil {
		<-hang
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	if l.Driver == nil {
		return nil, errors.New("browsertest: no driver configured")
	}
	return l.Driver, nil
}
