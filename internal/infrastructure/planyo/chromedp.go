package planyo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// chromePage is a Page backed by a chromedp browser tab.
type chromePage struct {
	ctx     context.Context
	cancels []context.CancelFunc
	timeout time.Duration
	slowMo  time.Duration
}

// LaunchChrome starts an isolated Chrome (or attaches to opts.RemoteURL) with a fresh tab.
func LaunchChrome(opts LaunchOptions) (Page, error) {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
		)
		if opts.ExecPath != "" {
			execOpts = append(execOpts, chromedp.ExecPath(opts.ExecPath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), execOpts...)
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	p := &chromePage{
		ctx:     tabCtx,
		cancels: []context.CancelFunc{tabCancel, allocCancel},
		timeout: opts.StepTimeout,
		slowMo:  opts.SlowMo,
	}
	// Running no actions starts the browser.
	if err := p.run(); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (p *chromePage) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	if len(actions) > 0 && p.slowMo > 0 {
		actions = append(actions, chromedp.Sleep(p.slowMo))
	}
	return chromedp.Run(ctx, actions...)
}

func (p *chromePage) Navigate(url string) error {
	return p.run(chromedp.Navigate(url))
}

func (p *chromePage) Value(sel string) (string, error) {
	var v string
	err := p.run(chromedp.Value(sel, &v, chromedp.ByQuery))
	return v, err
}

func (p *chromePage) Text(sel string) (string, error) {
	var v string
	err := p.run(chromedp.TextContent(sel, &v, chromedp.ByQuery))
	return v, err
}

func (p *chromePage) Texts(sel string) ([]string, error) {
	var nodes []*cdp.Node
	if err := p.run(chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		var v string
		if err := p.run(chromedp.TextContent([]cdp.NodeID{n.NodeID}, &v, chromedp.ByNodeID)); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *chromePage) Fill(sel, value string) error {
	return p.run(
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.SetValue(sel, "", chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	)
}

func (p *chromePage) Blur(sel string) error {
	return p.run(chromedp.Blur(sel, chromedp.ByQuery))
}

func (p *chromePage) Check(sel string) error {
	var checked bool
	err := p.run(
		chromedp.WaitReady(sel, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el.checked) el.click();
	return el.checked;
})()`, jsString(sel)), &checked),
	)
	if err != nil {
		return err
	}
	if !checked {
		return fmt.Errorf("%s could not be checked", sel)
	}
	return nil
}

func (p *chromePage) Click(sel string) error {
	return p.run(chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible))
}

func (p *chromePage) ClickText(text string) error {
	xpath := fmt.Sprintf(`//*[contains(normalize-space(.), %q)][not(*[contains(normalize-space(.), %q)])]`, text, text)
	return p.run(chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible))
}

func (p *chromePage) SelectInGroup(groupSel, hasText, excludeText, value string) error {
	var ok bool
	err := p.run(
		chromedp.WaitReady(groupSel, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(`(() => {
	const has = %s.toLowerCase(), exclude = %s.toLowerCase();
	const group = [...document.querySelectorAll(%s)].find((g) => {
		const text = g.textContent.toLowerCase();
		return text.includes(has) && (exclude === "" || !text.includes(exclude));
	});
	const select = group && group.querySelector("select");
	if (!select) return false;
	select.value = %s;
	select.dispatchEvent(new Event("change", { bubbles: true }));
	return true;
})()`, jsString(hasText), jsString(excludeText), jsString(groupSel), jsString(value)), &ok),
	)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no select in %s containing %q", groupSel, hasText)
	}
	return nil
}

func (p *chromePage) WaitVisible(sel string) error {
	return p.run(chromedp.WaitVisible(sel, chromedp.ByQuery))
}

// Close shuts the tab and, for launched browsers, the browser process.
func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	for _, cancel := range p.cancels {
		cancel()
	}
	return err
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
