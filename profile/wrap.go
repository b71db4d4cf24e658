package profile

import "context"

// Wrap returns fn instrumented so that each call runs under a fresh profiler
// session covering exactly that invocation, with a report logged on exit.
func Wrap(name string, fn func() error, opts ...Option) func() error {
	return func() error {
		p := New(opts...)
		p.Start()
		stop := p.Span(name)
		defer func() {
			stop()
			p.Stop()
			p.logReport(name)
		}()
		return fn()
	}
}

// WrapContext is Wrap for context-taking functions.
func WrapContext(name string, fn func(context.Context) error, opts ...Option) func(context.Context) error {
	return func(ctx context.Context) error {
		p := New(opts...)
		p.Start()
		stop := p.Span(name)
		defer func() {
			stop()
			p.Stop()
			p.logReport(name)
		}()
		return fn(ctx)
	}
}

// Block profiles a single code block under a fresh session and logs the
// report on exit, including panic exits. The profiler is passed to fn so the
// block can open nested spans.
func Block(name string, fn func(p *Profiler), opts ...Option) {
	p := New(opts...)
	p.Start()
	stop := p.Span(name)
	defer func() {
		stop()
		p.Stop()
		p.logReport(name)
	}()
	fn(p)
}
