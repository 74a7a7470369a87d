package slideshow

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultTransitionTime = 30
	timeLabelInterval     = 15 * time.Second
	timeLabelFormat       = "3:04"
)

// Runner advances the slideshow through its pages
type Runner struct {
	ss      *Screensaver
	now     func() time.Time
	current int
}

func newRunner(ss *Screensaver) *Runner {
	return &Runner{ss: ss, now: time.Now}
}

// Run pages through the slideshow until ctx is done
func (r *Runner) Run(ctx context.Context) {
	seconds := r.ss.prefs.GetInt("transitionTime", defaultTransitionTime)
	if seconds <= 0 {
		seconds = defaultTransitionTime
	}
	interval := time.Duration(seconds) * time.Second
	slog.Info("starting slideshow runner", "interval", interval)

	r.updateTime()
	r.show(r.current)

	transition := time.NewTicker(interval)
	defer transition.Stop()
	clock := time.NewTicker(timeLabelInterval)
	defer clock.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping slideshow runner")
			r.ss.views.Teardown()
			return
		case <-transition.C:
			r.step()
		case <-clock.C:
			r.updateTime()
		}
	}
}

func (r *Runner) updateTime() {
	if !r.ss.prefs.GetBool("showTime") {
		r.ss.SetTimeLabel("")
		return
	}
	r.ss.SetTimeLabel(r.now().Format(timeLabelFormat))
}

func (r *Runner) show(slot int) {
	r.current = slot
	r.ss.publish("selected", slot)
}

// step moves to the next page. Pages that failed to load are skipped; photos that
// cannot be recovered are marked bad and replaced.
func (r *Runner) step() {
	if r.ss.Paused() || r.ss.NoPhotos() {
		return
	}

	vs := r.ss.views
	n := vs.Len()
	if n == 0 || !vs.Photos().HasUsable() {
		r.ss.SetNoPhotos()
		return
	}

	if n == 1 {
		if !vs.Advance(0) {
			r.ss.SetNoPhotos()
			return
		}
		r.show(0)
		return
	}

	prev := r.current
	for range n - 1 {
		next := (r.current + 1) % n
		v, ok := vs.View(next)
		if !ok {
			return
		}
		if !v.IsError() {
			r.show(next)
			// the page just hidden gets the next photo in the rotation
			vs.Advance(prev)
			return
		}

		if p := v.Photo(); p != nil && !p.Type().Recoverable() {
			slog.Warn("photo failed to load, skipping", "photo", p.ID(), "url", v.URL())
			v.MarkPhotoBad()
			if r.ss.recorder != nil {
				r.ss.recorder.RecordMarkedBad(1)
			}
			if !vs.Photos().HasUsable() {
				r.ss.SetNoPhotos()
				return
			}
			vs.Advance(next)
		}
		// a recoverable page keeps its slot while its url is refreshed
		r.current = next
	}
	r.current = prev
}
