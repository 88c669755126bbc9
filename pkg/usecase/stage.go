package usecase

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

var (
	bannerBegin   = color.New(color.FgWhite, color.Bold)
	bannerDone    = color.New(color.FgGreen)
	bannerFailed  = color.New(color.FgRed, color.Bold)
	bannerSkipped = color.New(color.FgYellow)
)

// console prints stage banners for the operator
type console struct {
	w io.Writer
}

func (c *console) begin(stage model.Stage) {
	_, _ = bannerBegin.Fprintf(c.w, "==> %s\n", stage)
}

func (c *console) done(stage model.Stage, d time.Duration) {
	_, _ = bannerDone.Fprintf(c.w, "==> %s done (%s)\n", stage, d.Round(time.Millisecond))
}

func (c *console) failed(stage model.Stage, err error) {
	_, _ = bannerFailed.Fprintf(c.w, "==> %s failed: %v\n", stage, err)
}

func (c *console) skipped(stage model.Stage) {
	_, _ = bannerSkipped.Fprintf(c.w, "==> %s skipped\n", stage)
}

func (c *console) summary(result *model.PipelineResult) {
	if result.Succeeded() {
		_, _ = bannerDone.Fprintf(c.w, "Released %s (run %s)\n", result.Version, result.RunID)
		return
	}
	_, _ = bannerFailed.Fprintf(c.w, "Release %s failed (run %s)\n", result.Version, result.RunID)
	for _, s := range result.Syncs {
		if s.Status == model.StatusFailed {
			_, _ = fmt.Fprintf(c.w, "  %s: %s\n", s.Repo, s.Error)
		}
	}
}
