package intercept

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/penwyp/go-claude-spend/internal/classify"
	"github.com/penwyp/go-claude-spend/internal/core/model"
	"github.com/penwyp/go-claude-spend/internal/core/pricing"
	"github.com/penwyp/go-claude-spend/internal/extract"
	"github.com/penwyp/go-claude-spend/internal/sink"
	"github.com/penwyp/go-claude-spend/internal/util"
)

// previewLen bounds the request excerpt stored with each record.
const previewLen = 80

// Observer turns one observed response into at most one call record:
// extract usage, classify the originator, estimate cost, append to
// the sink. All of it runs detached from the caller's read path.
type Observer struct {
	sink      *sink.Sink
	estimator *pricing.Estimator
}

// NewObserver wires an observer to its sink and estimator. A nil
// estimator falls back to the static pricing table.
func NewObserver(s *sink.Sink, estimator *pricing.Estimator) *Observer {
	return &Observer{sink: s, estimator: estimator}
}

// ObserveBody returns a replacement body that delivers the original
// bytes to the caller unchanged while feeding a second copy to a
// detached accounting goroutine. Neither side buffers more than the
// pipe window, and the caller is never delayed by extraction.
func (o *Observer) ObserveBody(body io.ReadCloser, req *model.CompletionRequest, start time.Time) io.ReadCloser {
	pr, pw := io.Pipe()
	streaming := req != nil && req.Stream

	go o.drain(pr, req, streaming, start)

	return &teeBody{
		body: body,
		tee:  io.TeeReader(body, pw),
		pw:   pw,
	}
}

// drain consumes the duplicated body to completion and writes the
// record. Every failure mode in here is swallowed: observation can
// never change the outcome of the call it observes.
func (o *Observer) drain(pr *io.PipeReader, req *model.CompletionRequest, streaming bool, start time.Time) {
	defer func() {
		if r := recover(); r != nil {
			util.LogDebug(fmt.Sprintf("Recovered accounting panic: %v", r))
		}
		// Unblock the tee in case extraction bailed early.
		_, _ = io.Copy(io.Discard, pr)
		pr.Close()
	}()

	var usage model.Usage
	var respModel string
	var err error

	if streaming {
		respModel, usage, err = extract.FromStream(pr)
	} else {
		var body []byte
		body, err = io.ReadAll(pr)
		if err == nil {
			respModel, usage, err = extract.FromResponse(body)
		}
	}
	if err != nil {
		util.LogDebug(fmt.Sprintf("Usage extraction incomplete: %v", err))
	}
	if usage.IsZero() {
		// A call that never resolved usage produces no record.
		return
	}

	modelName := respModel
	if modelName == "" && req != nil {
		modelName = req.Model
	}
	if modelName == "" {
		modelName = model.ModelDefault
	}

	rec := model.CallRecord{
		Timestamp:        start.Unix(),
		Model:            modelName,
		Context:          classify.Classify(req),
		Preview:          util.TruncateText(req.FirstUserText(), previewLen),
		InputTokens:      usage.InputTokens,
		OutputTokens:     usage.OutputTokens,
		CacheReadTokens:  usage.CacheReadInputTokens,
		CacheWriteTokens: usage.CacheCreationInputTokens,
		Cost:             o.estimator.Estimate(context.Background(), modelName, usage),
		LatencyMs:        time.Since(start).Milliseconds(),
		Stream:           streaming,
	}

	if o.sink != nil {
		o.sink.Append(rec)
	}
	util.LogDebug(fmt.Sprintf("Recorded call: model=%s context=%s cost=%.6f stream=%t",
		rec.Model, rec.Context, rec.Cost, rec.Stream))
}

// teeBody hands the caller an intact stream while copying every byte
// into the pipe feeding the accounting goroutine.
type teeBody struct {
	body io.ReadCloser
	tee  io.Reader
	pw   *io.PipeWriter
}

func (t *teeBody) Read(p []byte) (int, error) {
	n, err := t.tee.Read(p)
	if err == io.EOF {
		t.pw.Close()
	} else if err != nil {
		t.pw.CloseWithError(err)
	}
	return n, err
}

// Close closes the real body and finishes the duplicate. An early
// close (caller abandoned the stream) lets the drain goroutine see a
// clean end of input and run to completion on what was delivered.
func (t *teeBody) Close() error {
	err := t.body.Close()
	t.pw.Close()
	return err
}
