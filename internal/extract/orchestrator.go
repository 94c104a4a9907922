package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/finfacts/internal/document"
	"github.com/dgallion1/finfacts/internal/facts"
)

// Outcome describes how a document's extraction finished.
type Outcome struct {
	// Fallback is true when the returned record is the zero-filled
	// default rather than a parsed payload.
	Fallback bool
	// Reason explains the fallback, empty on success.
	Reason string
}

// Orchestrator drives one document through the remote extraction
// lifecycle: submit, poll to a terminal state, parse the first
// assistant message, release remote resources.
type Orchestrator struct {
	cap          Capability
	log          *slog.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewOrchestrator(cap Capability, log *slog.Logger, pollInterval, pollTimeout time.Duration) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Minute
	}
	return &Orchestrator{
		cap:          cap,
		log:          log,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

// Extract returns the canonical fact set for doc. Extraction failures
// of any kind (remote errors, timeouts, unparsable payloads) are not
// fatal: the fallback record is returned and the outcome says why.
// Remote resources allocated by Submit are released exactly once on
// every path.
func (o *Orchestrator) Extract(ctx context.Context, doc *document.Document) (facts.FactSet, Outcome) {
	log := o.log.With("document", doc.Name)

	sess, err := o.cap.Submit(ctx, doc)
	if err != nil {
		log.Error("extraction submit failed", "error", err)
		return facts.Default(), Outcome{Fallback: true, Reason: "submit: " + err.Error()}
	}
	defer func() {
		// Cleanup must run even when ctx is already done.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := o.cap.Cleanup(cleanupCtx, sess); err != nil {
			log.Error("extraction cleanup failed", "error", err)
		}
	}()

	status, err := o.pollUntilTerminal(ctx, sess)
	if err != nil {
		log.Error("extraction poll failed", "error", err)
		return facts.Default(), Outcome{Fallback: true, Reason: "poll: " + err.Error()}
	}
	if status != StatusCompleted {
		log.Warn("extraction run did not complete", "status", status)
		return facts.Default(), Outcome{Fallback: true, Reason: "run status: " + string(status)}
	}

	raw, err := o.cap.FetchResult(ctx, sess)
	if err != nil {
		log.Error("extraction fetch failed", "error", err)
		return facts.Default(), Outcome{Fallback: true, Reason: "fetch: " + err.Error()}
	}

	fs, err := facts.Parse([]byte(stripCodeBlock(raw)))
	if err != nil {
		log.Error("extraction payload unparsable, using fallback record", "error", err)
		return facts.Default(), Outcome{Fallback: true, Reason: "parse: " + err.Error()}
	}

	log.Info("extraction complete",
		"company", fs.DocumentInfo.CompanyName,
		"fiscal_year", fs.DocumentInfo.FiscalYear)
	return fs, Outcome{}
}

// pollUntilTerminal polls at a fixed interval under a deadline.
// Transient remote errors are retried with capped backoff.
func (o *Orchestrator) pollUntilTerminal(ctx context.Context, sess *Session) (RunStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, o.pollTimeout)
	defer cancel()

	retries := 0
	for {
		status, err := o.cap.Poll(ctx, sess)
		if err != nil {
			if IsRetryable(err) && retries < MaxRetries {
				o.log.Warn("retryable poll error", "attempt", retries, "error", err)
				if werr := wait(ctx, Backoff(retries)); werr != nil {
					return "", werr
				}
				retries++
				continue
			}
			return "", err
		}
		retries = 0

		if status.Terminal() {
			return status, nil
		}
		if err := wait(ctx, o.pollInterval); err != nil {
			return "", err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeBlock unwraps a payload the model fenced in markdown.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
