// Package notify delivers validation error reports to package owners.
//
// The runner decides whom to notify (see package cache); a [Notifier] only
// delivers. Delivery failures are returned to the caller, which logs them and
// carries on with the next owner.
package notify

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemahub/pkg/observability"
	"github.com/matzehuels/schemahub/pkg/registry"
)

// Notifier sends one owner the list of errors found in their packages.
type Notifier interface {
	Send(ctx context.Context, owner string, errs []*registry.ValidationError) error
}

// Message is a composed notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Compose builds the notification for owner. Errors are grouped by package
// in first-seen order.
func Compose(owner string, errs []*registry.ValidationError) Message {
	var slugs []string
	bySlug := map[string][]*registry.ValidationError{}
	for _, e := range errs {
		slug := e.Source.Slug()
		if _, ok := bySlug[slug]; !ok {
			slugs = append(slugs, slug)
		}
		bySlug[slug] = append(bySlug[slug], e)
	}

	subject := fmt.Sprintf("[schemahub] %d validation error", len(errs))
	if len(errs) != 1 {
		subject += "s"
	}
	if len(slugs) == 1 {
		subject += " in " + slugs[0]
	} else if len(slugs) > 1 {
		subject += fmt.Sprintf(" in %d packages", len(slugs))
	}

	var b strings.Builder
	b.WriteString("Hello,\n\n")
	b.WriteString("the schema registry could not publish some releases of your packages.\n")
	for _, slug := range slugs {
		fmt.Fprintf(&b, "\n%s\n", slug)
		for _, e := range bySlug[slug] {
			ver := e.Version()
			if ver == "" {
				ver = "-"
			}
			fmt.Fprintf(&b, "  - [%s] %s: %s\n", ver, e.Code, e.Detail)
		}
	}
	b.WriteString("\nFix the listed releases (or tag a new one) and the registry will pick them up on its next run.\n")
	b.WriteString("You will not be notified again until the list of errors changes.\n")

	return Message{To: owner, Subject: subject, Body: b.String()}
}

// LogNotifier writes notifications to a logger instead of delivering them.
type LogNotifier struct {
	Logger *log.Logger
}

// NewLogNotifier returns a notifier logging through logger.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, owner string, errs []*registry.ValidationError) error {
	msg := Compose(owner, errs)
	if n.Logger != nil {
		n.Logger.Info("notification", "owner", owner, "subject", msg.Subject, "errors", len(errs))
		for _, e := range errs {
			n.Logger.Debug("  "+e.Line(), "owner", owner)
		}
	}
	observability.Notify().OnSend(ctx, owner, len(errs), nil)
	return nil
}

// Recorder keeps every notification in memory. It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

func (r *Recorder) Send(ctx context.Context, owner string, errs []*registry.ValidationError) error {
	msg := Compose(owner, errs)
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	observability.Notify().OnSend(ctx, owner, len(errs), nil)
	return nil
}

// Sent returns the recorded messages in send order.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sent)
}

// Owners returns the recipients in send order.
func (r *Recorder) Owners() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, m := range r.sent {
		out[i] = m.To
	}
	return out
}

// Reset forgets all recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}
