package notify

import (
	"context"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/matzehuels/schemahub/pkg/buildinfo"
	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/observability"
	"github.com/matzehuels/schemahub/pkg/registry"
)

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS is one of "mandatory", "opportunistic" or "none".
	TLS     string
	Timeout time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// SMTPNotifier delivers notifications by email.
type SMTPNotifier struct {
	from   string
	client sender
}

// NewSMTPNotifier creates a notifier for cfg. No connection is made until
// the first Send.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "smtp host is required")
	}
	if err := errors.ValidateEmail(cfg.From); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "smtp from address")
	}

	opts := []mail.Option{mail.WithTLSPortPolicy(tlsPolicy(cfg.TLS))}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "smtp client")
	}
	return &SMTPNotifier{from: cfg.From, client: client}, nil
}

func tlsPolicy(s string) mail.TLSPolicy {
	switch s {
	case "none":
		return mail.NoTLS
	case "opportunistic":
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, owner string, errs []*registry.ValidationError) error {
	msg, err := n.message(Compose(owner, errs))
	if err == nil {
		err = n.client.DialAndSendWithContext(ctx, msg)
		if err != nil {
			err = errors.Wrap(errors.ErrCodeDelivery, err, "send to %s", owner)
		}
	}
	observability.Notify().OnSend(ctx, owner, len(errs), err)
	return err
}

func (n *SMTPNotifier) message(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "from address %q", n.from)
	}
	if err := msg.To(m.To); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDelivery, err, "recipient %q", m.To)
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetUserAgent(buildinfo.UserAgent())
	msg.SetBodyString(mail.TypeTextPlain, m.Body)
	return msg, nil
}
