package notify

import (
	"github.com/nats-io/nats.go"
	"github.com/ohler55/ojg/oj"

	"github.com/trialslog/trial-score-manager-go/log"
)

const DefaultSubject = "trialslog.score.changed"

// NATSNotifier publishes ledger changes as JSON messages.
// Publish errors are logged, never propagated: a broken broker must not
// interfere with judging.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	logger  *log.Logger
}

type NATSOption func(n *NATSNotifier)

func WithSubject(subject string) NATSOption {
	return func(n *NATSNotifier) {
		n.subject = subject
	}
}

func NewNATSNotifier(url string, opts ...NATSOption) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	ret := &NATSNotifier{
		conn:    conn,
		subject: DefaultSubject,
		logger:  log.Default().Named("notify.nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret, nil
}

func (n *NATSNotifier) LedgerChanged(change Change) {
	payload := oj.JSON(change)
	if err := n.conn.Publish(n.subject, []byte(payload)); err != nil {
		n.logger.Error("could not publish change",
			log.String("subject", n.subject),
			log.ErrorField(err))
	}
}

func (n *NATSNotifier) Close() {
	n.conn.Close()
}
