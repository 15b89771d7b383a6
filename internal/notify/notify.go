package notify

import "log"

// Message is an outbound guest notification. Delivery is handled by an
// external gateway; the core only enqueues.
type Message struct {
	Phone   string
	Email   string
	Subject string
	Body    string
}

type Gateway interface {
	Send(msg Message) error
}

// LogGateway writes notifications to the process log. It stands in for the
// real SMS/email provider in development and in tests.
type LogGateway struct{}

func NewLogGateway() *LogGateway {
	return &LogGateway{}
}

func (g *LogGateway) Send(msg Message) error {
	to := msg.Phone
	if to == "" {
		to = msg.Email
	}
	log.Printf("notify %s: %s - %s", to, msg.Subject, msg.Body)
	return nil
}
