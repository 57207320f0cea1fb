// internal/writer/mqtt/publisher.go
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/ups-replicator/internal/poller"
	"github.com/tamzrod/ups-replicator/internal/sensor"
)

const (
	DefaultQoS     byte = 1
	DefaultTimeout      = 5 * time.Second

	Online  = "online"
	Offline = "offline"
)

// Client is the subset of paho.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher mirrors the outcomes of one unit onto MQTT topics:
//
//	<prefix>/<unit>/availability  online|offline (retained)
//	<prefix>/<unit>/<key>         metric value (retained)
//	<prefix>/<unit>/state         JSON of all metrics
type Publisher struct {
	cli     Client
	base    string
	qos     byte
	timeout time.Duration

	mu        sync.Mutex
	available *bool
}

// NewPublisher builds a publisher for one unit.
func NewPublisher(cli Client, prefix, unitID string) *Publisher {
	return &Publisher{
		cli:     cli,
		base:    strings.TrimSuffix(prefix, "/") + "/" + unitID,
		qos:     DefaultQoS,
		timeout: DefaultTimeout,
	}
}

// Topic returns the full topic for a suffix.
func (p *Publisher) Topic(suffix string) string {
	return p.base + "/" + suffix
}

// statePayload is the JSON document published on <unit>/state.
type statePayload struct {
	Available   bool           `json:"available"`
	At          time.Time      `json:"at"`
	LastSuccess *time.Time     `json:"last_success,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metrics     map[string]any `json:"metrics,omitempty"`
}

// Write publishes one outcome.
func (p *Publisher) Write(o poller.Outcome) error {
	var errs []error

	ok := o.OK()

	p.mu.Lock()
	changed := p.available == nil || *p.available != ok
	if changed {
		p.available = &ok
	}
	p.mu.Unlock()

	if changed {
		avail := Offline
		if ok {
			avail = Online
		}
		errs = append(errs, p.publish("availability", true, []byte(avail)))
	}

	st := statePayload{Available: ok, At: o.At}
	if !o.LastSuccess.IsZero() {
		ls := o.LastSuccess
		st.LastSuccess = &ls
	}

	if ok {
		st.Metrics = make(map[string]any, len(sensor.Definitions))
		for _, d := range sensor.Definitions {
			v, _ := sensor.Extract(d.Key, o.Reading)
			st.Metrics[string(d.Key)] = v
			if d.EnabledByDefault {
				errs = append(errs, p.publish(string(d.Key), true, []byte(FormatValue(v))))
			}
		}
	} else if o.Err != nil {
		st.Error = o.Err.Error()
	}

	doc, err := json.Marshal(st)
	if err != nil {
		errs = append(errs, fmt.Errorf("mqtt: encode state: %w", err))
	} else {
		errs = append(errs, p.publish("state", false, doc))
	}

	if err := errors.Join(errs...); err != nil {
		// force availability out again on the next outcome
		p.mu.Lock()
		p.available = nil
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *Publisher) publish(suffix string, retained bool, payload []byte) error {
	topic := p.Topic(suffix)
	tok := p.cli.Publish(topic, p.qos, retained, payload)
	if !tok.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt: publish %s: timeout", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

// FormatValue renders a metric value as a plain payload.
func FormatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
