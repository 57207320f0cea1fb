// internal/writer/mqtt/connect.go
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/tamzrod/ups-replicator/internal/config"
)

// BridgeTopic carries the process-level last will.
func BridgeTopic(prefix string) string {
	return prefix + "/bridge/status"
}

// Connect opens the shared broker session.
// The broker publishes "offline" on the bridge topic if the process dies.
func Connect(c config.MQTTConfig, log zerolog.Logger) (paho.Client, error) {
	bridge := BridgeTopic(c.TopicPrefix)

	opts := paho.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(c.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10*time.Second).
		SetWill(bridge, Offline, DefaultQoS, true)

	if c.Username != "" {
		opts.SetUsername(c.Username)
		opts.SetPassword(c.Password)
	}

	opts.SetOnConnectHandler(func(cl paho.Client) {
		log.Info().Str("broker", c.Broker).Msg("mqtt connected")
		cl.Publish(bridge, DefaultQoS, true, Online)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", c.Broker, token.Error())
	}

	return client, nil
}

// Disconnect marks the bridge offline and closes the session.
func Disconnect(cl paho.Client, prefix string) {
	if cl == nil {
		return
	}
	tok := cl.Publish(BridgeTopic(prefix), DefaultQoS, true, Offline)
	tok.WaitTimeout(time.Second)
	cl.Disconnect(250)
}
