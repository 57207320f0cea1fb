// internal/config/normalize.go
package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	r := &cfg.Replicator

	if r.LogLevel == "" {
		r.LogLevel = DefaultLogLevel
	}
	if r.Setup.RetrySeconds <= 0 {
		r.Setup.RetrySeconds = DefaultRetrySeconds
	}
	if r.Setup.ProbeTimeoutMs <= 0 {
		r.Setup.ProbeTimeoutMs = DefaultProbeTimeoutMs
	}
	if r.MQTT.Broker != "" {
		if r.MQTT.TopicPrefix == "" {
			r.MQTT.TopicPrefix = DefaultTopicPrefix
		}
		if r.MQTT.ClientID == "" {
			r.MQTT.ClientID = DefaultMQTTClientID
		}
	}

	for ui := range r.Units {
		u := &r.Units[ui]

		if u.Source.Port == 0 {
			u.Source.Port = DefaultPort
		}
		if u.Source.Protocol == "" {
			u.Source.Protocol = DefaultProtocol
		}
		if u.Source.TimeoutMs <= 0 {
			u.Source.TimeoutMs = DefaultTimeoutMs
		}

		u.Battery = u.Battery.withDefaults()

		// interval: default 3s, floor 1s
		if u.Poll.IntervalSeconds == 0 {
			u.Poll.IntervalSeconds = DefaultIntervalSeconds
		}
		if u.Poll.IntervalSeconds < MinIntervalSeconds {
			u.Poll.IntervalSeconds = MinIntervalSeconds
		}

		// ------------------------------------------------------------
		// DEVICE STATUS BLOCK NORMALIZATION (OPT-IN)
		// ------------------------------------------------------------

		if u.Source.StatusSlot == nil {
			continue
		}

		if u.Source.DeviceName == "" {
			u.Source.DeviceName = u.DisplayName()
		}
		// ASCII already validated; truncate to 16 characters
		if len(u.Source.DeviceName) > 16 {
			u.Source.DeviceName = u.Source.DeviceName[:16]
		}
	}
}

// withDefaults substitutes the default for each unset bound.
func (b BatteryConfig) withDefaults() BatteryConfig {
	if b.LowVoltage == 0 {
		b.LowVoltage = DefaultLowVoltage
	}
	if b.FullVoltage == 0 {
		b.FullVoltage = DefaultFullVoltage
	}
	return b
}
