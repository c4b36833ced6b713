package config

import (
	"fmt"

	"github.com/kilianp07/fleetctl/core/factory"
	coremqtt "github.com/kilianp07/fleetctl/core/mqtt"
	"github.com/kilianp07/fleetctl/core/taskplanner"
	"github.com/kilianp07/fleetctl/infra/mqtt"
)

// busRegistry is the module registry this package's NewBus draws from,
// mirroring core/factory/doc.go's io.Reader example narrowed to MessageBus.
var busRegistry = newBusRegistry()

func newBusRegistry() *factory.Registry[coremqtt.MessageBus] {
	reg := factory.NewRegistry[coremqtt.MessageBus]()
	_ = reg.Register("mqtt", func(conf map[string]any) (coremqtt.MessageBus, error) {
		var cfg mqtt.Config
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode mqtt bus: %w", err)
		}
		return mqtt.NewBus(cfg)
	})
	_ = reg.Register("loopback", func(map[string]any) (coremqtt.MessageBus, error) {
		return mqtt.NewLoopbackBus(), nil
	})
	return reg
}

// NewBus constructs the MessageBus named by cfg.Bus, decoding cfg.MQTT into
// the chosen factory's expected shape when the bus type needs it.
func NewBus(cfg Config) (coremqtt.MessageBus, error) {
	conf := map[string]any{}
	if cfg.Bus == "mqtt" {
		conf = map[string]any{
			"broker":      cfg.MQTT.Broker,
			"client_id":   cfg.MQTT.ClientID,
			"username":    cfg.MQTT.Username,
			"password":    cfg.MQTT.Password,
			"use_tls":     cfg.MQTT.UseTLS,
			"client_cert": cfg.MQTT.ClientCert,
			"client_key":  cfg.MQTT.ClientKey,
			"ca_bundle":   cfg.MQTT.CABundle,
			"max_retries": cfg.MQTT.MaxRetries,
			"backoff_ms":  cfg.MQTT.BackoffMS,
		}
	}
	return busRegistry.Create(factory.ModuleConfig{Type: cfg.Bus, Conf: conf})
}

// taskPlannerRegistry constructs a TaskPlanner from a fleet's configured
// kind ("lp" or "greedy"), applying its Params immediately.
var taskPlannerRegistry = newTaskPlannerRegistry()

func newTaskPlannerRegistry() *factory.Registry[taskplanner.TaskPlanner] {
	reg := factory.NewRegistry[taskplanner.TaskPlanner]()
	_ = reg.Register("lp", func(map[string]any) (taskplanner.TaskPlanner, error) {
		return taskplanner.NewLPTaskPlanner(), nil
	})
	_ = reg.Register("greedy", func(map[string]any) (taskplanner.TaskPlanner, error) {
		return taskplanner.NewGreedyTaskPlanner(), nil
	})
	return reg
}

// NewTaskPlanner builds and configures the TaskPlanner named by kind.
func NewTaskPlanner(kind string, params taskplanner.Params) (taskplanner.TaskPlanner, error) {
	if kind == "" {
		kind = "lp"
	}
	tp, err := taskPlannerRegistry.Create(factory.ModuleConfig{Type: kind})
	if err != nil {
		return nil, err
	}
	if !tp.SetParams(params) {
		return nil, fmt.Errorf("config: invalid task_planner params for kind %q", kind)
	}
	return tp, nil
}
