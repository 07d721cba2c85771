package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

//Register tries to register or reregister metrics to prometheus default registry
func Register(ms ...prometheus.Collector) error {
	for _, m := range ms {
		if err := register(m); err != nil {
			return err
		}
	}
	return nil
}

func register(m prometheus.Collector) error {
	err := prometheus.Register(m)
	if err != nil {
		prometheus.Unregister(m)
		err = prometheus.Register(m)
	}
	return errors.Wrap(err, "Can't register metric")
}
