package main

import (
	"fmt"

	"bankload/internal/config"
	"bankload/internal/metrics"
	"bankload/internal/metrics/datadog"
	"bankload/internal/metrics/prompush"
)

// newMetricsBackend builds the backend named by m. It returns nil, nil when
// metrics are disabled.
func newMetricsBackend(m config.Metrics) (metrics.Backend, error) {
	switch m.Backend {
	case "", "none":
		return nil, nil
	case "pushgateway":
		b, err := prompush.NewBackend(m.Job, m.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.Namespace,
			GlobalTags: m.Tags,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", m.Backend)
	}
}
