// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package openfga

import (
	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
)

type Config struct {
	ApiScheme   string `validate:"required"`
	ApiHost     string `validate:"required"`
	StoreID     string
	ApiToken    string
	AuthModelID string
	Debug       bool

	Tracer  tracing.TracingInterface
	Monitor monitoring.MonitorInterface
	Logger  logging.LoggerInterface
}

func NewConfig(apiScheme, apiHost, storeID, apiToken, authModelID string, debug bool, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Config {
	return &Config{
		ApiScheme:   apiScheme,
		ApiHost:     apiHost,
		StoreID:     storeID,
		ApiToken:    apiToken,
		AuthModelID: authModelID,
		Debug:       debug,
		Tracer:      tracer,
		Monitor:     monitor,
		Logger:      logger,
	}
}
