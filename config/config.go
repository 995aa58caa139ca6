// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package config loads engine configuration from the environment (and an
// optional .env file), plus an optional YAML wallet-alias map used to
// normalize wallet labels across input files.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the engine's runtime configuration.
type Config struct {
	CryptoCompareAPIKey  string
	CryptoCompareBaseURL string
	LogLevel             string
	OracleTimeoutSec     int
}

// Load reads configuration from environment variables and an optional
// .env file in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		CryptoCompareAPIKey:  getEnv("CRYPTOCOMPARE_API_KEY", ""),
		CryptoCompareBaseURL: getEnv("CRYPTOCOMPARE_BASE_URL", "https://min-api.cryptocompare.com"),
		LogLevel:             getEnv("TAX_LOG_LEVEL", "info"),
		OracleTimeoutSec:     getEnvInt("CRYPTOCOMPARE_TIMEOUT_SEC", 15),
	}
}

// WalletAliases maps a raw wallet label from an input file (e.g. an
// exchange's internal account id) to the canonical wallet name it should
// be reported under.
type WalletAliases map[string]string

// LoadWalletAliases reads a YAML mapping of raw label to canonical wallet
// name from path. A missing file is not an error; it yields an empty map.
func LoadWalletAliases(path string) (WalletAliases, error) {
	if path == "" {
		return WalletAliases{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return WalletAliases{}, nil
		}
		return nil, err
	}
	aliases := WalletAliases{}
	if err := yaml.Unmarshal(raw, &aliases); err != nil {
		return nil, err
	}
	return aliases, nil
}

// Resolve returns the canonical wallet name for label, or label unchanged
// when no alias is registered.
func (w WalletAliases) Resolve(label string) string {
	if canonical, ok := w[label]; ok {
		return canonical
	}
	return label
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
