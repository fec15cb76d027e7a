// Package config loads typed configuration structs from environment
// variables (and an optional .env file) via caarlos0/env struct tags.
// Each struct type parses once per process and is cached, so packages
// declare their own Config types independently — pg.Config,
// provision.Config, httpserver.Config — and load them wherever needed.
package config
