// Package config loads runtime configuration for the admin CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file named by --config.
//  3. Environment variables (MINERLEDGER_ADDR, ADD_SPEED_SECRET,
//     MINERLEDGER_TOKEN_TTL, MINERLEDGER_TIMEOUT).
//  4. Command-line flags, applied by the cobra commands.
//
// # File schema
//
//	server_endpoint_addr: 127.0.0.1:50051
//	secret_key: change-me
//	token_ttl: 5m
//	request_timeout: 10s
package config
