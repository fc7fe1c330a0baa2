package main

import "time"

type Config struct {
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	NumberOfShards       int           `env:"NUMBER_OF_SHARDS,default=8"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	StorageRetries       int           `env:"STORAGE_RETRIES,default=3"`
	RetryDelay           time.Duration `env:"RETRY_DELAY,default=200ms"`
	PresenceWindow       time.Duration `env:"PRESENCE_WINDOW,default=7s"`
	AuthSecret           string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	DebugPort            int           `env:"DEBUG_PORT,default=0"`
	AmqpURL              string        `env:"AMQP_URL"`
	AmqpExchange         string        `env:"AMQP_EXCHANGE,default=bluecollar.events"`
}
