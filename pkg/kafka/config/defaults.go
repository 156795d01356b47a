package config

import "time"

const (
	DefaultProducerCompression  = "snappy"
	DefaultProducerRequireAcks  = -1
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 100 * time.Millisecond
	DefaultProducerAsync        = false
)
