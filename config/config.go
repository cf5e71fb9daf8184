// Package config loads pool settings from the environment, with optional
// .env file support for local development.
package config

import (
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the tunables shared by the pool, pipeline and respool
// packages. Every field has a usable default; set the corresponding CREW_*
// variable to override it.
type Config struct {
	PoolName         string        // CREW_POOL_NAME
	WorkerCount      int           // CREW_WORKER_COUNT, defaults to GOMAXPROCS
	InvokeTimeout    time.Duration // CREW_INVOKE_TIMEOUT, zero means unbounded
	StopOnFirstError bool          // CREW_STOP_ON_FIRST_ERROR
	BorrowTimeout    time.Duration // CREW_BORROW_TIMEOUT
	PollInterval     time.Duration // CREW_POLL_INTERVAL
	PipelineBackoff  time.Duration // CREW_PIPELINE_BACKOFF
}

// Load reads the environment into a Config. A .env file in the working
// directory is loaded first if present.
func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	return &Config{
		PoolName:         getenvDefault("CREW_POOL_NAME", "crew"),
		WorkerCount:      getenvInt("CREW_WORKER_COUNT", runtime.GOMAXPROCS(0)),
		InvokeTimeout:    getenvDuration("CREW_INVOKE_TIMEOUT", 0),
		StopOnFirstError: getenvBool("CREW_STOP_ON_FIRST_ERROR", true),
		BorrowTimeout:    getenvDuration("CREW_BORROW_TIMEOUT", 30*time.Second),
		PollInterval:     getenvDuration("CREW_POLL_INTERVAL", time.Second),
		PipelineBackoff:  getenvDuration("CREW_PIPELINE_BACKOFF", 100*time.Millisecond),
	}
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid integer: %v", k, v, err)
	}
	return n
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid boolean: %v", k, v, err)
	}
	return b
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}
