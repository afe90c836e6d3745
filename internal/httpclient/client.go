// Package httpclient builds the HTTP clients used for probing and page fetches.
package httpclient

import (
	"net"
	"net/http"
	"syscall"
	"time"
)

const (
	// DefaultTimeout bounds a whole request when the caller sets none.
	DefaultTimeout = 5 * time.Second

	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 4
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultTLSHandshakeTimeout = 5 * time.Second
)

// Config configures a client. Zero values take the defaults above.
type Config struct {
	// Timeout is the overall request limit, including redirects and body reads.
	Timeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration

	// CheckRedirect is installed on the client unchanged when set.
	CheckRedirect func(req *http.Request, via []*http.Request) error

	// DialControl runs after address resolution and before connecting,
	// so it sees the IP actually dialled.
	DialControl func(network, address string, c syscall.RawConn) error
}

// New creates an http.Client from cfg.
func New(cfg Config) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = DefaultIdleConnTimeout
	}
	if cfg.TLSHandshakeTimeout == 0 {
		cfg.TLSHandshakeTimeout = DefaultTLSHandshakeTimeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.Timeout,
		KeepAlive: 30 * time.Second,
		Control:   cfg.DialControl,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ResponseHeaderTimeout: cfg.Timeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
	}

	return &http.Client{
		Timeout:       cfg.Timeout,
		Transport:     transport,
		CheckRedirect: cfg.CheckRedirect,
	}
}
