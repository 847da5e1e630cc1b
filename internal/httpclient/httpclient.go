package httpclient

import (
	"net"
	"net/http"
	"time"
)

const DefaultTimeout = 15 * time.Second

// New returns a client with sane dial/TLS limits shared by every outbound integration
// (backend, weather provider, IP geolocation).
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 32, // one host gets a burst of weather lookups per listing
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}
