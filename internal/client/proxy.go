// ABOUTME: SSH+SOCKS5 dialer for reaching a backend behind a jump host
// ABOUTME: Parses ALL_PROXY=ssh+socks5://user@host:port?private-key=/path

package client

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cloudfoundry/socks5-proxy"
)

// createSOCKS5DialContextFunc creates a dial function for SSH+SOCKS5 proxy connections.
// Returns nil when the proxy URL is unusable.
func createSOCKS5DialContextFunc(allProxy string) func(ctx context.Context, network, address string) (net.Conn, error) {
	settings, err := parseProxyURL(allProxy)
	if err != nil {
		slog.Error("Invalid ALL_PROXY", "error", err)
		return nil
	}

	proxySSHKey, err := os.ReadFile(settings.keyPath)
	if err != nil {
		slog.Error("Failed to read SSH private key", "path", settings.keyPath, "error", err)
		return nil
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.RWMutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.RLock()
		haveDialer := dialer != nil
		mut.RUnlock()

		if haveDialer {
			return dialer(network, address)
		}

		mut.Lock()
		defer mut.Unlock()
		if dialer == nil {
			proxyDialer, err := socks5Proxy.Dialer(settings.username, string(proxySSHKey), settings.host)
			if err != nil {
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		return dialer(network, address)
	}
}

type proxySettings struct {
	username string
	host     string
	keyPath  string
}

func parseProxyURL(allProxy string) (proxySettings, error) {
	proxyURL, err := url.Parse(strings.TrimPrefix(allProxy, "ssh+"))
	if err != nil {
		return proxySettings{}, fmt.Errorf("parse proxy URL: %w", err)
	}
	if proxyURL.Scheme != "socks5" {
		return proxySettings{}, fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}
	if proxyURL.Host == "" {
		return proxySettings{}, fmt.Errorf("proxy URL has no host")
	}

	query, err := url.ParseQuery(proxyURL.RawQuery)
	if err != nil {
		return proxySettings{}, fmt.Errorf("parse proxy query params: %w", err)
	}

	s := proxySettings{
		host:    proxyURL.Host,
		keyPath: query.Get("private-key"),
	}
	if proxyURL.User != nil {
		s.username = proxyURL.User.Username()
	}
	if s.keyPath == "" {
		return proxySettings{}, fmt.Errorf("missing required 'private-key' query param")
	}
	return s, nil
}
