package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// ProxySupplier hands out egress proxies for the listing client in
// round-robin order. An empty supplier returns "".
type ProxySupplier interface {
	Get() string
	Len() int
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewProxySupplier keeps the proxies that can reach healthURL. With no
// healthURL every proxy is kept untested.
func NewProxySupplier(ctx context.Context, proxies []string, healthURL string) ProxySupplier {
	if len(proxies) == 0 {
		return &proxySupplier{proxies: []string{}}
	}
	if healthURL == "" {
		log.Infof("🔗 Using %d egress proxies without health check", len(proxies))
		return &proxySupplier{proxies: append([]string{}, proxies...)}
	}

	log.Infof("🔄 Testing %d egress proxies in parallel...", len(proxies))

	valid := make([]bool, len(proxies))
	semaphore := make(chan struct{}, 10)

	var wg sync.WaitGroup
	for i, proxyURL := range proxies {
		wg.Add(1)

		go func(index int, proxy string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if isProxyValid(ctx, proxy, healthURL) {
				valid[index] = true
				log.Infof("✅ Proxy %s is working", proxy)
			} else {
				log.Warnf("❌ Proxy %s is not working, skipping", proxy)
			}
		}(i, proxyURL)
	}
	wg.Wait()

	working := make([]string, 0, len(proxies))
	for i, proxy := range proxies {
		if valid[i] {
			working = append(working, proxy)
		}
	}

	log.Infof("✅ ProxySupplier initialized with %d working proxies out of %d tested", len(working), len(proxies))

	return &proxySupplier{proxies: working}
}

// Get returns the next proxy URL in round-robin fashion
func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)

	return proxy
}

func (p *proxySupplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func isProxyValid(ctx context.Context, proxyURL, healthURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)

	resp, err := client.R().
		SetContext(ctx).
		Get(healthURL)

	if err != nil {
		log.Debugf("Proxy test failed for %s: %v", proxyURL, err)
		return false
	}

	if resp.IsError() {
		log.Debugf("Proxy test failed for %s with status: %s", proxyURL, resp.Status())
		return false
	}

	return true
}
