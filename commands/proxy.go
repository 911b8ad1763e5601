package commands

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-claude-spend/internal/core/pricing"
	"github.com/penwyp/go-claude-spend/internal/intercept"
	"github.com/penwyp/go-claude-spend/internal/sink"
	"github.com/penwyp/go-claude-spend/internal/util"
)

var (
	proxyListen        string
	upstreamBase       string
	pricingSource      string
	pricingOfflineMode bool

	proxyCmd = &cobra.Command{
		Use:   "proxy",
		Short: "Run an observing forward proxy for the completion API",
		Long: `proxy listens locally and forwards requests to the completion API
through the observing transport. Clients pointed at the proxy behave
exactly as if they talked to the API directly; every completion call
is accounted and appended to the record log on the side.`,
		RunE: runProxy,
	}
)

func init() {
	proxyCmd.Flags().StringVar(&proxyListen, "listen", "127.0.0.1:8787",
		"Listen address")
	proxyCmd.Flags().StringVar(&upstreamBase, "upstream", "https://api.anthropic.com",
		"Upstream API base URL")
	proxyCmd.Flags().StringVar(&pricingSource, "pricing-source", "default",
		"Pricing source (default, litellm)")
	proxyCmd.Flags().BoolVar(&pricingOfflineMode, "pricing-offline", false,
		"Use offline pricing mode")
	rootCmd.AddCommand(proxyCmd)
}

func runProxy(cmd *cobra.Command, args []string) error {
	initRuntime()

	upstream, err := url.Parse(upstreamBase)
	if err != nil {
		return fmt.Errorf("invalid --upstream value: %w", err)
	}

	provider, err := pricing.CreatePricingProvider(&pricing.SourceConfig{
		PricingSource:      pricingSource,
		PricingOfflineMode: pricingOfflineMode,
	}, expandPath(defaultCacheDir))
	if err != nil {
		return fmt.Errorf("failed to create pricing provider: %w", err)
	}

	observer := intercept.NewObserver(
		sink.New(expandPath(recordFile)),
		pricing.NewEstimator(provider),
	)
	client := &http.Client{
		Transport: intercept.NewTransport(nil, observer),
		// Streaming responses run long; the client must not cut them.
		Timeout: 0,
	}

	handler := &proxyHandler{upstream: upstream, client: client}
	server := &http.Server{
		Addr:              proxyListen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	util.LogInfof("Proxy listening on %s, forwarding to %s", proxyListen, upstream)
	fmt.Printf("claude-spend proxy listening on %s -> %s\n", proxyListen, upstream)
	return server.ListenAndServe()
}

type proxyHandler struct {
	upstream *url.URL
	client   *http.Client
}

func (h *proxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := *h.upstream
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("proxy request error: %v", err), http.StatusBadGateway)
		return
	}
	out.Header = r.Header.Clone()
	out.Host = h.upstream.Host

	resp, err := h.client.Do(out)
	if err != nil {
		http.Error(w, fmt.Sprintf("upstream error: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	copyFlushed(w, resp.Body)
}

// copyFlushed streams the upstream body to the client, flushing after
// every read so event streams arrive without buffering delay.
func copyFlushed(w http.ResponseWriter, body io.Reader) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}
