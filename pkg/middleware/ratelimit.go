package middleware

import (
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/vfg2006/meta-insights-proxy/pkg/apiErrors"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
	"github.com/vfg2006/meta-insights-proxy/pkg/ratelimit"
)

const (
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	rateLimitExceededMessage = "Rate limit exceeded"
)

// KeyFunc extrai a identidade usada pelo limitador
type KeyFunc func(r *http.Request) string

type RateLimitObserver interface {
	ObserveRateLimitDenied(limiter string)
}

// TrustedProxies guarda as redes dos proxies reversos cujos cabeçalhos X-Forwarded-For e X-Real-IP
// são aceitos. Sem redes configuradas vale sempre o RemoteAddr.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// NewTrustedProxies aceita CIDRs ("10.0.0.0/8") ou IPs soltos ("10.0.0.1")
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	proxies := &TrustedProxies{}

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("middleware: proxy confiável inválido %q: %w", entry, err)
			}
			proxies.prefixes = append(proxies.prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("middleware: proxy confiável inválido %q: %w", entry, err)
		}
		addr = addr.Unmap()
		proxies.prefixes = append(proxies.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return proxies, nil
}

func (t *TrustedProxies) trusts(addr netip.Addr) bool {
	if t == nil || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range t.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP só lê os cabeçalhos de encaminhamento quando o peer imediato é um proxy confiável.
// O X-Forwarded-For é percorrido da direita para a esquerda até o primeiro salto não confiável.
func (t *TrustedProxies) ClientIP(r *http.Request) string {
	remote := RemoteIP(r)

	if !t.trusts(parseAddr(remote)) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := parseAddr(strings.TrimSpace(hops[i]))
			if !hop.IsValid() {
				break
			}
			if !t.trusts(hop) {
				return hop.String()
			}
		}
	}

	if xri := parseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); xri.IsValid() {
		return xri.String()
	}

	return remote
}

func (t *TrustedProxies) ClientIPKey(r *http.Request) string {
	return "ip:" + t.ClientIP(r)
}

// UserKey usa o ID do usuário autenticado; sem claims, cai para o IP
func (t *TrustedProxies) UserKey(r *http.Request) string {
	if claims, ok := ClaimsFromContext(r.Context()); ok && claims.UserID() != "" {
		return "user:" + claims.UserID()
	}
	return t.ClientIPKey(r)
}

// RemoteIP é o endereço do peer imediato, sem porta
func RemoteIP(r *http.Request) string {
	if addrPort, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return addrPort.Addr().Unmap().String()
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 && !strings.HasSuffix(ip, "]") {
		ip = ip[:idx]
	}
	return strings.Trim(ip, "[]")
}

func parseAddr(value string) netip.Addr {
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

// RateLimit aplica o limitador de janela fixa. Falhas do store não bloqueiam a requisição.
func RateLimit(name string, limiter ratelimit.Limiter, key KeyFunc, observer RateLimitObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.ForContext(r.Context()).WithField("limiter", name)

			decision, err := limiter.Check(r.Context(), key(r))
			if err != nil {
				logger.WithError(err).Error("Rate limiter indisponível, requisição liberada")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				if observer != nil {
					observer.ObserveRateLimitDenied(name)
				}

				retryAfter := int(time.Until(decision.ResetAt).Seconds()) + 1
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}

				logger.Warn("Limite de requisições excedido")
				apiErrors.WriteError(w, apiErrors.ErrRateLimitExceeded, rateLimitExceededMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
