// internal/pkg/fingerprint/extract.go
package fingerprint

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"sentinel-service/internal/domain/session"
	"sentinel-service/internal/service/geo"

	"go.uber.org/zap"
)

// Values used when no address or location can be determined.
const (
	UnknownAddress = "unknown"
	LocalLocation  = "Local"
	LocalRegion    = "XX"
	UnknownRegion  = "XX"
)

// RequestMeta carries the raw request metadata the extractor works from.
// Absent fields are empty strings.
type RequestMeta struct {
	ForwardedFor string
	RealIP       string
	ClientIP     string
	RemoteAddr   string
	UserAgent    string
}

// FromRequest collects the relevant headers and peer address of a request.
func FromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		RealIP:       r.Header.Get("X-Real-IP"),
		ClientIP:     r.Header.Get("X-Client-IP"),
		RemoteAddr:   r.RemoteAddr,
		UserAgent:    r.Header.Get("User-Agent"),
	}
}

// Extractor derives best-effort device descriptors. It never fails: on any
// parsing or lookup problem it degrades to a descriptor carrying only the
// resolved source address.
type Extractor struct {
	geo    geo.Resolver
	logger *zap.Logger
}

func NewExtractor(resolver geo.Resolver, logger *zap.Logger) *Extractor {
	return &Extractor{
		geo:    resolver,
		logger: logger,
	}
}

// Extract produces the device descriptor for the request metadata.
func (e *Extractor) Extract(ctx context.Context, meta RequestMeta) session.Device {
	dev := parseUserAgent(meta.UserAgent)
	dev.IPAddress = ResolveAddress(meta)

	location, region := e.resolveLocation(ctx, dev.IPAddress)
	dev.Location = location
	dev.Region = region

	return dev
}

// ResolveAddress picks the client address: forwarded-for first entry, then
// real-IP, client-IP, the raw peer address, and finally "unknown". Candidates
// are trimmed; the first non-empty one wins.
func ResolveAddress(meta RequestMeta) string {
	var candidates []string

	if meta.ForwardedFor != "" {
		first, _, _ := strings.Cut(meta.ForwardedFor, ",")
		candidates = append(candidates, first)
	}
	candidates = append(candidates, meta.RealIP, meta.ClientIP, hostOnly(meta.RemoteAddr))

	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}

	return UnknownAddress
}

func (e *Extractor) resolveLocation(ctx context.Context, addrStr string) (string, string) {
	if addrStr == UnknownAddress {
		return "", ""
	}

	addr, err := netip.ParseAddr(addrStr)
	if err != nil {
		return "", ""
	}

	// Loopback and private ranges never reach the geo collaborator.
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
		return LocalLocation, LocalRegion
	}

	if e.geo == nil {
		return "Unknown", UnknownRegion
	}

	loc, err := e.geo.Resolve(ctx, addrStr)
	if err != nil {
		e.logger.Warn("geo lookup failed", zap.String("ip", addrStr), zap.Error(err))
		return "Unknown", UnknownRegion
	}

	rendered := renderLocation(loc)
	if rendered == "" {
		rendered = "Unknown"
	}
	region := loc.RegionCode
	if region == "" {
		region = UnknownRegion
	}

	return rendered, region
}

// renderLocation joins "city, region, country", omitting absent parts.
func renderLocation(loc *geo.Location) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{loc.City, loc.Region, loc.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// hostOnly strips the port from a host:port peer address, tolerating bare
// addresses and bracketed IPv6.
func hostOnly(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return strings.Trim(remoteAddr, "[]")
}
