package webhooks

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

var allowedSchemes = []string{"http", "https"}

var allowedPorts = []int{80, 443}

// blockedNetworks are refused at registration time. The safeurl client
// checks the resolved address again at dial time, which also covers DNS
// rebinding.
var blockedNetworks = func() []*net.IPNet {
	cidrs := []string{
		"10.0.0.0/8",     // RFC 1918
		"172.16.0.0/12",  // RFC 1918
		"192.168.0.0/16", // RFC 1918
		"127.0.0.0/8",    // loopback
		"169.254.0.0/16", // link-local, includes cloud metadata
		"100.64.0.0/10",  // carrier-grade NAT
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	}
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("webhooks: bad CIDR %q: %v", c, err))
		}
		out = append(out, n)
	}
	return out
}()

// SafeClient returns the delivery client. It refuses private, loopback and
// link-local destinations and ports other than 80 and 443.
func SafeClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(allowedPorts...).
		Build()
	return safeurl.Client(cfg).Client
}

// ValidateURL rejects webhook targets the delivery client would refuse, so
// the owner learns about it when registering rather than from dropped
// deliveries. It does not resolve DNS.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return errors.New("must use http or https")
	}
	host := u.Hostname()
	if host == "" {
		return errors.New("must include a host")
	}
	if p := u.Port(); p != "" && p != "80" && p != "443" {
		return errors.New("must use port 80 or 443")
	}

	lower := strings.ToLower(strings.TrimSuffix(host, "."))
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return errors.New("must not point at a private or local address")
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsUnspecified() || ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return errors.New("must not point at a private or local address")
		}
		for _, n := range blockedNetworks {
			if n.Contains(ip) {
				return errors.New("must not point at a private or local address")
			}
		}
	}
	return nil
}
