// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// OutboundGuard は外部API（SMSゲートウェイ）への通信に対するSSRF防止機能を定義する。
type OutboundGuard interface {
	// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
	// プライベートIP、ループバック、リンクローカル宛の接続はDialer段階で拒否される。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateGatewayURL はゲートウェイのベースURLを起動時に静的検証する。
	ValidateGatewayURL(rawURL string) error
}

// gatewayScheme はゲートウェイ通信で許可する唯一のスキーム。
const gatewayScheme = "https"

// blockedNetworks はValidateGatewayURLで拒否するネットワーク範囲。
var blockedNetworks = mustParseCIDRs(
	"10.0.0.0/8",     // RFC 1918
	"172.16.0.0/12",  // RFC 1918
	"192.168.0.0/16", // RFC 1918
	"100.64.0.0/10",  // CGNAT
	"127.0.0.0/8",    // ループバック
	"169.254.0.0/16", // リンクローカル（メタデータIPを含む）
	"0.0.0.0/8",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		networks = append(networks, network)
	}
	return networks
}

// outboundGuard はOutboundGuardの実装。
type outboundGuard struct{}

// NewOutboundGuard はOutboundGuardの新しいインスタンスを生成する。
func NewOutboundGuard() *outboundGuard {
	return &outboundGuard{}
}

// NewSafeClient はhttps:443のみ許可するsafeurlクライアントを生成する。
// safeurlはDNS解決後のIPアドレスもDialerのControlフックで検証する。
func (g *outboundGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(gatewayScheme).
		SetAllowedPorts(443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateGatewayURL はベースURLがhttpsで、認証情報を含まず、
// 内部ネットワークを指していないことを検証する。DNS解決は行わない。
func (g *outboundGuard) ValidateGatewayURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if !strings.EqualFold(parsed.Scheme, gatewayScheme) {
		return fmt.Errorf("disallowed scheme: %q (allowed: %s)", parsed.Scheme, gatewayScheme)
	}
	if parsed.User != nil {
		return fmt.Errorf("credentials must not be embedded in URL")
	}
	if port := parsed.Port(); port != "" && port != "443" {
		return fmt.Errorf("disallowed port: %s", port)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, network := range blockedNetworks {
			if network.Contains(ip) {
				return fmt.Errorf("blocked IP address: %s", ip.String())
			}
		}
		return nil
	}

	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}
	return nil
}

var _ OutboundGuard = (*outboundGuard)(nil)
