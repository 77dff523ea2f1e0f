// Copyright 2025 MakeMCP Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sources

import (
	"log"
	"net"
	"net/url"
	"strings"
)

// LocationWarning flags an upstream location (spec URL, base URL, or
// GraphQL endpoint) that points somewhere a gateway probably should not
// be sent in production: loopback, private ranges, link-local, or cloud
// metadata services. The gateway forwards caller-controlled parameters
// into requests against these locations, so a misconfigured one is an
// SSRF hazard.
type LocationWarning struct {
	Kind   string
	Detail string
}

// metadataHosts are well-known cloud metadata service addresses.
var metadataHosts = map[string]string{
	"169.254.169.254":          "AWS/Azure metadata service",
	"metadata.google.internal": "GCP metadata service",
	"100.100.100.200":          "Alibaba Cloud metadata service",
}

// privateV4Blocks are the RFC 1918 ranges, parsed once.
var privateV4Blocks = mustParseCIDRs("10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16")

// uniqueLocalV6 is the RFC 4193 unique-local IPv6 range.
var uniqueLocalV6 = mustParseCIDRs("fc00::/7")[0]

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, len(cidrs))
	for i, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		out[i] = network
	}
	return out
}

// CheckUpstreamLocation inspects rawURL for hosts a production gateway
// should not normally target. Non-URL locations (local file paths) and
// unparseable URLs produce no warnings.
func CheckUpstreamLocation(rawURL string) []LocationWarning {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := parsed.Hostname()

	var warnings []LocationWarning
	if detail, ok := metadataHosts[host]; ok {
		warnings = append(warnings, LocationWarning{Kind: "cloud_metadata", Detail: detail})
	}

	ip := net.ParseIP(host)
	switch {
	case host == "localhost" || (ip != nil && ip.IsLoopback()):
		warnings = append(warnings, LocationWarning{Kind: "loopback", Detail: "host is localhost/loopback"})
	case ip != nil && ip.IsLinkLocalUnicast():
		warnings = append(warnings, LocationWarning{Kind: "link_local", Detail: "host is a link-local address"})
	case ip != nil && isPrivateAddress(ip):
		warnings = append(warnings, LocationWarning{Kind: "private_ip", Detail: "host is a private-range address"})
	}
	return warnings
}

func isPrivateAddress(ip net.IP) bool {
	if ip.To4() != nil {
		for _, block := range privateV4Blocks {
			if block.Contains(ip) {
				return true
			}
		}
		return false
	}
	return uniqueLocalV6.Contains(ip)
}

// WarnUpstreamLocation logs every warning CheckUpstreamLocation raises
// for rawURL, labeled with which config field it came from. Dev mode
// silences it, since pointing at localhost is the normal case there.
func WarnUpstreamLocation(rawURL, label string, devMode bool) {
	if devMode {
		return
	}
	for _, w := range CheckUpstreamLocation(rawURL) {
		log.Printf("WARNING: %s %q: %s (%s); use --dev-mode to silence for local development", label, rawURL, w.Detail, w.Kind)
	}
}
