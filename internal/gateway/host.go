package gateway

import (
	"net"
	"strings"
)

// RouteKind is the class of host a request arrived on.
type RouteKind int

const (
	// RouteNone is a host without a subdomain label: the bare domain or
	// bare localhost.
	RouteNone RouteKind = iota
	// RouteMain is the marketing site, reached through www.
	RouteMain
	// RouteAdmin is the reserved admin subdomain.
	RouteAdmin
	// RouteTenant is a workspace subdomain.
	RouteTenant
)

func (k RouteKind) String() string {
	switch k {
	case RouteNone:
		return "none"
	case RouteMain:
		return "main"
	case RouteAdmin:
		return "admin"
	case RouteTenant:
		return "tenant"
	}
	return "unknown"
}

const (
	mainSubdomain  = "www"
	adminSubdomain = "admin"
	localhostLabel = "localhost"
)

// Route is the result of classifying a Host header. Subdomain is set only
// for RouteTenant.
type Route struct {
	Kind      RouteKind
	Subdomain string
}

func (r Route) String() string {
	if r.Kind == RouteTenant {
		return "tenant(" + r.Subdomain + ")"
	}
	return r.Kind.String()
}

// Classify maps a Host header value to a Route.
//
// On localhost any leading label is a subdomain (demo.localhost:3000). On
// real domains at least three labels are required, so example.com has no
// subdomain and demo.example.com does.
func Classify(host string) Route {
	host = stripPort(host)
	if host == "" {
		return Route{Kind: RouteNone}
	}

	labels := strings.Split(host, ".")
	var sub string
	if strings.EqualFold(labels[len(labels)-1], localhostLabel) {
		if len(labels) > 1 {
			sub = labels[0]
		}
	} else if len(labels) >= 3 {
		sub = labels[0]
	}

	// Reserved labels match in any case; tenant labels are kept verbatim.
	switch {
	case sub == "":
		return Route{Kind: RouteNone}
	case strings.EqualFold(sub, mainSubdomain):
		return Route{Kind: RouteMain}
	case strings.EqualFold(sub, adminSubdomain):
		return Route{Kind: RouteAdmin}
	}
	return Route{Kind: RouteTenant, Subdomain: sub}
}

func stripPort(host string) string {
	host = strings.TrimSpace(host)
	if strings.HasPrefix(host, "[") {
		// IPv6 literals never carry a subdomain.
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
