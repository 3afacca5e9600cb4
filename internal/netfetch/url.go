package netfetch

import "net/url"

// splitURL extracts the three allow-list-matchable components from a raw
// URL string.
func splitURL(raw string) (scheme, host, path string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "", err
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.Scheme, u.Host, u.Path, nil
}

// resolveRedirect resolves a Location header value against the URL it came
// from, handling both absolute and relative redirect targets.
func resolveRedirect(base, location string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return location
	}
	target, err := url.Parse(location)
	if err != nil {
		return location
	}
	return baseURL.ResolveReference(target).String()
}
