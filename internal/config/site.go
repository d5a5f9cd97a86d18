package config

import "strings"

// SiteConfig holds request settings for a single host.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with every request to the host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers included in requests to the host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for the host.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File represents the structure of the .pageloader configuration file.
type File struct {
	// Sites maps hosts to their settings. Keys are host names with an
	// optional port and no scheme (e.g., "ru.hexlet.io").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the settings for host, merging the site entry
// over the defaults. Host matching is case-insensitive.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := SiteConfig{
		Cookie:    cf.Defaults.Cookie,
		UserAgent: cf.Defaults.UserAgent,
	}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.lookup(host)
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

// Hosts returns the host names that have a site entry.
func (cf *File) Hosts() []string {
	hosts := make([]string, 0, len(cf.Sites))
	for h := range cf.Sites {
		hosts = append(hosts, h)
	}
	return hosts
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	if sc, ok := cf.Sites[host]; ok {
		return sc, true
	}
	for h, sc := range cf.Sites {
		if strings.EqualFold(h, host) {
			return sc, true
		}
	}
	return SiteConfig{}, false
}
