package wiki

import (
	"fmt"
	"os"

	"github.com/gobwas/glob"
	"github.com/goccy/go-yaml"
)

// LoadCredentials reads the login name and bot password for baseURL from a
// YAML file of the form
//
//	https://en.wikipedia.org/w/api.php:
//	  login:
//	    Alice@bot: secret
//	"https://*.example.org/*":
//	  login:
//	    Bob@bot: other
//
// An exact URL key wins over glob keys; glob keys are tried in file order.
// With an empty username the first account of the matching entry is used.
func LoadCredentials(path, baseURL, username string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var raw any
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return "", "", fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	doc, _ := raw.(yaml.MapSlice)

	site, err := matchSite(doc, baseURL)
	if err != nil {
		return "", "", err
	}

	logins, _ := lookup(site, "login").(yaml.MapSlice)
	for _, item := range logins {
		name := fmt.Sprint(item.Key)
		if username == "" || name == username {
			return name, fmt.Sprint(item.Value), nil
		}
	}
	if username == "" {
		return "", "", fmt.Errorf("%w: no login entries for %s", ErrNoCredentials, baseURL)
	}
	return "", "", fmt.Errorf("%w: no password for %s at %s", ErrNoCredentials, username, baseURL)
}

func matchSite(doc yaml.MapSlice, baseURL string) (yaml.MapSlice, error) {
	if site, ok := lookup(doc, baseURL).(yaml.MapSlice); ok {
		return site, nil
	}
	for _, item := range doc {
		pattern := fmt.Sprint(item.Key)
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if g.Match(baseURL) {
			site, _ := item.Value.(yaml.MapSlice)
			return site, nil
		}
	}
	return nil, fmt.Errorf("%w: no entry matches %s", ErrNoCredentials, baseURL)
}

func lookup(ms yaml.MapSlice, key string) any {
	for _, item := range ms {
		if fmt.Sprint(item.Key) == key {
			return item.Value
		}
	}
	return nil
}
