package sanitizer

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	supportedRegions = []string{
		"DE",
		"US",
	}

	reValidPhone = regexp.MustCompile(`^(?:|\+[1-9]\d{7,14})$`)
)

func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" || !reValidPhone.MatchString(phone) {
		return phone
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}

func SanitizeURL(input string) string {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return ""
	}

	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	if after, ok := strings.CutPrefix(u.Host, "www."); ok {
		u.Host = after
	}

	u.Host = strings.TrimSuffix(u.Host, "/")
	u.Path = strings.TrimSuffix(strings.TrimSpace(u.Path), "/")

	q := u.Query()
	qClean := url.Values{}
	for k, v := range q {
		key := strings.TrimSpace(strings.ToLower(k))
		if strings.HasPrefix(key, "utm_") {
			continue
		}
		for _, val := range v {
			value := strings.TrimSpace(val)
			if value != "" {
				qClean.Add(key, value)
			}
		}
	}
	u.RawQuery = qClean.Encode()

	return u.String()
}
